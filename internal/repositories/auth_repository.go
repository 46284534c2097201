package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/lib/pq"
)

// AuthRepository defines the interface for staff-account database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()

	var userID int64
	err := executor.QueryRow(query,
		user.Username, hashedPassword, user.FullName, user.Role, true, currentTime, currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

// FindUserByUsername retrieves a user and their hashed password by username.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var fullName sql.NullString

	query := `SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
	          FROM users WHERE username = $1`
	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &fullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	return user, hashedPassword, nil
}

func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	var fullName sql.NullString

	query := `SELECT id, username, full_name, role, is_active, created_at, updated_at
	          FROM users WHERE id = $1`
	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Username, &fullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by id %d: %v", ErrDatabaseError, userID, err)
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	return user, nil
}
