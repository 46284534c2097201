package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/lib/pq"
)

// LiveBatchRepository defines the interface for live-chicken-batch database operations.
type LiveBatchRepository interface {
	CreateLiveBatch(executor SQLExecutor, batch *models.LiveChickenBatch) (int64, error)
	GetLiveBatchByID(id int64) (*models.LiveChickenBatch, error)
	GetLiveBatchByBatchID(batchID string) (*models.LiveChickenBatch, error)
	GetLiveBatches(filters models.LiveBatchFilters) ([]models.LiveChickenBatch, int, error)
	UpdateLiveBatch(executor SQLExecutor, batch *models.LiveChickenBatch) error
	AdjustCurrentCount(executor SQLExecutor, id int64, delta int) (int, error)
	DeleteLiveBatch(executor SQLExecutor, id int64) error
	LiveBatchIDExists(batchID string) (bool, error)
	CreateMortalityEvent(executor SQLExecutor, event *models.MortalityEvent) (int64, error)
	GetMortalityEvents(batchID int64) ([]models.MortalityEvent, error)
}

type liveBatchRepository struct {
	db *sql.DB
}

// NewLiveBatchRepository creates a new instance of LiveBatchRepository.
func NewLiveBatchRepository(db *sql.DB) LiveBatchRepository {
	return &liveBatchRepository{db: db}
}

const liveBatchColumns = `id, batch_id, breed, initial_count, current_count, hatch_date, status,
	current_weight_kg, feed_type, notes, created_at, updated_at`

func scanLiveBatch(row interface{ Scan(dest ...interface{}) error }) (*models.LiveChickenBatch, error) {
	batch := &models.LiveChickenBatch{}
	var feedType, notes sql.NullString
	err := row.Scan(
		&batch.ID, &batch.BatchID, &batch.Breed, &batch.InitialCount, &batch.CurrentCount,
		&batch.HatchDate, &batch.Status, &batch.CurrentWeightKg, &feedType, &notes,
		&batch.CreatedAt, &batch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if feedType.Valid {
		batch.FeedType = &feedType.String
	}
	if notes.Valid {
		batch.Notes = &notes.String
	}
	return batch, nil
}

func (r *liveBatchRepository) CreateLiveBatch(executor SQLExecutor, batch *models.LiveChickenBatch) (int64, error) {
	query := `INSERT INTO live_chicken_batches
	          (batch_id, breed, initial_count, current_count, hatch_date, status, current_weight_kg, feed_type, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		batch.BatchID, batch.Breed, batch.InitialCount, batch.CurrentCount, batch.HatchDate,
		batch.Status, batch.CurrentWeightKg, batch.FeedType, batch.Notes, currentTime, currentTime,
	).Scan(&batch.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating live batch: %v", ErrDatabaseError, err)
	}
	batch.CreatedAt = currentTime
	batch.UpdatedAt = currentTime
	return batch.ID, nil
}

func (r *liveBatchRepository) GetLiveBatchByID(id int64) (*models.LiveChickenBatch, error) {
	query := `SELECT ` + liveBatchColumns + ` FROM live_chicken_batches WHERE id = $1`
	batch, err := scanLiveBatch(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting live batch %d: %v", ErrDatabaseError, id, err)
	}
	return batch, nil
}

func (r *liveBatchRepository) GetLiveBatchByBatchID(batchID string) (*models.LiveChickenBatch, error) {
	query := `SELECT ` + liveBatchColumns + ` FROM live_chicken_batches WHERE batch_id = $1`
	batch, err := scanLiveBatch(r.db.QueryRow(query, batchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting live batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return batch, nil
}

func (r *liveBatchRepository) GetLiveBatches(filters models.LiveBatchFilters) ([]models.LiveChickenBatch, int, error) {
	batches := []models.LiveChickenBatch{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + liveBatchColumns + `, COUNT(*) OVER() AS total_count FROM live_chicken_batches`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Breed != nil && *filters.Breed != "" {
		conditions = append(conditions, fmt.Sprintf("breed = $%d", argCount))
		args = append(args, *filters.Breed)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY hatch_date DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting live batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		batch := models.LiveChickenBatch{}
		var feedType, notes sql.NullString
		if err := rows.Scan(
			&batch.ID, &batch.BatchID, &batch.Breed, &batch.InitialCount, &batch.CurrentCount,
			&batch.HatchDate, &batch.Status, &batch.CurrentWeightKg, &feedType, &notes,
			&batch.CreatedAt, &batch.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning live batch: %v", ErrDatabaseError, err)
		}
		if feedType.Valid {
			batch.FeedType = &feedType.String
		}
		if notes.Valid {
			batch.Notes = &notes.String
		}
		batches = append(batches, batch)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating live batches: %v", ErrDatabaseError, err)
	}

	return batches, totalCount, nil
}

func (r *liveBatchRepository) UpdateLiveBatch(executor SQLExecutor, batch *models.LiveChickenBatch) error {
	query := `UPDATE live_chicken_batches
	          SET breed = $1, status = $2, current_weight_kg = $3, feed_type = $4, notes = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		batch.Breed, batch.Status, batch.CurrentWeightKg, batch.FeedType, batch.Notes, time.Now(), batch.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating live batch %d: %v", ErrDatabaseError, batch.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustCurrentCount applies a delta to current_count, refusing to go below
// zero, and returns the new count.
func (r *liveBatchRepository) AdjustCurrentCount(executor SQLExecutor, id int64, delta int) (int, error) {
	query := `UPDATE live_chicken_batches
	          SET current_count = current_count + $1, updated_at = $2
	          WHERE id = $3 AND current_count + $1 >= 0
	          RETURNING current_count`
	var newCount int
	err := executor.QueryRow(query, delta, time.Now(), id).Scan(&newCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the batch is missing or the delta underflows; disambiguate
			// through the same executor so the check sees this tx's writes.
			var exists bool
			if checkErr := executor.QueryRow(`SELECT EXISTS(SELECT 1 FROM live_chicken_batches WHERE id = $1)`, id).Scan(&exists); checkErr == nil && exists {
				return 0, ErrStockUnderflow
			}
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adjusting count for live batch %d: %v", ErrDatabaseError, id, err)
	}
	return newCount, nil
}

func (r *liveBatchRepository) DeleteLiveBatch(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM live_chicken_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting live batch %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *liveBatchRepository) LiveBatchIDExists(batchID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM live_chicken_batches WHERE batch_id = $1)`, batchID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking live batch id %s: %v", ErrDatabaseError, batchID, err)
	}
	return exists, nil
}

func (r *liveBatchRepository) CreateMortalityEvent(executor SQLExecutor, event *models.MortalityEvent) (int64, error) {
	query := `INSERT INTO mortality_events (batch_id, count, event_date, cause, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	currentTime := time.Now()
	if event.EventDate.IsZero() {
		event.EventDate = currentTime
	}
	err := executor.QueryRow(query, event.BatchID, event.Count, event.EventDate, event.Cause, currentTime).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating mortality event: %v", ErrDatabaseError, err)
	}
	return event.ID, nil
}

func (r *liveBatchRepository) GetMortalityEvents(batchID int64) ([]models.MortalityEvent, error) {
	query := `SELECT id, batch_id, count, event_date, cause, created_at
	          FROM mortality_events WHERE batch_id = $1 ORDER BY event_date DESC`
	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting mortality events for batch %d: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	events := []models.MortalityEvent{}
	for rows.Next() {
		event := models.MortalityEvent{}
		var cause sql.NullString
		if err := rows.Scan(&event.ID, &event.BatchID, &event.Count, &event.EventDate, &cause, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning mortality event: %v", ErrDatabaseError, err)
		}
		if cause.Valid {
			event.Cause = &cause.String
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating mortality events: %v", ErrDatabaseError, err)
	}
	return events, nil
}
