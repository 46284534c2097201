package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"poultry_farm_backend/internal/models"
)

// FeedInventoryRepository defines the interface for feed-inventory database operations.
type FeedInventoryRepository interface {
	CreateFeedItem(executor SQLExecutor, item *models.FeedInventoryItem) (int64, error)
	GetFeedItemByID(id int64) (*models.FeedInventoryItem, error)
	GetFeedItems(filters models.FeedInventoryFilters) ([]models.FeedInventoryItem, int, error)
	UpdateFeedItem(executor SQLExecutor, item *models.FeedInventoryItem) error
	AdjustQuantity(executor SQLExecutor, id int64, deltaKg float64) (float64, error)
	DeleteFeedItem(executor SQLExecutor, id int64) error
	GetStockByFeedType() (map[string]float64, error)

	CreateAssignment(executor SQLExecutor, assignment *models.FeedBatchAssignment) (int64, error)
	GetAssignmentsByFeed(feedID int64) ([]models.FeedBatchAssignment, error)
	GetAssignmentsByBatch(batchID int64) ([]models.FeedBatchAssignment, error)
	SumAssignedQuantity(feedID int64) (float64, error)
}

type feedInventoryRepository struct {
	db *sql.DB
}

// NewFeedInventoryRepository creates a new instance of FeedInventoryRepository.
func NewFeedInventoryRepository(db *sql.DB) FeedInventoryRepository {
	return &feedInventoryRepository{db: db}
}

const feedItemColumns = `id, feed_type, brand, supplier, number_of_bags, quantity_kg, cost_per_bag,
	purchase_date, expiry_date, created_at, updated_at`

func scanFeedItem(row interface{ Scan(dest ...interface{}) error }) (*models.FeedInventoryItem, error) {
	item := &models.FeedInventoryItem{}
	var brand, supplier sql.NullString
	var expiryDate sql.NullTime
	err := row.Scan(
		&item.ID, &item.FeedType, &brand, &supplier, &item.NumberOfBags, &item.QuantityKg,
		&item.CostPerBag, &item.PurchaseDate, &expiryDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if brand.Valid {
		item.Brand = &brand.String
	}
	if supplier.Valid {
		item.Supplier = &supplier.String
	}
	if expiryDate.Valid {
		item.ExpiryDate = &expiryDate.Time
	}
	return item, nil
}

func (r *feedInventoryRepository) CreateFeedItem(executor SQLExecutor, item *models.FeedInventoryItem) (int64, error) {
	query := `INSERT INTO feed_inventory
	          (feed_type, brand, supplier, number_of_bags, quantity_kg, cost_per_bag, purchase_date, expiry_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	currentTime := time.Now()
	if item.PurchaseDate.IsZero() {
		item.PurchaseDate = currentTime
	}

	err := executor.QueryRow(query,
		item.FeedType, item.Brand, item.Supplier, item.NumberOfBags, item.QuantityKg,
		item.CostPerBag, item.PurchaseDate, item.ExpiryDate, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating feed item: %v", ErrDatabaseError, err)
	}
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime
	return item.ID, nil
}

func (r *feedInventoryRepository) GetFeedItemByID(id int64) (*models.FeedInventoryItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_inventory WHERE id = $1`
	item, err := scanFeedItem(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting feed item %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *feedInventoryRepository) GetFeedItems(filters models.FeedInventoryFilters) ([]models.FeedInventoryItem, int, error) {
	items := []models.FeedInventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + feedItemColumns + `, COUNT(*) OVER() AS total_count FROM feed_inventory`)

	var args []interface{}
	argCount := 1

	if filters.FeedType != nil && *filters.FeedType != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE feed_type = $%d", argCount))
		args = append(args, *filters.FeedType)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY purchase_date DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting feed items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item := models.FeedInventoryItem{}
		var brand, supplier sql.NullString
		var expiryDate sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.FeedType, &brand, &supplier, &item.NumberOfBags, &item.QuantityKg,
			&item.CostPerBag, &item.PurchaseDate, &expiryDate, &item.CreatedAt, &item.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning feed item: %v", ErrDatabaseError, err)
		}
		if brand.Valid {
			item.Brand = &brand.String
		}
		if supplier.Valid {
			item.Supplier = &supplier.String
		}
		if expiryDate.Valid {
			item.ExpiryDate = &expiryDate.Time
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating feed items: %v", ErrDatabaseError, err)
	}

	return items, totalCount, nil
}

func (r *feedInventoryRepository) UpdateFeedItem(executor SQLExecutor, item *models.FeedInventoryItem) error {
	query := `UPDATE feed_inventory
	          SET feed_type = $1, brand = $2, supplier = $3, number_of_bags = $4, cost_per_bag = $5,
	              purchase_date = $6, expiry_date = $7, updated_at = $8
	          WHERE id = $9`
	result, err := executor.Exec(query,
		item.FeedType, item.Brand, item.Supplier, item.NumberOfBags, item.CostPerBag,
		item.PurchaseDate, item.ExpiryDate, time.Now(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating feed item %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity applies a delta to quantity_kg, refusing to go below zero,
// and returns the new quantity.
func (r *feedInventoryRepository) AdjustQuantity(executor SQLExecutor, id int64, deltaKg float64) (float64, error) {
	query := `UPDATE feed_inventory
	          SET quantity_kg = quantity_kg + $1, updated_at = $2
	          WHERE id = $3 AND quantity_kg + $1 >= 0
	          RETURNING quantity_kg`
	var newQuantity float64
	err := executor.QueryRow(query, deltaKg, time.Now(), id).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Disambiguate through the same executor so the check sees this
			// tx's writes.
			var exists bool
			if checkErr := executor.QueryRow(`SELECT EXISTS(SELECT 1 FROM feed_inventory WHERE id = $1)`, id).Scan(&exists); checkErr == nil && exists {
				return 0, ErrStockUnderflow
			}
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adjusting quantity for feed item %d: %v", ErrDatabaseError, id, err)
	}
	return newQuantity, nil
}

func (r *feedInventoryRepository) DeleteFeedItem(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM feed_inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting feed item %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStockByFeedType returns the remaining stock summed per feed type.
func (r *feedInventoryRepository) GetStockByFeedType() (map[string]float64, error) {
	rows, err := r.db.Query(`SELECT feed_type, COALESCE(SUM(quantity_kg), 0) FROM feed_inventory GROUP BY feed_type`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting stock by feed type: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	stocks := map[string]float64{}
	for rows.Next() {
		var feedType string
		var totalKg float64
		if err := rows.Scan(&feedType, &totalKg); err != nil {
			return nil, fmt.Errorf("%w: scanning feed type stock: %v", ErrDatabaseError, err)
		}
		stocks[feedType] = totalKg
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating feed type stocks: %v", ErrDatabaseError, err)
	}
	return stocks, nil
}

func (r *feedInventoryRepository) CreateAssignment(executor SQLExecutor, assignment *models.FeedBatchAssignment) (int64, error) {
	query := `INSERT INTO feed_batch_assignments (feed_id, batch_id, assigned_quantity_kg, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		assignment.FeedID, assignment.BatchID, assignment.AssignedQuantityKg, currentTime, currentTime,
	).Scan(&assignment.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating feed assignment: %v", ErrDatabaseError, err)
	}
	return assignment.ID, nil
}

func (r *feedInventoryRepository) getAssignments(column string, id int64) ([]models.FeedBatchAssignment, error) {
	query := fmt.Sprintf(`SELECT id, feed_id, batch_id, assigned_quantity_kg, created_at, updated_at
	          FROM feed_batch_assignments WHERE %s = $1 ORDER BY id`, column)
	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("%w: getting feed assignments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	assignments := []models.FeedBatchAssignment{}
	for rows.Next() {
		assignment := models.FeedBatchAssignment{}
		if err := rows.Scan(
			&assignment.ID, &assignment.FeedID, &assignment.BatchID, &assignment.AssignedQuantityKg,
			&assignment.CreatedAt, &assignment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning feed assignment: %v", ErrDatabaseError, err)
		}
		assignments = append(assignments, assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating feed assignments: %v", ErrDatabaseError, err)
	}
	return assignments, nil
}

func (r *feedInventoryRepository) GetAssignmentsByFeed(feedID int64) ([]models.FeedBatchAssignment, error) {
	return r.getAssignments("feed_id", feedID)
}

func (r *feedInventoryRepository) GetAssignmentsByBatch(batchID int64) ([]models.FeedBatchAssignment, error) {
	return r.getAssignments("batch_id", batchID)
}

func (r *feedInventoryRepository) SumAssignedQuantity(feedID int64) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(assigned_quantity_kg), 0) FROM feed_batch_assignments WHERE feed_id = $1`
	if err := r.db.QueryRow(query, feedID).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing assignments for feed %d: %v", ErrDatabaseError, feedID, err)
	}
	return total, nil
}
