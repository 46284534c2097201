package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"poultry_farm_backend/internal/models"
)

// FeedConsumptionRepository defines the interface for feed-consumption database operations.
type FeedConsumptionRepository interface {
	CreateConsumption(executor SQLExecutor, event *models.FeedConsumptionEvent) (int64, error)
	GetConsumptionByID(id int64) (*models.FeedConsumptionEvent, error)
	GetConsumptions(filters models.FeedConsumptionFilters) ([]models.FeedConsumptionEvent, int, error)
	DeleteConsumption(executor SQLExecutor, id int64) error
	GetTotalConsumedByBatch(batchID int64) (float64, error)
	GetConsumptionBreakdownByBatch(batchID int64) (map[string]float64, error)
	GetDailyTotalsByFeedType(since time.Time) (map[string]float64, error)
	GetLastConsumptionDates() (map[int64]time.Time, error)
}

type feedConsumptionRepository struct {
	db *sql.DB
}

// NewFeedConsumptionRepository creates a new instance of FeedConsumptionRepository.
func NewFeedConsumptionRepository(db *sql.DB) FeedConsumptionRepository {
	return &feedConsumptionRepository{db: db}
}

func (r *feedConsumptionRepository) CreateConsumption(executor SQLExecutor, event *models.FeedConsumptionEvent) (int64, error) {
	query := `INSERT INTO feed_consumption
	          (feed_id, chicken_batch_id, quantity_consumed, consumption_date, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	if event.ConsumptionDate.IsZero() {
		event.ConsumptionDate = currentTime
	}

	err := executor.QueryRow(query,
		event.FeedID, event.ChickenBatchID, event.QuantityConsumed, event.ConsumptionDate,
		event.Notes, currentTime, currentTime,
	).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating consumption event: %v", ErrDatabaseError, err)
	}
	return event.ID, nil
}

func (r *feedConsumptionRepository) GetConsumptionByID(id int64) (*models.FeedConsumptionEvent, error) {
	event := &models.FeedConsumptionEvent{}
	var notes, feedType sql.NullString
	query := `SELECT fc.id, fc.feed_id, fc.chicken_batch_id, fc.quantity_consumed, fc.consumption_date,
	                 fc.notes, fc.created_at, fc.updated_at, fi.feed_type
	          FROM feed_consumption fc
	          JOIN feed_inventory fi ON fc.feed_id = fi.id
	          WHERE fc.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&event.ID, &event.FeedID, &event.ChickenBatchID, &event.QuantityConsumed, &event.ConsumptionDate,
		&notes, &event.CreatedAt, &event.UpdatedAt, &feedType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting consumption event %d: %v", ErrDatabaseError, id, err)
	}
	if notes.Valid {
		event.Notes = &notes.String
	}
	if feedType.Valid {
		event.FeedType = &feedType.String
	}
	return event, nil
}

func (r *feedConsumptionRepository) GetConsumptions(filters models.FeedConsumptionFilters) ([]models.FeedConsumptionEvent, int, error) {
	events := []models.FeedConsumptionEvent{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT fc.id, fc.feed_id, fc.chicken_batch_id, fc.quantity_consumed, fc.consumption_date,
	    fc.notes, fc.created_at, fc.updated_at, fi.feed_type,
	    COUNT(*) OVER() AS total_count
	  FROM feed_consumption fc
	  JOIN feed_inventory fi ON fc.feed_id = fi.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.FeedID != nil {
		conditions = append(conditions, fmt.Sprintf("fc.feed_id = $%d", argCount))
		args = append(args, *filters.FeedID)
		argCount++
	}
	if filters.ChickenBatchID != nil {
		conditions = append(conditions, fmt.Sprintf("fc.chicken_batch_id = $%d", argCount))
		args = append(args, *filters.ChickenBatchID)
		argCount++
	}
	if filters.DateFrom != nil && *filters.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("fc.consumption_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("fc.consumption_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY fc.consumption_date DESC, fc.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting consumption events: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		event := models.FeedConsumptionEvent{}
		var notes, feedType sql.NullString
		if err := rows.Scan(
			&event.ID, &event.FeedID, &event.ChickenBatchID, &event.QuantityConsumed, &event.ConsumptionDate,
			&notes, &event.CreatedAt, &event.UpdatedAt, &feedType,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning consumption event: %v", ErrDatabaseError, err)
		}
		if notes.Valid {
			event.Notes = &notes.String
		}
		if feedType.Valid {
			event.FeedType = &feedType.String
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating consumption events: %v", ErrDatabaseError, err)
	}

	return events, totalCount, nil
}

func (r *feedConsumptionRepository) DeleteConsumption(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM feed_consumption WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting consumption event %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *feedConsumptionRepository) GetTotalConsumedByBatch(batchID int64) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(quantity_consumed), 0) FROM feed_consumption WHERE chicken_batch_id = $1`
	if err := r.db.QueryRow(query, batchID).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing consumption for batch %d: %v", ErrDatabaseError, batchID, err)
	}
	return total, nil
}

// GetConsumptionBreakdownByBatch returns total consumed per feed type for one batch.
func (r *feedConsumptionRepository) GetConsumptionBreakdownByBatch(batchID int64) (map[string]float64, error) {
	query := `SELECT fi.feed_type, COALESCE(SUM(fc.quantity_consumed), 0)
	          FROM feed_consumption fc
	          JOIN feed_inventory fi ON fc.feed_id = fi.id
	          WHERE fc.chicken_batch_id = $1
	          GROUP BY fi.feed_type`
	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting consumption breakdown for batch %d: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	breakdown := map[string]float64{}
	for rows.Next() {
		var feedType string
		var totalKg float64
		if err := rows.Scan(&feedType, &totalKg); err != nil {
			return nil, fmt.Errorf("%w: scanning consumption breakdown: %v", ErrDatabaseError, err)
		}
		breakdown[feedType] = totalKg
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating consumption breakdown: %v", ErrDatabaseError, err)
	}
	return breakdown, nil
}

// GetDailyTotalsByFeedType returns total consumption per feed type since the
// given instant. The caller derives averages from the window length.
func (r *feedConsumptionRepository) GetDailyTotalsByFeedType(since time.Time) (map[string]float64, error) {
	query := `SELECT fi.feed_type, COALESCE(SUM(fc.quantity_consumed), 0)
	          FROM feed_consumption fc
	          JOIN feed_inventory fi ON fc.feed_id = fi.id
	          WHERE fc.consumption_date >= $1
	          GROUP BY fi.feed_type`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("%w: getting consumption totals by feed type: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	totals := map[string]float64{}
	for rows.Next() {
		var feedType string
		var totalKg float64
		if err := rows.Scan(&feedType, &totalKg); err != nil {
			return nil, fmt.Errorf("%w: scanning consumption total: %v", ErrDatabaseError, err)
		}
		totals[feedType] = totalKg
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating consumption totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

// GetLastConsumptionDates returns, per live batch id, the most recent
// consumption date recorded against it.
func (r *feedConsumptionRepository) GetLastConsumptionDates() (map[int64]time.Time, error) {
	query := `SELECT chicken_batch_id, MAX(consumption_date) FROM feed_consumption GROUP BY chicken_batch_id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: getting last consumption dates: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	dates := map[int64]time.Time{}
	for rows.Next() {
		var batchID int64
		var lastDate time.Time
		if err := rows.Scan(&batchID, &lastDate); err != nil {
			return nil, fmt.Errorf("%w: scanning last consumption date: %v", ErrDatabaseError, err)
		}
		dates[batchID] = lastDate
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating last consumption dates: %v", ErrDatabaseError, err)
	}
	return dates, nil
}
