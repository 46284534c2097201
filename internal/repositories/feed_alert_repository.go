package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"poultry_farm_backend/internal/models"
)

// FeedAlertRepository defines the interface for feed-alert database operations.
// Alerts are append-only; acknowledgement is the only mutation.
type FeedAlertRepository interface {
	CreateAlert(executor SQLExecutor, alert *models.FeedAlert) (int64, error)
	GetAlertByID(id int64) (*models.FeedAlert, error)
	GetAlerts(filters models.FeedAlertFilters) ([]models.FeedAlert, int, error)
	AcknowledgeAlert(executor SQLExecutor, id int64, at time.Time) (*models.FeedAlert, error)
	OpenAlertExists(alertType string, feedID *int64, chickenBatchID *int64) (bool, error)
	CountOpenAlerts() (int, error)
}

type feedAlertRepository struct {
	db *sql.DB
}

// NewFeedAlertRepository creates a new instance of FeedAlertRepository.
func NewFeedAlertRepository(db *sql.DB) FeedAlertRepository {
	return &feedAlertRepository{db: db}
}

const alertColumns = `id, alert_type, severity, feed_id, chicken_batch_id, message, acknowledged, acknowledged_at, created_at`

func scanAlert(row interface{ Scan(dest ...interface{}) error }) (*models.FeedAlert, error) {
	alert := &models.FeedAlert{}
	var feedID, chickenBatchID sql.NullInt64
	var acknowledgedAt sql.NullTime
	err := row.Scan(
		&alert.ID, &alert.AlertType, &alert.Severity, &feedID, &chickenBatchID,
		&alert.Message, &alert.Acknowledged, &acknowledgedAt, &alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if feedID.Valid {
		alert.FeedID = &feedID.Int64
	}
	if chickenBatchID.Valid {
		alert.ChickenBatchID = &chickenBatchID.Int64
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	return alert, nil
}

func (r *feedAlertRepository) CreateAlert(executor SQLExecutor, alert *models.FeedAlert) (int64, error) {
	query := `INSERT INTO feed_alerts (alert_type, severity, feed_id, chicken_batch_id, message, acknowledged, created_at)
	          VALUES ($1, $2, $3, $4, $5, false, $6)
	          RETURNING id`
	currentTime := time.Now()

	var feedID, chickenBatchID sql.NullInt64
	if alert.FeedID != nil {
		feedID = sql.NullInt64{Int64: *alert.FeedID, Valid: true}
	}
	if alert.ChickenBatchID != nil {
		chickenBatchID = sql.NullInt64{Int64: *alert.ChickenBatchID, Valid: true}
	}

	err := executor.QueryRow(query,
		alert.AlertType, alert.Severity, feedID, chickenBatchID, alert.Message, currentTime,
	).Scan(&alert.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating feed alert: %v", ErrDatabaseError, err)
	}
	alert.CreatedAt = currentTime
	return alert.ID, nil
}

func (r *feedAlertRepository) GetAlertByID(id int64) (*models.FeedAlert, error) {
	alert, err := scanAlert(r.db.QueryRow(`SELECT `+alertColumns+` FROM feed_alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting feed alert %d: %v", ErrDatabaseError, id, err)
	}
	return alert, nil
}

func (r *feedAlertRepository) GetAlerts(filters models.FeedAlertFilters) ([]models.FeedAlert, int, error) {
	alerts := []models.FeedAlert{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + alertColumns + `, COUNT(*) OVER() AS total_count FROM feed_alerts`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Acknowledged != nil {
		conditions = append(conditions, fmt.Sprintf("acknowledged = $%d", argCount))
		args = append(args, *filters.Acknowledged)
		argCount++
	}
	if filters.Severity != nil && *filters.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argCount))
		args = append(args, *filters.Severity)
		argCount++
	}
	if filters.AlertType != nil && *filters.AlertType != "" {
		conditions = append(conditions, fmt.Sprintf("alert_type = $%d", argCount))
		args = append(args, *filters.AlertType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting feed alerts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		alert := models.FeedAlert{}
		var feedID, chickenBatchID sql.NullInt64
		var acknowledgedAt sql.NullTime
		if err := rows.Scan(
			&alert.ID, &alert.AlertType, &alert.Severity, &feedID, &chickenBatchID,
			&alert.Message, &alert.Acknowledged, &acknowledgedAt, &alert.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning feed alert: %v", ErrDatabaseError, err)
		}
		if feedID.Valid {
			alert.FeedID = &feedID.Int64
		}
		if chickenBatchID.Valid {
			alert.ChickenBatchID = &chickenBatchID.Int64
		}
		if acknowledgedAt.Valid {
			alert.AcknowledgedAt = &acknowledgedAt.Time
		}
		alerts = append(alerts, alert)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating feed alerts: %v", ErrDatabaseError, err)
	}

	return alerts, totalCount, nil
}

// AcknowledgeAlert marks an alert acknowledged. Acknowledging an already
// acknowledged alert keeps the original acknowledged_at.
func (r *feedAlertRepository) AcknowledgeAlert(executor SQLExecutor, id int64, at time.Time) (*models.FeedAlert, error) {
	query := `UPDATE feed_alerts
	          SET acknowledged = true, acknowledged_at = COALESCE(acknowledged_at, $1)
	          WHERE id = $2
	          RETURNING ` + alertColumns
	alert, err := scanAlert(executor.QueryRow(query, at, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: acknowledging feed alert %d: %v", ErrDatabaseError, id, err)
	}
	return alert, nil
}

// OpenAlertExists reports whether an unacknowledged alert with the same type
// and subject already exists. Used to deduplicate alert generation.
func (r *feedAlertRepository) OpenAlertExists(alertType string, feedID *int64, chickenBatchID *int64) (bool, error) {
	query := `SELECT EXISTS(
	            SELECT 1 FROM feed_alerts
	            WHERE alert_type = $1
	              AND acknowledged = false
	              AND feed_id IS NOT DISTINCT FROM $2
	              AND chicken_batch_id IS NOT DISTINCT FROM $3)`

	var feedIDArg, batchIDArg sql.NullInt64
	if feedID != nil {
		feedIDArg = sql.NullInt64{Int64: *feedID, Valid: true}
	}
	if chickenBatchID != nil {
		batchIDArg = sql.NullInt64{Int64: *chickenBatchID, Valid: true}
	}

	var exists bool
	if err := r.db.QueryRow(query, alertType, feedIDArg, batchIDArg).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking open alert: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *feedAlertRepository) CountOpenAlerts() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM feed_alerts WHERE acknowledged = false`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open alerts: %v", ErrDatabaseError, err)
	}
	return count, nil
}
