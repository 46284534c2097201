package models

import "time"

// Alert types.
const (
	AlertLowStock      = "low_stock"
	AlertNoConsumption = "no_consumption"
	AlertFCRDeviation  = "fcr_deviation"
	AlertExpiryWarning = "expiry_warning"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// FeedAlert is a generated advisory. Alerts are never deleted, only
// acknowledged.
type FeedAlert struct {
	ID             int64      `json:"id"`
	AlertType      string     `json:"alert_type" db:"alert_type"`
	Severity       string     `json:"severity" db:"severity"`
	FeedID         *int64     `json:"feed_id,omitempty" db:"feed_id"`
	ChickenBatchID *int64     `json:"chicken_batch_id,omitempty" db:"chicken_batch_id"`
	Message        string     `json:"message" db:"message"`
	Acknowledged   bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// FeedAlertFilters defines the available filters for querying alerts.
type FeedAlertFilters struct {
	Acknowledged *bool   `form:"acknowledged"`
	Severity     *string `form:"severity"`
	AlertType    *string `form:"alert_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
