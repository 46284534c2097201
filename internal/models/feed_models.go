package models

import "time"

// Stock status values derived from an item's remaining quantity.
const (
	StockStatusOut    = "out_of_stock"
	StockStatusLow    = "low_stock"
	StockStatusNormal = "normal"
)

// LowStockThresholdKg is the remaining quantity at or below which an item
// counts as low stock.
const LowStockThresholdKg = 50.0

// FeedInventoryItem represents a feed purchase and its remaining stock.
// QuantityKg decreases as consumption events are recorded against it.
type FeedInventoryItem struct {
	ID           int64      `json:"id"`
	FeedType     string     `json:"feed_type" db:"feed_type"`
	Brand        *string    `json:"brand,omitempty" db:"brand"`
	Supplier     *string    `json:"supplier,omitempty" db:"supplier"`
	NumberOfBags int        `json:"number_of_bags" db:"number_of_bags"`
	QuantityKg   float64    `json:"quantity_kg" db:"quantity_kg"`
	CostPerBag   float64    `json:"cost_per_bag" db:"cost_per_bag"`
	PurchaseDate time.Time  `json:"purchase_date" db:"purchase_date"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	AssignedBatches []FeedBatchAssignment `json:"assigned_batches,omitempty"`
	StockStatus     string                `json:"stock_status,omitempty"` // Derived, never persisted
}

// FeedBatchAssignment earmarks part of a feed item for a live batch.
// Invariant: the sum of assignments on an item never exceeds its QuantityKg
// at assignment time.
type FeedBatchAssignment struct {
	ID                 int64     `json:"id"`
	FeedID             int64     `json:"feed_id" db:"feed_id"`
	BatchID            int64     `json:"batch_id" db:"batch_id"`
	AssignedQuantityKg float64   `json:"assigned_quantity_kg" db:"assigned_quantity_kg"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// FeedConsumptionEvent records feed taken from an inventory item by a batch.
// Deleting one restores exactly QuantityConsumed to the item.
type FeedConsumptionEvent struct {
	ID               int64     `json:"id"`
	FeedID           int64     `json:"feed_id" db:"feed_id"`
	ChickenBatchID   int64     `json:"chicken_batch_id" db:"chicken_batch_id"`
	QuantityConsumed float64   `json:"quantity_consumed" db:"quantity_consumed"`
	ConsumptionDate  time.Time `json:"consumption_date" db:"consumption_date"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	FeedType *string `json:"feed_type,omitempty"` // Joined from feed_inventory
}

// FeedInventoryFilters defines the available filters for querying feed items.
type FeedInventoryFilters struct {
	FeedType *string `form:"feed_type"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// FeedConsumptionFilters defines the available filters for querying consumption events.
type FeedConsumptionFilters struct {
	FeedID         *int64  `form:"feed_id"`
	ChickenBatchID *int64  `form:"chicken_batch_id"`
	DateFrom       *string `form:"date_from"` // Expected format YYYY-MM-DD
	DateTo         *string `form:"date_to"`
	Page           int     `form:"page"`
	PageSize       int     `form:"page_size"`
}
