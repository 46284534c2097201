package models

import "time"

// Live batch statuses.
const (
	BatchStatusHealthy    = "healthy"
	BatchStatusSick       = "sick"
	BatchStatusQuarantine = "quarantine"
	BatchStatusCompleted  = "completed"
)

// Dressed batch statuses.
const (
	DressedStatusInStorage = "in-storage"
	DressedStatusSold      = "sold"
	DressedStatusDiscarded = "discarded"
)

// Batch relationship types. Relationships form an append-only provenance
// ledger; rows are never updated or deleted.
const (
	RelationshipPartialProcessedFrom = "partial_processed_from"
	RelationshipSplitFrom            = "split_from"
)

// Batch types used on relationship endpoints.
const (
	BatchTypeLive    = "live"
	BatchTypeDressed = "dressed"
)

// Chicken part names tracked per processing operation.
const (
	PartNeck    = "neck"
	PartFeet    = "feet"
	PartGizzard = "gizzard"
	PartDogFood = "dog_food"
)

// PartNames lists every tracked part, in display order.
var PartNames = []string{PartNeck, PartFeet, PartGizzard, PartDogFood}

// LiveChickenBatch represents a batch of live birds.
// Invariant: CurrentCount <= InitialCount; CurrentCount changes only through
// processing, splits, or mortality events.
type LiveChickenBatch struct {
	ID              int64     `json:"id"`
	BatchID         string    `json:"batch_id" db:"batch_id"`
	Breed           string    `json:"breed" db:"breed"`
	InitialCount    int       `json:"initial_count" db:"initial_count"`
	CurrentCount    int       `json:"current_count" db:"current_count"`
	HatchDate       time.Time `json:"hatch_date" db:"hatch_date"`
	Status          string    `json:"status" db:"status"`
	CurrentWeightKg float64   `json:"current_weight_kg" db:"current_weight_kg"`
	FeedType        *string   `json:"feed_type,omitempty" db:"feed_type"`
	Notes           *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// PartsBreakdown holds per-part counts or weights keyed by part name.
type PartsBreakdown map[string]float64

// DressedChickenBatch represents a processed batch of birds.
// ProcessingQuantity never changes once created; CurrentCount may diverge
// from it over time as whole birds are sold or discarded.
type DressedChickenBatch struct {
	ID                 int64          `json:"id"`
	BatchID            string         `json:"batch_id" db:"batch_id"`
	ProcessingDate     time.Time      `json:"processing_date" db:"processing_date"`
	ProcessingQuantity int            `json:"processing_quantity" db:"processing_quantity"`
	CurrentCount       int            `json:"current_count" db:"current_count"`
	AverageWeightKg    float64        `json:"average_weight_kg" db:"average_weight_kg"`
	SizeCategoryID     *int64         `json:"size_category_id,omitempty" db:"size_category_id"`
	SizeCategoryCustom *string        `json:"size_category_custom,omitempty" db:"size_category_custom"`
	Status             string         `json:"status" db:"status"`
	ExpiryDate         time.Time      `json:"expiry_date" db:"expiry_date"`
	RemainingBirds     int            `json:"remaining_birds" db:"remaining_birds"`
	PartsCount         PartsBreakdown `json:"parts_count"`
	PartsWeight        PartsBreakdown `json:"parts_weight"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
	SizeCategory       *SizeCategory  `json:"size_category,omitempty"` // For joining with SizeCategory
}

// TotalPartsWeight sums the recorded part weights in kilograms.
func (b *DressedChickenBatch) TotalPartsWeight() float64 {
	var total float64
	for _, w := range b.PartsWeight {
		total += w
	}
	return total
}

// SizeCategory is a predefined dressed-bird size bucket.
type SizeCategory struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name" db:"name"`
	MinWeightKg *float64 `json:"min_weight_kg,omitempty" db:"min_weight_kg"`
	MaxWeightKg *float64 `json:"max_weight_kg,omitempty" db:"max_weight_kg"`
}

// BatchRelationship is a directed provenance edge between two batches.
// Reference groups the relationships written by a single processing operation.
type BatchRelationship struct {
	ID               int64     `json:"id"`
	SourceBatchID    string    `json:"source_batch_id" db:"source_batch_id"`
	SourceBatchType  string    `json:"source_batch_type" db:"source_batch_type"`
	TargetBatchID    string    `json:"target_batch_id" db:"target_batch_id"`
	TargetBatchType  string    `json:"target_batch_type" db:"target_batch_type"`
	RelationshipType string    `json:"relationship_type" db:"relationship_type"`
	Quantity         int       `json:"quantity" db:"quantity"`
	Reference        string    `json:"reference" db:"reference"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// MortalityEvent records bird deaths against a live batch.
type MortalityEvent struct {
	ID        int64     `json:"id"`
	BatchID   int64     `json:"batch_id" db:"batch_id"`
	Count     int       `json:"count" db:"count"`
	EventDate time.Time `json:"event_date" db:"event_date"`
	Cause     *string   `json:"cause,omitempty" db:"cause"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LiveBatchFilters defines the available filters for querying live batches.
type LiveBatchFilters struct {
	Breed    *string `form:"breed"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// DressedBatchFilters defines the available filters for querying dressed batches.
type DressedBatchFilters struct {
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// IsValidBatchStatus reports whether s is a known live-batch status.
func IsValidBatchStatus(s string) bool {
	switch s {
	case BatchStatusHealthy, BatchStatusSick, BatchStatusQuarantine, BatchStatusCompleted:
		return true
	}
	return false
}

// IsValidDressedStatus reports whether s is a known dressed-batch status.
func IsValidDressedStatus(s string) bool {
	switch s {
	case DressedStatusInStorage, DressedStatusSold, DressedStatusDiscarded:
		return true
	}
	return false
}

// IsValidPartName reports whether name is a tracked chicken part.
func IsValidPartName(name string) bool {
	switch name {
	case PartNeck, PartFeet, PartGizzard, PartDogFood:
		return true
	}
	return false
}
