package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
)

// --- Custom Service Errors ---
var (
	ErrFeedItemNotFound    = errors.New("feed inventory item not found")
	ErrConsumptionNotFound = errors.New("feed consumption event not found")
	ErrInsufficientStock   = errors.New("insufficient feed stock")
	ErrOverAssigned        = errors.New("assignment exceeds available feed quantity")
)

// --- Data Transfer Objects (DTOs) ---

// CreateFeedItemRequest registers a feed purchase in the inventory.
type CreateFeedItemRequest struct {
	FeedType     string  `json:"feed_type" binding:"required"`
	QuantityKg   float64 `json:"quantity_kg" binding:"required,gt=0"`
	CostPerBag   float64 `json:"cost_per_bag"`
	NumberOfBags int     `json:"number_of_bags"`
	PurchaseDate *string `json:"purchase_date"` // YYYY-MM-DD, defaults to today
	ExpiryDate   *string `json:"expiry_date"`   // YYYY-MM-DD
	Brand        *string `json:"brand"`
	Supplier     *string `json:"supplier"`
}

// UpdateFeedItemRequest updates descriptive fields of a feed item.
// Quantity moves only through consumption and explicit adjustments.
type UpdateFeedItemRequest struct {
	FeedType     *string  `json:"feed_type"`
	CostPerBag   *float64 `json:"cost_per_bag"`
	NumberOfBags *int     `json:"number_of_bags"`
	ExpiryDate   *string  `json:"expiry_date"`
	Brand        *string  `json:"brand"`
	Supplier     *string  `json:"supplier"`
}

// AdjustFeedQuantityRequest applies a manual stock correction.
type AdjustFeedQuantityRequest struct {
	DeltaKg float64 `json:"delta_kg" binding:"required"`
	Reason  *string `json:"reason"`
}

// AssignFeedRequest links a feed item to a live batch with a planned quantity.
type AssignFeedRequest struct {
	ChickenBatchID   int64   `json:"chicken_batch_id" binding:"required"`
	AssignedQuantity float64 `json:"assigned_quantity" binding:"required,gt=0"`
}

// RecordConsumptionRequest records feed consumed by a batch, deducting stock.
type RecordConsumptionRequest struct {
	FeedID          int64   `json:"feed_id" binding:"required"`
	ChickenBatchID  int64   `json:"chicken_batch_id" binding:"required"`
	QuantityKg      float64 `json:"quantity_kg" binding:"required,gt=0"`
	ConsumptionDate *string `json:"consumption_date"` // YYYY-MM-DD, defaults to today
	Notes           *string `json:"notes"`
}

// --- FeedService Interface ---
type FeedService interface {
	CreateFeedItem(req CreateFeedItemRequest) (*models.FeedInventoryItem, error)
	GetFeedItemByID(id int64) (*models.FeedInventoryItem, error)
	GetFeedItems(filters models.FeedInventoryFilters) ([]models.FeedInventoryItem, int, error)
	UpdateFeedItem(id int64, req UpdateFeedItemRequest) (*models.FeedInventoryItem, error)
	AdjustFeedQuantity(id int64, req AdjustFeedQuantityRequest) (*models.FeedInventoryItem, error)
	DeleteFeedItem(id int64) error
	AssignFeedToBatch(feedID int64, req AssignFeedRequest) (*models.FeedBatchAssignment, error)
	GetAssignmentsByFeed(feedID int64) ([]models.FeedBatchAssignment, error)
	GetAssignmentsByBatch(batchID int64) ([]models.FeedBatchAssignment, error)
	RecordConsumption(req RecordConsumptionRequest) (*models.FeedConsumptionEvent, error)
	GetConsumptions(filters models.FeedConsumptionFilters) ([]models.FeedConsumptionEvent, int, error)
	DeleteConsumption(id int64) error
}

// --- feedService Implementation ---
type feedService struct {
	feedRepo        repositories.FeedInventoryRepository
	consumptionRepo repositories.FeedConsumptionRepository
	liveRepo        repositories.LiveBatchRepository
	db              *sql.DB
}

// NewFeedService creates a new instance of FeedService.
func NewFeedService(
	fr repositories.FeedInventoryRepository,
	cr repositories.FeedConsumptionRepository,
	lr repositories.LiveBatchRepository,
	db *sql.DB,
) FeedService {
	return &feedService{
		feedRepo:        fr,
		consumptionRepo: cr,
		liveRepo:        lr,
		db:              db,
	}
}

// stockStatusFor classifies a quantity into out / low / normal stock.
func stockStatusFor(quantityKg float64) string {
	switch {
	case quantityKg <= 0:
		return models.StockStatusOut
	case quantityKg <= models.LowStockThresholdKg:
		return models.StockStatusLow
	default:
		return models.StockStatusNormal
	}
}

func (s *feedService) CreateFeedItem(req CreateFeedItemRequest) (*models.FeedInventoryItem, error) {
	purchaseDate := time.Now()
	if req.PurchaseDate != nil {
		parsed, err := parseDate(*req.PurchaseDate)
		if err != nil {
			return nil, err
		}
		purchaseDate = parsed
	}

	var expiryDate *time.Time
	if req.ExpiryDate != nil {
		parsed, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		expiryDate = &parsed
	}

	if req.CostPerBag < 0 {
		return nil, fmt.Errorf("%w: cost per bag cannot be negative", ErrValidation)
	}
	if req.NumberOfBags < 0 {
		return nil, fmt.Errorf("%w: number of bags cannot be negative", ErrValidation)
	}

	item := &models.FeedInventoryItem{
		FeedType:     req.FeedType,
		QuantityKg:   req.QuantityKg,
		CostPerBag:   req.CostPerBag,
		NumberOfBags: req.NumberOfBags,
		PurchaseDate: purchaseDate,
		ExpiryDate:   expiryDate,
		Brand:        req.Brand,
		Supplier:     req.Supplier,
	}
	if _, err := s.feedRepo.CreateFeedItem(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to create feed item: %w", err)
	}
	item.StockStatus = stockStatusFor(item.QuantityKg)
	return item, nil
}

func (s *feedService) GetFeedItemByID(id int64) (*models.FeedInventoryItem, error) {
	item, err := s.feedRepo.GetFeedItemByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to get feed item: %w", err)
	}
	item.StockStatus = stockStatusFor(item.QuantityKg)
	return item, nil
}

func (s *feedService) GetFeedItems(filters models.FeedInventoryFilters) ([]models.FeedInventoryItem, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	items, totalCount, err := s.feedRepo.GetFeedItems(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get feed items: %w", err)
	}
	for i := range items {
		items[i].StockStatus = stockStatusFor(items[i].QuantityKg)
	}
	return items, totalCount, nil
}

func (s *feedService) UpdateFeedItem(id int64, req UpdateFeedItemRequest) (*models.FeedInventoryItem, error) {
	item, err := s.GetFeedItemByID(id)
	if err != nil {
		return nil, err
	}

	if req.FeedType != nil {
		item.FeedType = *req.FeedType
	}
	if req.CostPerBag != nil {
		if *req.CostPerBag < 0 {
			return nil, fmt.Errorf("%w: cost per bag cannot be negative", ErrValidation)
		}
		item.CostPerBag = *req.CostPerBag
	}
	if req.NumberOfBags != nil {
		if *req.NumberOfBags < 0 {
			return nil, fmt.Errorf("%w: number of bags cannot be negative", ErrValidation)
		}
		item.NumberOfBags = *req.NumberOfBags
	}
	if req.ExpiryDate != nil {
		parsed, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		item.ExpiryDate = &parsed
	}
	if req.Brand != nil {
		item.Brand = req.Brand
	}
	if req.Supplier != nil {
		item.Supplier = req.Supplier
	}

	if err := s.feedRepo.UpdateFeedItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to update feed item: %w", err)
	}
	return s.GetFeedItemByID(id)
}

func (s *feedService) AdjustFeedQuantity(id int64, req AdjustFeedQuantityRequest) (*models.FeedInventoryItem, error) {
	if req.DeltaKg == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must be nonzero", ErrValidation)
	}
	if _, err := s.feedRepo.AdjustQuantity(s.db, id, req.DeltaKg); err != nil {
		if errors.Is(err, repositories.ErrStockUnderflow) {
			return nil, fmt.Errorf("%w: adjustment of %.2f kg", ErrInsufficientStock, req.DeltaKg)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to adjust feed quantity: %w", err)
	}
	return s.GetFeedItemByID(id)
}

func (s *feedService) DeleteFeedItem(id int64) error {
	if _, err := s.GetFeedItemByID(id); err != nil {
		return err
	}
	if err := s.feedRepo.DeleteFeedItem(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrFeedItemNotFound
		}
		return fmt.Errorf("failed to delete feed item: %w", err)
	}
	return nil
}

// AssignFeedToBatch plans feed usage for a batch. The sum of assignments for
// a feed item may not exceed its current stock.
func (s *feedService) AssignFeedToBatch(feedID int64, req AssignFeedRequest) (*models.FeedBatchAssignment, error) {
	item, err := s.GetFeedItemByID(feedID)
	if err != nil {
		return nil, err
	}
	if _, err := s.liveRepo.GetLiveBatchByID(req.ChickenBatchID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get live batch: %w", err)
	}

	assigned, err := s.feedRepo.SumAssignedQuantity(feedID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum feed assignments: %w", err)
	}
	if assigned+req.AssignedQuantity > item.QuantityKg {
		return nil, fmt.Errorf("%w: %.2f kg already assigned of %.2f kg in stock",
			ErrOverAssigned, assigned, item.QuantityKg)
	}

	assignment := &models.FeedBatchAssignment{
		FeedID:             feedID,
		BatchID:            req.ChickenBatchID,
		AssignedQuantityKg: req.AssignedQuantity,
	}
	if _, err := s.feedRepo.CreateAssignment(s.db, assignment); err != nil {
		return nil, fmt.Errorf("failed to create feed assignment: %w", err)
	}
	return assignment, nil
}

func (s *feedService) GetAssignmentsByFeed(feedID int64) ([]models.FeedBatchAssignment, error) {
	if _, err := s.GetFeedItemByID(feedID); err != nil {
		return nil, err
	}
	assignments, err := s.feedRepo.GetAssignmentsByFeed(feedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed assignments: %w", err)
	}
	return assignments, nil
}

func (s *feedService) GetAssignmentsByBatch(batchID int64) ([]models.FeedBatchAssignment, error) {
	assignments, err := s.feedRepo.GetAssignmentsByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed assignments: %w", err)
	}
	return assignments, nil
}

// RecordConsumption deducts stock and writes the consumption event in one
// transaction, so stock and the consumption log never disagree.
func (s *feedService) RecordConsumption(req RecordConsumptionRequest) (*models.FeedConsumptionEvent, error) {
	if req.QuantityKg <= 0 {
		return nil, fmt.Errorf("%w: consumed quantity must be positive", ErrValidation)
	}
	if _, err := s.GetFeedItemByID(req.FeedID); err != nil {
		return nil, err
	}
	if _, err := s.liveRepo.GetLiveBatchByID(req.ChickenBatchID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get live batch: %w", err)
	}

	consumptionDate := time.Now()
	if req.ConsumptionDate != nil {
		parsed, err := parseDate(*req.ConsumptionDate)
		if err != nil {
			return nil, err
		}
		consumptionDate = parsed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	event := &models.FeedConsumptionEvent{
		FeedID:           req.FeedID,
		ChickenBatchID:   req.ChickenBatchID,
		QuantityConsumed: req.QuantityKg,
		ConsumptionDate:  consumptionDate,
		Notes:            req.Notes,
	}
	if err := s.recordConsumptionTx(tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit consumption transaction: %w", err)
	}
	return event, nil
}

func (s *feedService) recordConsumptionTx(executor repositories.SQLExecutor, event *models.FeedConsumptionEvent) error {
	if _, err := s.feedRepo.AdjustQuantity(executor, event.FeedID, -event.QuantityConsumed); err != nil {
		if errors.Is(err, repositories.ErrStockUnderflow) {
			return fmt.Errorf("%w: %.2f kg requested", ErrInsufficientStock, event.QuantityConsumed)
		}
		return fmt.Errorf("failed to deduct feed stock: %w", err)
	}
	if _, err := s.consumptionRepo.CreateConsumption(executor, event); err != nil {
		return fmt.Errorf("failed to record consumption event: %w", err)
	}
	return nil
}

func (s *feedService) GetConsumptions(filters models.FeedConsumptionFilters) ([]models.FeedConsumptionEvent, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	events, totalCount, err := s.consumptionRepo.GetConsumptions(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get consumption events: %w", err)
	}
	return events, totalCount, nil
}

// DeleteConsumption removes a consumption event and restores the deducted
// quantity to the feed item, in one transaction.
func (s *feedService) DeleteConsumption(id int64) error {
	event, err := s.consumptionRepo.GetConsumptionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrConsumptionNotFound
		}
		return fmt.Errorf("failed to get consumption event: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.deleteConsumptionTx(tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consumption deletion: %w", err)
	}
	return nil
}

func (s *feedService) deleteConsumptionTx(executor repositories.SQLExecutor, event *models.FeedConsumptionEvent) error {
	if err := s.consumptionRepo.DeleteConsumption(executor, event.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrConsumptionNotFound
		}
		return fmt.Errorf("failed to delete consumption event: %w", err)
	}
	if _, err := s.feedRepo.AdjustQuantity(executor, event.FeedID, event.QuantityConsumed); err != nil {
		// The feed item may have been deleted since; the event still goes.
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to restore feed stock: %w", err)
	}
	return nil
}
