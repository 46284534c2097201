package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
	"poultry_farm_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Custom Service Errors ---
var (
	ErrValidation           = errors.New("validation error")
	ErrBatchNotFound        = errors.New("live batch not found")
	ErrBatchIDTaken         = errors.New("batch id already in use")
	ErrInsufficientBirds    = errors.New("insufficient birds in batch")
	ErrBatchReferenced      = errors.New("batch is referenced by other batches and cannot be deleted")
	ErrSizeCategoryNotFound = errors.New("size category not found")
)

const dateLayout = "2006-01-02"

// Feet come two per bird; every other part is at most one per bird.
const feetPerBird = 2

// --- Data Transfer Objects (DTOs) ---

// CreateLiveBatchRequest is used for registering a new live batch.
type CreateLiveBatchRequest struct {
	BatchID         string  `json:"batch_id" binding:"required"`
	Breed           string  `json:"breed" binding:"required"`
	InitialCount    int     `json:"initial_count" binding:"required,gt=0"`
	HatchDate       string  `json:"hatch_date" binding:"required"` // YYYY-MM-DD
	Status          string  `json:"status"`
	CurrentWeightKg float64 `json:"current_weight_kg"`
	FeedType        *string `json:"feed_type"`
	Notes           *string `json:"notes"`
}

// UpdateLiveBatchRequest updates descriptive fields of a live batch.
// Bird counts are deliberately absent: counts move only through processing,
// splits, and mortality events.
type UpdateLiveBatchRequest struct {
	Breed           *string  `json:"breed"`
	Status          *string  `json:"status"`
	CurrentWeightKg *float64 `json:"current_weight_kg"`
	FeedType        *string  `json:"feed_type"`
	Notes           *string  `json:"notes"`
}

// RecordMortalityRequest records bird deaths against a batch.
type RecordMortalityRequest struct {
	Count     int     `json:"count" binding:"required,gt=0"`
	EventDate *string `json:"event_date"` // YYYY-MM-DD, defaults to today
	Cause     *string `json:"cause"`
}

// ProcessBatchRequest converts part of a live batch into a dressed batch.
type ProcessBatchRequest struct {
	ProcessingQuantity   int                `json:"processing_quantity" binding:"required,gt=0"`
	ProcessingDate       *string            `json:"processing_date"` // YYYY-MM-DD, defaults to today
	DressedBatchID       string             `json:"dressed_batch_id"`
	SizeCategoryID       *int64             `json:"size_category_id"`
	SizeCategoryCustom   *string            `json:"size_category_custom"`
	PartsCount           map[string]float64 `json:"parts_count"`
	PartsWeight          map[string]float64 `json:"parts_weight"`
	CreateRemainderBatch bool               `json:"create_remainder_batch"`
	RemainderBatchID     string             `json:"remainder_batch_id"`
	ExpiryDate           *string            `json:"expiry_date"` // YYYY-MM-DD, defaults to processing date + 3 months
}

// ProcessBatchResult is the outcome of a processing operation.
type ProcessBatchResult struct {
	DressedBatch   *models.DressedChickenBatch `json:"dressed_batch"`
	RemainderBatch *models.LiveChickenBatch    `json:"remainder_batch,omitempty"`
	Warnings       []string                    `json:"warnings,omitempty"`
	Reference      string                      `json:"reference"`
}

// --- BatchService Interface ---
type BatchService interface {
	CreateLiveBatch(req CreateLiveBatchRequest) (*models.LiveChickenBatch, error)
	GetLiveBatchByID(id int64) (*models.LiveChickenBatch, error)
	GetLiveBatches(filters models.LiveBatchFilters) ([]models.LiveChickenBatch, int, error)
	UpdateLiveBatch(id int64, req UpdateLiveBatchRequest) (*models.LiveChickenBatch, error)
	DeleteLiveBatch(id int64) error
	RecordMortality(id int64, req RecordMortalityRequest) (*models.LiveChickenBatch, error)
	GetMortalityEvents(id int64) ([]models.MortalityEvent, error)
	ProcessBatch(sourceID int64, req ProcessBatchRequest) (*ProcessBatchResult, error)
	GetProvenance(batchID string) ([]models.BatchRelationship, error)
}

// --- batchService Implementation ---
type batchService struct {
	liveRepo    repositories.LiveBatchRepository
	dressedRepo repositories.DressedBatchRepository
	relRepo     repositories.BatchRelationshipRepository
	db          *sql.DB
}

// NewBatchService creates a new instance of BatchService.
func NewBatchService(
	lr repositories.LiveBatchRepository,
	dr repositories.DressedBatchRepository,
	rr repositories.BatchRelationshipRepository,
	db *sql.DB,
) BatchService {
	return &batchService{
		liveRepo:    lr,
		dressedRepo: dr,
		relRepo:     rr,
		db:          db,
	}
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, value)
	}
	return parsed, nil
}

func (s *batchService) CreateLiveBatch(req CreateLiveBatchRequest) (*models.LiveChickenBatch, error) {
	hatchDate, err := parseDate(req.HatchDate)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.BatchStatusHealthy
	}
	if !models.IsValidBatchStatus(status) {
		return nil, fmt.Errorf("%w: unknown batch status %q", ErrValidation, status)
	}
	if req.CurrentWeightKg < 0 {
		return nil, fmt.Errorf("%w: current weight cannot be negative", ErrValidation)
	}

	batch := &models.LiveChickenBatch{
		BatchID:         req.BatchID,
		Breed:           req.Breed,
		InitialCount:    req.InitialCount,
		CurrentCount:    req.InitialCount,
		HatchDate:       hatchDate,
		Status:          status,
		CurrentWeightKg: req.CurrentWeightKg,
		FeedType:        req.FeedType,
		Notes:           req.Notes,
	}

	if _, err := s.liveRepo.CreateLiveBatch(s.db, batch); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrBatchIDTaken, req.BatchID)
		}
		return nil, fmt.Errorf("failed to create live batch: %w", err)
	}
	return batch, nil
}

func (s *batchService) GetLiveBatchByID(id int64) (*models.LiveChickenBatch, error) {
	batch, err := s.liveRepo.GetLiveBatchByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get live batch: %w", err)
	}
	return batch, nil
}

func (s *batchService) GetLiveBatches(filters models.LiveBatchFilters) ([]models.LiveChickenBatch, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	batches, totalCount, err := s.liveRepo.GetLiveBatches(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get live batches: %w", err)
	}
	return batches, totalCount, nil
}

func (s *batchService) UpdateLiveBatch(id int64, req UpdateLiveBatchRequest) (*models.LiveChickenBatch, error) {
	batch, err := s.GetLiveBatchByID(id)
	if err != nil {
		return nil, err
	}

	if req.Breed != nil {
		batch.Breed = *req.Breed
	}
	if req.Status != nil {
		if !models.IsValidBatchStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown batch status %q", ErrValidation, *req.Status)
		}
		batch.Status = *req.Status
	}
	if req.CurrentWeightKg != nil {
		if *req.CurrentWeightKg < 0 {
			return nil, fmt.Errorf("%w: current weight cannot be negative", ErrValidation)
		}
		batch.CurrentWeightKg = *req.CurrentWeightKg
	}
	if req.FeedType != nil {
		batch.FeedType = req.FeedType
	}
	if req.Notes != nil {
		batch.Notes = req.Notes
	}

	if err := s.liveRepo.UpdateLiveBatch(s.db, batch); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to update live batch: %w", err)
	}
	return s.liveRepo.GetLiveBatchByID(id)
}

// DeleteLiveBatch hard-deletes a batch only while nothing references it in the
// provenance ledger. Referenced batches keep their soft lifecycle via status.
func (s *batchService) DeleteLiveBatch(id int64) error {
	batch, err := s.GetLiveBatchByID(id)
	if err != nil {
		return err
	}
	refCount, err := s.relRepo.CountRelationshipsForBatch(batch.BatchID)
	if err != nil {
		return fmt.Errorf("failed to check batch references: %w", err)
	}
	if refCount > 0 {
		return fmt.Errorf("%w: %s has %d relationship(s)", ErrBatchReferenced, batch.BatchID, refCount)
	}
	if err := s.liveRepo.DeleteLiveBatch(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBatchNotFound
		}
		return fmt.Errorf("failed to delete live batch: %w", err)
	}
	return nil
}

func (s *batchService) RecordMortality(id int64, req RecordMortalityRequest) (*models.LiveChickenBatch, error) {
	batch, err := s.GetLiveBatchByID(id)
	if err != nil {
		return nil, err
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: mortality count must be positive", ErrValidation)
	}
	if req.Count > batch.CurrentCount {
		return nil, fmt.Errorf("%w: batch %s has %d birds, cannot record %d deaths",
			ErrInsufficientBirds, batch.BatchID, batch.CurrentCount, req.Count)
	}

	eventDate := time.Now()
	if req.EventDate != nil {
		eventDate, err = parseDate(*req.EventDate)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.recordMortalityTx(tx, batch, req.Count, eventDate, req.Cause); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mortality transaction: %w", err)
	}
	return s.liveRepo.GetLiveBatchByID(id)
}

func (s *batchService) recordMortalityTx(executor repositories.SQLExecutor, batch *models.LiveChickenBatch, count int, eventDate time.Time, cause *string) error {
	if _, err := s.liveRepo.AdjustCurrentCount(executor, batch.ID, -count); err != nil {
		if errors.Is(err, repositories.ErrStockUnderflow) {
			return fmt.Errorf("%w: batch %s", ErrInsufficientBirds, batch.BatchID)
		}
		return fmt.Errorf("failed to decrement batch count: %w", err)
	}
	event := &models.MortalityEvent{
		BatchID:   batch.ID,
		Count:     count,
		EventDate: eventDate,
		Cause:     cause,
	}
	if _, err := s.liveRepo.CreateMortalityEvent(executor, event); err != nil {
		return fmt.Errorf("failed to record mortality event: %w", err)
	}
	return nil
}

func (s *batchService) GetMortalityEvents(id int64) ([]models.MortalityEvent, error) {
	if _, err := s.GetLiveBatchByID(id); err != nil {
		return nil, err
	}
	events, err := s.liveRepo.GetMortalityEvents(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get mortality events: %w", err)
	}
	return events, nil
}

// validateProcessing checks every precondition of a processing operation
// without touching storage. It returns non-fatal warnings alongside any
// validation failure.
func validateProcessing(source *models.LiveChickenBatch, req ProcessBatchRequest) ([]string, error) {
	if req.ProcessingQuantity <= 0 {
		return nil, fmt.Errorf("%w: processing quantity must be positive", ErrValidation)
	}
	if req.ProcessingQuantity > source.CurrentCount {
		return nil, fmt.Errorf("%w: batch %s has %d birds, cannot process %d",
			ErrInsufficientBirds, source.BatchID, source.CurrentCount, req.ProcessingQuantity)
	}
	if source.Status == models.BatchStatusCompleted {
		return nil, fmt.Errorf("%w: batch %s is already completed", ErrValidation, source.BatchID)
	}

	if req.SizeCategoryID != nil && req.SizeCategoryCustom != nil {
		return nil, fmt.Errorf("%w: size category id and custom name are mutually exclusive", ErrValidation)
	}
	if req.SizeCategoryID == nil && req.SizeCategoryCustom == nil {
		return nil, fmt.Errorf("%w: a size category id or custom name is required", ErrValidation)
	}

	for name := range req.PartsCount {
		if !models.IsValidPartName(name) {
			return nil, fmt.Errorf("%w: unknown part %q", ErrValidation, name)
		}
	}
	for name := range req.PartsWeight {
		if !models.IsValidPartName(name) {
			return nil, fmt.Errorf("%w: unknown part %q", ErrValidation, name)
		}
	}

	hasNonzeroCount := false
	for name, count := range req.PartsCount {
		if count < 0 {
			return nil, fmt.Errorf("%w: part %s count cannot be negative", ErrValidation, name)
		}
		if count > 0 {
			hasNonzeroCount = true
		}
	}
	if !hasNonzeroCount {
		return nil, fmt.Errorf("%w: at least one part count must be nonzero", ErrValidation)
	}
	for name, weight := range req.PartsWeight {
		if weight < 0 {
			return nil, fmt.Errorf("%w: part %s weight cannot be negative", ErrValidation, name)
		}
	}

	quantity := float64(req.ProcessingQuantity)
	var warnings []string
	for _, name := range []string{models.PartNeck, models.PartGizzard, models.PartDogFood} {
		if req.PartsCount[name] > quantity {
			return nil, fmt.Errorf("%w: %s count %.0f exceeds processing quantity %d",
				ErrValidation, name, req.PartsCount[name], req.ProcessingQuantity)
		}
	}
	if req.PartsCount[models.PartFeet] > quantity*feetPerBird {
		warnings = append(warnings, fmt.Sprintf(
			"feet count %.0f exceeds %d per bird for %d birds; recorded as given",
			req.PartsCount[models.PartFeet], feetPerBird, req.ProcessingQuantity))
	}

	if req.CreateRemainderBatch && req.RemainderBatchID == "" {
		return nil, fmt.Errorf("%w: remainder batch id is required when a remainder batch is requested", ErrValidation)
	}

	return warnings, nil
}

// batchIDInUse checks both live and dressed batch id namespaces.
func (s *batchService) batchIDInUse(batchID string) (bool, error) {
	if exists, err := s.liveRepo.LiveBatchIDExists(batchID); err != nil || exists {
		return exists, err
	}
	return s.dressedRepo.DressedBatchIDExists(batchID)
}

// ProcessBatch converts part of a live batch into a dressed batch.
// All writes happen in a single transaction: the dressed batch, the source
// count decrement, the optional remainder batch, and the provenance edges
// either all land or none do.
func (s *batchService) ProcessBatch(sourceID int64, req ProcessBatchRequest) (*ProcessBatchResult, error) {
	source, err := s.GetLiveBatchByID(sourceID)
	if err != nil {
		return nil, err
	}

	warnings, err := validateProcessing(source, req)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		utils.LogWarn(w, map[string]interface{}{"batch_id": source.BatchID})
	}

	if req.SizeCategoryID != nil {
		exists, err := s.dressedRepo.SizeCategoryExists(*req.SizeCategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to check size category: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: id %d", ErrSizeCategoryNotFound, *req.SizeCategoryID)
		}
	}

	if req.DressedBatchID != "" {
		inUse, err := s.batchIDInUse(req.DressedBatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to check dressed batch id: %w", err)
		}
		if inUse {
			return nil, fmt.Errorf("%w: %s", ErrBatchIDTaken, req.DressedBatchID)
		}
	}
	if req.CreateRemainderBatch {
		inUse, err := s.batchIDInUse(req.RemainderBatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to check remainder batch id: %w", err)
		}
		if inUse {
			return nil, fmt.Errorf("%w: %s", ErrBatchIDTaken, req.RemainderBatchID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.processBatchTx(tx, source, req, warnings)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit processing transaction: %w", err)
	}
	return result, nil
}

func (s *batchService) processBatchTx(executor repositories.SQLExecutor, source *models.LiveChickenBatch, req ProcessBatchRequest, warnings []string) (*ProcessBatchResult, error) {
	processingDate := time.Now()
	if req.ProcessingDate != nil {
		parsed, err := parseDate(*req.ProcessingDate)
		if err != nil {
			return nil, err
		}
		processingDate = parsed
	}

	expiryDate := processingDate.AddDate(0, 3, 0)
	if req.ExpiryDate != nil {
		parsed, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		expiryDate = parsed
	}

	reference := uuid.NewString()

	dressedBatchID := req.DressedBatchID
	if dressedBatchID == "" {
		dressedBatchID = fmt.Sprintf("%s-D%s", source.BatchID, reference[:6])
	}

	partsCount := models.PartsBreakdown{}
	for name, count := range req.PartsCount {
		partsCount[name] = count
	}
	partsWeight := models.PartsBreakdown{}
	var totalPartsWeight float64
	for name, weight := range req.PartsWeight {
		partsWeight[name] = weight
		totalPartsWeight += weight
	}
	averageWeight := totalPartsWeight / float64(req.ProcessingQuantity)

	remainingBirds := source.CurrentCount - req.ProcessingQuantity

	dressed := &models.DressedChickenBatch{
		BatchID:            dressedBatchID,
		ProcessingDate:     processingDate,
		ProcessingQuantity: req.ProcessingQuantity,
		CurrentCount:       req.ProcessingQuantity,
		AverageWeightKg:    averageWeight,
		SizeCategoryID:     req.SizeCategoryID,
		SizeCategoryCustom: req.SizeCategoryCustom,
		Status:             models.DressedStatusInStorage,
		ExpiryDate:         expiryDate,
		RemainingBirds:     remainingBirds,
		PartsCount:         partsCount,
		PartsWeight:        partsWeight,
	}
	if _, err := s.dressedRepo.CreateDressedBatch(executor, dressed); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrBatchIDTaken, dressedBatchID)
		}
		return nil, fmt.Errorf("failed to create dressed batch: %w", err)
	}

	newCount, err := s.liveRepo.AdjustCurrentCount(executor, source.ID, -req.ProcessingQuantity)
	if err != nil {
		if errors.Is(err, repositories.ErrStockUnderflow) {
			return nil, fmt.Errorf("%w: batch %s", ErrInsufficientBirds, source.BatchID)
		}
		return nil, fmt.Errorf("failed to decrement source batch: %w", err)
	}

	var remainder *models.LiveChickenBatch
	if req.CreateRemainderBatch && remainingBirds > 0 {
		remainder = &models.LiveChickenBatch{
			BatchID:         req.RemainderBatchID,
			Breed:           source.Breed,
			InitialCount:    remainingBirds,
			CurrentCount:    remainingBirds,
			HatchDate:       source.HatchDate,
			Status:          source.Status,
			CurrentWeightKg: source.CurrentWeightKg,
			FeedType:        source.FeedType,
			Notes:           source.Notes,
		}
		if _, err := s.liveRepo.CreateLiveBatch(executor, remainder); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return nil, fmt.Errorf("%w: %s", ErrBatchIDTaken, req.RemainderBatchID)
			}
			return nil, fmt.Errorf("failed to create remainder batch: %w", err)
		}

		splitRel := &models.BatchRelationship{
			SourceBatchID:    source.BatchID,
			SourceBatchType:  models.BatchTypeLive,
			TargetBatchID:    remainder.BatchID,
			TargetBatchType:  models.BatchTypeLive,
			RelationshipType: models.RelationshipSplitFrom,
			Quantity:         remainingBirds,
			Reference:        reference,
		}
		if _, err := s.relRepo.CreateRelationship(executor, splitRel); err != nil {
			return nil, fmt.Errorf("failed to record split relationship: %w", err)
		}
	}

	if newCount == 0 && source.Status != models.BatchStatusCompleted {
		source.Status = models.BatchStatusCompleted
		if err := s.liveRepo.UpdateLiveBatch(executor, source); err != nil {
			return nil, fmt.Errorf("failed to complete source batch: %w", err)
		}
	}
	source.CurrentCount = newCount

	processedRel := &models.BatchRelationship{
		SourceBatchID:    source.BatchID,
		SourceBatchType:  models.BatchTypeLive,
		TargetBatchID:    dressed.BatchID,
		TargetBatchType:  models.BatchTypeDressed,
		RelationshipType: models.RelationshipPartialProcessedFrom,
		Quantity:         req.ProcessingQuantity,
		Reference:        reference,
	}
	if _, err := s.relRepo.CreateRelationship(executor, processedRel); err != nil {
		return nil, fmt.Errorf("failed to record processing relationship: %w", err)
	}

	return &ProcessBatchResult{
		DressedBatch:   dressed,
		RemainderBatch: remainder,
		Warnings:       warnings,
		Reference:      reference,
	}, nil
}

func (s *batchService) GetProvenance(batchID string) ([]models.BatchRelationship, error) {
	relationships, err := s.relRepo.GetRelationshipsForBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provenance for batch %s: %w", batchID, err)
	}
	return relationships, nil
}
