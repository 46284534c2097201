package services

import (
	"database/sql"
	"errors"
	"fmt"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
	"poultry_farm_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrDressedBatchNotFound = errors.New("dressed batch not found")
	ErrImmutableField       = errors.New("field cannot be changed after processing")
)

// --- Data Transfer Objects (DTOs) ---

// UpdateDressedBatchRequest updates mutable fields of a dressed batch.
// Processing quantity, processing date and provenance fields are fixed at
// processing time: corrections go through delete-and-reprocess.
type UpdateDressedBatchRequest struct {
	CurrentCount       *int               `json:"current_count"`
	SizeCategoryID     *int64             `json:"size_category_id"`
	SizeCategoryCustom *string            `json:"size_category_custom"`
	Status             *string            `json:"status"`
	ExpiryDate         *string            `json:"expiry_date"` // YYYY-MM-DD
	PartsCount         map[string]float64 `json:"parts_count"`
	PartsWeight        map[string]float64 `json:"parts_weight"`
	ProcessingQuantity *int               `json:"processing_quantity"` // rejected, present to report a clear error
}

// --- DressedBatchService Interface ---
type DressedBatchService interface {
	GetDressedBatchByID(id int64) (*models.DressedChickenBatch, error)
	GetDressedBatches(filters models.DressedBatchFilters) ([]models.DressedChickenBatch, int, error)
	UpdateDressedBatch(id int64, req UpdateDressedBatchRequest) (*models.DressedChickenBatch, error)
	DeleteDressedBatch(id int64) error
	GetSizeCategories() ([]models.SizeCategory, error)
	GetProvenance(id int64) ([]models.BatchRelationship, error)
}

// --- dressedBatchService Implementation ---
type dressedBatchService struct {
	dressedRepo repositories.DressedBatchRepository
	relRepo     repositories.BatchRelationshipRepository
	db          *sql.DB
}

// NewDressedBatchService creates a new instance of DressedBatchService.
func NewDressedBatchService(
	dr repositories.DressedBatchRepository,
	rr repositories.BatchRelationshipRepository,
	db *sql.DB,
) DressedBatchService {
	return &dressedBatchService{
		dressedRepo: dr,
		relRepo:     rr,
		db:          db,
	}
}

func (s *dressedBatchService) GetDressedBatchByID(id int64) (*models.DressedChickenBatch, error) {
	batch, err := s.dressedRepo.GetDressedBatchByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDressedBatchNotFound
		}
		return nil, fmt.Errorf("failed to get dressed batch: %w", err)
	}
	return batch, nil
}

func (s *dressedBatchService) GetDressedBatches(filters models.DressedBatchFilters) ([]models.DressedChickenBatch, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	batches, totalCount, err := s.dressedRepo.GetDressedBatches(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get dressed batches: %w", err)
	}
	return batches, totalCount, nil
}

// applyDressedUpdate merges a request into an existing batch and recomputes
// the average weight whenever the parts weights change. It never touches
// processing_quantity.
func applyDressedUpdate(batch *models.DressedChickenBatch, req UpdateDressedBatchRequest) error {
	if req.ProcessingQuantity != nil && *req.ProcessingQuantity != batch.ProcessingQuantity {
		return fmt.Errorf("%w: processing_quantity", ErrImmutableField)
	}

	if req.CurrentCount != nil {
		if *req.CurrentCount < 0 {
			return fmt.Errorf("%w: current count cannot be negative", ErrValidation)
		}
		if *req.CurrentCount > batch.ProcessingQuantity {
			return fmt.Errorf("%w: current count %d exceeds processed quantity %d",
				ErrValidation, *req.CurrentCount, batch.ProcessingQuantity)
		}
		batch.CurrentCount = *req.CurrentCount
	}
	if req.Status != nil {
		if !models.IsValidDressedStatus(*req.Status) {
			return fmt.Errorf("%w: unknown dressed batch status %q", ErrValidation, *req.Status)
		}
		batch.Status = *req.Status
	}
	if req.ExpiryDate != nil {
		parsed, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return err
		}
		batch.ExpiryDate = parsed
	}

	if req.SizeCategoryID != nil && req.SizeCategoryCustom != nil {
		return fmt.Errorf("%w: size category id and custom name are mutually exclusive", ErrValidation)
	}
	if req.SizeCategoryID != nil {
		batch.SizeCategoryID = req.SizeCategoryID
		batch.SizeCategoryCustom = nil
	}
	if req.SizeCategoryCustom != nil {
		// An empty custom label clears the category entirely.
		batch.SizeCategoryCustom = utils.NewNullString(*req.SizeCategoryCustom)
		batch.SizeCategoryID = nil
	}

	if req.PartsCount != nil {
		for name, count := range req.PartsCount {
			if !models.IsValidPartName(name) {
				return fmt.Errorf("%w: unknown part %q", ErrValidation, name)
			}
			if count < 0 {
				return fmt.Errorf("%w: part %s count cannot be negative", ErrValidation, name)
			}
			batch.PartsCount[name] = count
		}
	}
	if req.PartsWeight != nil {
		for name, weight := range req.PartsWeight {
			if !models.IsValidPartName(name) {
				return fmt.Errorf("%w: unknown part %q", ErrValidation, name)
			}
			if weight < 0 {
				return fmt.Errorf("%w: part %s weight cannot be negative", ErrValidation, name)
			}
			batch.PartsWeight[name] = weight
		}
		batch.AverageWeightKg = batch.TotalPartsWeight() / float64(batch.ProcessingQuantity)
	}
	return nil
}

func (s *dressedBatchService) UpdateDressedBatch(id int64, req UpdateDressedBatchRequest) (*models.DressedChickenBatch, error) {
	batch, err := s.GetDressedBatchByID(id)
	if err != nil {
		return nil, err
	}

	if err := applyDressedUpdate(batch, req); err != nil {
		return nil, err
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

	if err := s.dressedRepo.UpdateDressedBatch(s.db, batch); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDressedBatchNotFound
		}
		return nil, fmt.Errorf("failed to update dressed batch: %w", err)
	}
	return s.dressedRepo.GetDressedBatchByID(id)
}

// DeleteDressedBatch refuses to delete a batch that appears in the
// provenance ledger as a source of other batches.
func (s *dressedBatchService) DeleteDressedBatch(id int64) error {
	batch, err := s.GetDressedBatchByID(id)
	if err != nil {
		return err
	}

	relationships, err := s.relRepo.GetRelationshipsForBatch(batch.BatchID)
	if err != nil {
		return fmt.Errorf("failed to check batch references: %w", err)
	}
	for _, rel := range relationships {
		if rel.SourceBatchID == batch.BatchID {
			return fmt.Errorf("%w: %s is the source of %s", ErrBatchReferenced, batch.BatchID, rel.TargetBatchID)
		}
	}

	if err := s.dressedRepo.DeleteDressedBatch(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDressedBatchNotFound
		}
		return fmt.Errorf("failed to delete dressed batch: %w", err)
	}
	return nil
}

func (s *dressedBatchService) GetSizeCategories() ([]models.SizeCategory, error) {
	categories, err := s.dressedRepo.GetSizeCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to get size categories: %w", err)
	}
	return categories, nil
}

func (s *dressedBatchService) GetProvenance(id int64) ([]models.BatchRelationship, error) {
	batch, err := s.GetDressedBatchByID(id)
	if err != nil {
		return nil, err
	}
	relationships, err := s.relRepo.GetRelationshipsForBatch(batch.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provenance for batch %s: %w", batch.BatchID, err)
	}
	return relationships, nil
}
