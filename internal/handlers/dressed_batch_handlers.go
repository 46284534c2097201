package handlers

import (
	"errors"
	"net/http"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DressedBatchHandler holds the dressed batch service.
type DressedBatchHandler struct {
	dressedService services.DressedBatchService
}

// NewDressedBatchHandler creates a new DressedBatchHandler.
func NewDressedBatchHandler(ds services.DressedBatchService) *DressedBatchHandler {
	return &DressedBatchHandler{dressedService: ds}
}

func respondDressedError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, services.ErrDressedBatchNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Dressed batch not found.", err.Error()))
	case errors.Is(err, services.ErrSizeCategoryNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Size category not found.", err.Error()))
	case errors.Is(err, services.ErrBatchReferenced):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Batch is referenced by other batches.", err.Error()))
	case errors.Is(err, services.ErrImmutableField):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Field cannot be changed after processing.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error()))
	default:
		utils.RespondInternalError(c, err, context)
	}
}

// GetDressedBatches handles fetching dressed batches with filters.
func (h *DressedBatchHandler) GetDressedBatches(c *gin.Context) {
	var filters models.DressedBatchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	batches, totalCount, err := h.dressedService.GetDressedBatches(filters)
	if err != nil {
		respondDressedError(c, err, "GetDressedBatches: Error from dressedService.GetDressedBatches")
		return
	}
	if batches == nil {
		batches = []models.DressedChickenBatch{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      batches,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetDressedBatchByID handles fetching a single dressed batch.
func (h *DressedBatchHandler) GetDressedBatchByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	batch, err := h.dressedService.GetDressedBatchByID(id)
	if err != nil {
		respondDressedError(c, err, "GetDressedBatchByID: Error from dressedService.GetDressedBatchByID")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// UpdateDressedBatch handles updating a dressed batch's mutable fields.
func (h *DressedBatchHandler) UpdateDressedBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.UpdateDressedBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.dressedService.UpdateDressedBatch(id, req)
	if err != nil {
		respondDressedError(c, err, "UpdateDressedBatch: Error from dressedService.UpdateDressedBatch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// DeleteDressedBatch handles deleting a dressed batch.
func (h *DressedBatchHandler) DeleteDressedBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.dressedService.DeleteDressedBatch(id); err != nil {
		respondDressedError(c, err, "DeleteDressedBatch: Error from dressedService.DeleteDressedBatch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dressed batch deleted successfully"})
}

// GetSizeCategories handles listing the predefined size categories.
func (h *DressedBatchHandler) GetSizeCategories(c *gin.Context) {
	categories, err := h.dressedService.GetSizeCategories()
	if err != nil {
		respondDressedError(c, err, "GetSizeCategories: Error from dressedService.GetSizeCategories")
		return
	}
	if categories == nil {
		categories = []models.SizeCategory{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetProvenance handles listing the provenance edges touching a dressed batch.
func (h *DressedBatchHandler) GetProvenance(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	relationships, err := h.dressedService.GetProvenance(id)
	if err != nil {
		respondDressedError(c, err, "GetProvenance: Error from dressedService.GetProvenance")
		return
	}
	if relationships == nil {
		relationships = []models.BatchRelationship{}
	}
	c.JSON(http.StatusOK, relationships)
}
