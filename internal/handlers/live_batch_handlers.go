package handlers

import (
	"errors"
	"net/http"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// LiveBatchHandler holds the batch service.
type LiveBatchHandler struct {
	batchService services.BatchService
}

// NewLiveBatchHandler creates a new LiveBatchHandler.
func NewLiveBatchHandler(bs services.BatchService) *LiveBatchHandler {
	return &LiveBatchHandler{batchService: bs}
}

// parseIDParam extracts a numeric :id path parameter.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

// respondBatchError maps batch service errors to API responses.
func respondBatchError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, services.ErrBatchNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Live batch not found.", err.Error()))
	case errors.Is(err, services.ErrDressedBatchNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Dressed batch not found.", err.Error()))
	case errors.Is(err, services.ErrSizeCategoryNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Size category not found.", err.Error()))
	case errors.Is(err, services.ErrBatchIDTaken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Batch ID already in use.", err.Error()))
	case errors.Is(err, services.ErrInsufficientBirds):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough birds in the batch.", err.Error()))
	case errors.Is(err, services.ErrBatchReferenced):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Batch is referenced by other batches.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error()))
	default:
		utils.RespondInternalError(c, err, context)
	}
}

// CreateLiveBatch handles registration of a new live batch.
func (h *LiveBatchHandler) CreateLiveBatch(c *gin.Context) {
	var req services.CreateLiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.batchService.CreateLiveBatch(req)
	if err != nil {
		respondBatchError(c, err, "CreateLiveBatch: Error from batchService.CreateLiveBatch")
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// GetLiveBatches handles fetching live batches with filters.
func (h *LiveBatchHandler) GetLiveBatches(c *gin.Context) {
	var filters models.LiveBatchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	batches, totalCount, err := h.batchService.GetLiveBatches(filters)
	if err != nil {
		respondBatchError(c, err, "GetLiveBatches: Error from batchService.GetLiveBatches")
		return
	}
	if batches == nil {
		batches = []models.LiveChickenBatch{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      batches,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetLiveBatchByID handles fetching a single live batch.
func (h *LiveBatchHandler) GetLiveBatchByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	batch, err := h.batchService.GetLiveBatchByID(id)
	if err != nil {
		respondBatchError(c, err, "GetLiveBatchByID: Error from batchService.GetLiveBatchByID")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// UpdateLiveBatch handles updating a live batch's descriptive fields.
func (h *LiveBatchHandler) UpdateLiveBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.UpdateLiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.batchService.UpdateLiveBatch(id, req)
	if err != nil {
		respondBatchError(c, err, "UpdateLiveBatch: Error from batchService.UpdateLiveBatch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// DeleteLiveBatch handles deleting an unreferenced live batch.
func (h *LiveBatchHandler) DeleteLiveBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.batchService.DeleteLiveBatch(id); err != nil {
		respondBatchError(c, err, "DeleteLiveBatch: Error from batchService.DeleteLiveBatch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Live batch deleted successfully"})
}

// RecordMortality handles recording bird deaths against a batch.
func (h *LiveBatchHandler) RecordMortality(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.RecordMortalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.batchService.RecordMortality(id, req)
	if err != nil {
		respondBatchError(c, err, "RecordMortality: Error from batchService.RecordMortality")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// GetMortalityEvents handles listing a batch's mortality history.
func (h *LiveBatchHandler) GetMortalityEvents(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	events, err := h.batchService.GetMortalityEvents(id)
	if err != nil {
		respondBatchError(c, err, "GetMortalityEvents: Error from batchService.GetMortalityEvents")
		return
	}
	if events == nil {
		events = []models.MortalityEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// ProcessBatch handles converting part of a live batch into a dressed batch.
func (h *LiveBatchHandler) ProcessBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.ProcessBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.batchService.ProcessBatch(id, req)
	if err != nil {
		respondBatchError(c, err, "ProcessBatch: Error from batchService.ProcessBatch")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetProvenance handles listing the provenance edges touching a batch.
func (h *LiveBatchHandler) GetProvenance(c *gin.Context) {
	batchID := c.Param("batchId")
	if utils.IsEmpty(batchID) {
		utils.RespondValidationFailed(c, "batch ID is required")
		return
	}
	relationships, err := h.batchService.GetProvenance(batchID)
	if err != nil {
		respondBatchError(c, err, "GetProvenance: Error from batchService.GetProvenance")
		return
	}
	if relationships == nil {
		relationships = []models.BatchRelationship{}
	}
	c.JSON(http.StatusOK, relationships)
}
