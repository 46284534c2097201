package handlers

import (
	"errors"
	"net/http"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FeedHandler holds the feed service.
type FeedHandler struct {
	feedService services.FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(fs services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: fs}
}

func respondFeedError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, services.ErrFeedItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Feed item not found.", err.Error()))
	case errors.Is(err, services.ErrConsumptionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Consumption event not found.", err.Error()))
	case errors.Is(err, services.ErrBatchNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Live batch not found.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient feed stock.", err.Error()))
	case errors.Is(err, services.ErrOverAssigned):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Assignment exceeds available feed quantity.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error()))
	default:
		utils.RespondInternalError(c, err, context)
	}
}

// CreateFeedItem handles registering a feed purchase.
func (h *FeedHandler) CreateFeedItem(c *gin.Context) {
	var req services.CreateFeedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.feedService.CreateFeedItem(req)
	if err != nil {
		respondFeedError(c, err, "CreateFeedItem: Error from feedService.CreateFeedItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetFeedItems handles fetching feed inventory with filters.
func (h *FeedHandler) GetFeedItems(c *gin.Context) {
	var filters models.FeedInventoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	items, totalCount, err := h.feedService.GetFeedItems(filters)
	if err != nil {
		respondFeedError(c, err, "GetFeedItems: Error from feedService.GetFeedItems")
		return
	}
	if items == nil {
		items = []models.FeedInventoryItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetFeedItemByID handles fetching a single feed item.
func (h *FeedHandler) GetFeedItemByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	item, err := h.feedService.GetFeedItemByID(id)
	if err != nil {
		respondFeedError(c, err, "GetFeedItemByID: Error from feedService.GetFeedItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateFeedItem handles updating a feed item's descriptive fields.
func (h *FeedHandler) UpdateFeedItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.UpdateFeedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.feedService.UpdateFeedItem(id, req)
	if err != nil {
		respondFeedError(c, err, "UpdateFeedItem: Error from feedService.UpdateFeedItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

// AdjustFeedQuantity handles a manual stock correction.
func (h *FeedHandler) AdjustFeedQuantity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.AdjustFeedQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.feedService.AdjustFeedQuantity(id, req)
	if err != nil {
		respondFeedError(c, err, "AdjustFeedQuantity: Error from feedService.AdjustFeedQuantity")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteFeedItem handles deleting a feed item.
func (h *FeedHandler) DeleteFeedItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.feedService.DeleteFeedItem(id); err != nil {
		respondFeedError(c, err, "DeleteFeedItem: Error from feedService.DeleteFeedItem")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed item deleted successfully"})
}

// AssignFeedToBatch handles earmarking feed for a live batch.
func (h *FeedHandler) AssignFeedToBatch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.AssignFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	assignment, err := h.feedService.AssignFeedToBatch(id, req)
	if err != nil {
		respondFeedError(c, err, "AssignFeedToBatch: Error from feedService.AssignFeedToBatch")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// GetFeedAssignments handles listing a feed item's batch assignments.
func (h *FeedHandler) GetFeedAssignments(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	assignments, err := h.feedService.GetAssignmentsByFeed(id)
	if err != nil {
		respondFeedError(c, err, "GetFeedAssignments: Error from feedService.GetAssignmentsByFeed")
		return
	}
	if assignments == nil {
		assignments = []models.FeedBatchAssignment{}
	}
	c.JSON(http.StatusOK, assignments)
}

// GetBatchAssignments handles listing feed assignments for a live batch.
func (h *FeedHandler) GetBatchAssignments(c *gin.Context) {
	batchID, err := utils.StrToInt64(c.Param("batchId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid batch ID format.", err.Error()))
		return
	}
	assignments, err := h.feedService.GetAssignmentsByBatch(batchID)
	if err != nil {
		respondFeedError(c, err, "GetBatchAssignments: Error from feedService.GetAssignmentsByBatch")
		return
	}
	if assignments == nil {
		assignments = []models.FeedBatchAssignment{}
	}
	c.JSON(http.StatusOK, assignments)
}

// RecordConsumption handles recording feed consumed by a batch.
func (h *FeedHandler) RecordConsumption(c *gin.Context) {
	var req services.RecordConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.feedService.RecordConsumption(req)
	if err != nil {
		respondFeedError(c, err, "RecordConsumption: Error from feedService.RecordConsumption")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetConsumptions handles fetching consumption events with filters.
func (h *FeedHandler) GetConsumptions(c *gin.Context) {
	var filters models.FeedConsumptionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	events, totalCount, err := h.feedService.GetConsumptions(filters)
	if err != nil {
		respondFeedError(c, err, "GetConsumptions: Error from feedService.GetConsumptions")
		return
	}
	if events == nil {
		events = []models.FeedConsumptionEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      events,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// DeleteConsumption handles deleting a consumption event and restoring stock.
func (h *FeedHandler) DeleteConsumption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.feedService.DeleteConsumption(id); err != nil {
		respondFeedError(c, err, "DeleteConsumption: Error from feedService.DeleteConsumption")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Consumption event deleted and stock restored"})
}
