package handlers

import (
	"errors"
	"net/http"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AlertHandler holds the alert service.
type AlertHandler struct {
	alertService services.AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(as services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: as}
}

// GetAlerts handles fetching alerts with filters.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	var filters models.FeedAlertFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	alerts, totalCount, err := h.alertService.GetAlerts(filters)
	if err != nil {
		utils.LogError(err, "GetAlerts: Error from alertService.GetAlerts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch alerts.", "Internal error"))
		return
	}
	if alerts == nil {
		alerts = []models.FeedAlert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      alerts,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// AcknowledgeAlert handles marking an alert as acknowledged.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	alert, err := h.alertService.AcknowledgeAlert(id)
	if err != nil {
		if errors.Is(err, services.ErrAlertNotFound) {
			utils.RespondNotFound(c, "Alert not found.", err.Error())
		} else {
			utils.LogError(err, "AcknowledgeAlert: Error from alertService.AcknowledgeAlert")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to acknowledge alert.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, alert)
}

// GenerateAlerts handles an on-demand alert generation run.
func (h *AlertHandler) GenerateAlerts(c *gin.Context) {
	created, err := h.alertService.GenerateFeedAlerts()
	if err != nil {
		utils.LogError(err, "GenerateAlerts: Error from alertService.GenerateFeedAlerts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate alerts.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
