package handlers

import (
	"errors"
	"net/http"

	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler holds the analytics service.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(as services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

// GetBatchFCR handles calculating the feed-conversion ratio for a batch.
func (h *AnalyticsHandler) GetBatchFCR(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	report, err := h.analyticsService.CalculateFCR(id)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.RespondNotFound(c, "Live batch not found.", err.Error())
		} else {
			utils.LogError(err, "GetBatchFCR: Error from analyticsService.CalculateFCR")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to calculate FCR.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetFeedForecasts handles listing stock forecasts per feed type.
func (h *AnalyticsHandler) GetFeedForecasts(c *gin.Context) {
	forecasts, err := h.analyticsService.GetFeedForecasts()
	if err != nil {
		utils.LogError(err, "GetFeedForecasts: Error from analyticsService.GetFeedForecasts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build forecasts.", "Internal error"))
		return
	}
	if forecasts == nil {
		forecasts = []services.FeedForecast{}
	}
	c.JSON(http.StatusOK, forecasts)
}

// GetBatchFeedSummary handles the per-batch feed usage summary.
func (h *AnalyticsHandler) GetBatchFeedSummary(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	summary, err := h.analyticsService.GetBatchFeedSummary(id)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Live batch not found.", err.Error()))
		} else {
			utils.LogError(err, "GetBatchFeedSummary: Error from analyticsService.GetBatchFeedSummary")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build feed summary.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetFarmOverview handles the farm-wide dashboard aggregate.
func (h *AnalyticsHandler) GetFarmOverview(c *gin.Context) {
	overview, err := h.analyticsService.GetFarmOverview()
	if err != nil {
		utils.LogError(err, "GetFarmOverview: Error from analyticsService.GetFarmOverview")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build farm overview.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, overview)
}
