package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
)

// FCR rating thresholds. Lower feed-conversion ratios are better.
const (
	fcrExcellentBelow = 1.5
	fcrGoodBelow      = 1.8
	fcrAverageBelow   = 2.2
)

// Forecasting parameters.
const (
	consumptionWindowDays = 30
	restockCoverDays      = 14
)

// Canonical feed stage boundaries, in weeks of age.
const (
	broilerStarterMaxWeeks = 4
	starterMaxWeeks        = 6
	growerMaxWeeks         = 18
)

// --- Data Transfer Objects (DTOs) ---

// FCRReport is the feed-conversion result for one live batch.
type FCRReport struct {
	BatchID         string  `json:"batch_id"`
	TotalFeedKg     float64 `json:"total_feed_kg"`
	TotalWeightKg   float64 `json:"total_weight_kg"`
	FCR             float64 `json:"fcr"`
	Rating          string  `json:"rating"`
	InitialCount    int     `json:"initial_count"`
	CurrentWeightKg float64 `json:"current_weight_kg"`
}

// FeedForecast estimates how long current stock of one feed type will last.
type FeedForecast struct {
	FeedType            string  `json:"feed_type"`
	CurrentStockKg      float64 `json:"current_stock_kg"`
	AvgDailyConsumption float64 `json:"avg_daily_consumption_kg"`
	DaysRemaining       *int    `json:"days_remaining,omitempty"` // nil when no consumption history
	Urgency             string  `json:"urgency"`
	SuggestedReorderKg  float64 `json:"suggested_reorder_kg"`
}

// BatchFeedSummary aggregates feed usage for one live batch.
type BatchFeedSummary struct {
	BatchID             string                       `json:"batch_id"`
	TotalConsumedKg     float64                      `json:"total_consumed_kg"`
	ConsumptionByType   map[string]float64           `json:"consumption_by_type"`
	FCR                 *FCRReport                   `json:"fcr"`
	RecommendedStage    string                       `json:"recommended_stage"`
	AgeWeeks            int                          `json:"age_weeks"`
	LastConsumptionDate *time.Time                   `json:"last_consumption_date,omitempty"`
	AssignedFeeds       []models.FeedBatchAssignment `json:"assigned_feeds,omitempty"`
}

// FarmOverview is the dashboard aggregate across the whole farm.
type FarmOverview struct {
	TotalLiveBirds      int                `json:"total_live_birds"`
	ActiveLiveBatches   int                `json:"active_live_batches"`
	TotalDressedBirds   int                `json:"total_dressed_birds"`
	DressedBatches      int                `json:"dressed_batches"`
	TotalFeedStockKg    float64            `json:"total_feed_stock_kg"`
	FeedStockByType     map[string]float64 `json:"feed_stock_by_type"`
	OpenAlerts          int                `json:"open_alerts"`
}

// --- AnalyticsService Interface ---
type AnalyticsService interface {
	CalculateFCR(batchID int64) (*FCRReport, error)
	GetFeedForecasts() ([]FeedForecast, error)
	GetBatchFeedSummary(batchID int64) (*BatchFeedSummary, error)
	GetFarmOverview() (*FarmOverview, error)
}

// --- analyticsService Implementation ---
type analyticsService struct {
	liveRepo        repositories.LiveBatchRepository
	dressedRepo     repositories.DressedBatchRepository
	feedRepo        repositories.FeedInventoryRepository
	consumptionRepo repositories.FeedConsumptionRepository
	alertRepo       repositories.FeedAlertRepository
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(
	lr repositories.LiveBatchRepository,
	dr repositories.DressedBatchRepository,
	fr repositories.FeedInventoryRepository,
	cr repositories.FeedConsumptionRepository,
	ar repositories.FeedAlertRepository,
) AnalyticsService {
	return &analyticsService{
		liveRepo:        lr,
		dressedRepo:     dr,
		feedRepo:        fr,
		consumptionRepo: cr,
		alertRepo:       ar,
	}
}

// rateFCR maps a feed-conversion ratio to a rating label.
func rateFCR(fcr float64) string {
	switch {
	case fcr < fcrExcellentBelow:
		return "Excellent"
	case fcr < fcrGoodBelow:
		return "Good"
	case fcr < fcrAverageBelow:
		return "Average"
	default:
		return "Poor"
	}
}

// computeFCR derives the feed-conversion ratio for a batch given its total
// consumed feed. Total live weight is the initial bird count times the
// current average bird weight. A batch with no recorded weight or no
// consumption yields a zero ratio, never NaN.
func computeFCR(batch *models.LiveChickenBatch, totalFeedKg float64) *FCRReport {
	totalWeight := float64(batch.InitialCount) * batch.CurrentWeightKg
	var fcr float64
	if totalWeight > 0 {
		fcr = totalFeedKg / totalWeight
	}
	return &FCRReport{
		BatchID:         batch.BatchID,
		TotalFeedKg:     totalFeedKg,
		TotalWeightKg:   totalWeight,
		FCR:             fcr,
		Rating:          rateFCR(fcr),
		InitialCount:    batch.InitialCount,
		CurrentWeightKg: batch.CurrentWeightKg,
	}
}

func (s *analyticsService) CalculateFCR(batchID int64) (*FCRReport, error) {
	batch, err := s.liveRepo.GetLiveBatchByID(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get live batch: %w", err)
	}
	totalFeed, err := s.consumptionRepo.GetTotalConsumedByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get total consumption: %w", err)
	}
	return computeFCR(batch, totalFeed), nil
}

// urgencyFor classifies a forecast. Out-of-stock types are always critical.
func urgencyFor(stockKg float64, daysRemaining *int) string {
	if stockKg <= 0 {
		return "critical"
	}
	if daysRemaining == nil {
		return "low"
	}
	switch {
	case *daysRemaining <= 3:
		return "critical"
	case *daysRemaining <= 7:
		return "high"
	case *daysRemaining <= 14:
		return "medium"
	default:
		return "low"
	}
}

// buildForecast combines current stock with trailing average daily
// consumption for one feed type.
func buildForecast(feedType string, stockKg, totalConsumedKg float64, windowDays int) FeedForecast {
	forecast := FeedForecast{
		FeedType:       feedType,
		CurrentStockKg: stockKg,
	}
	if totalConsumedKg > 0 {
		avg := totalConsumedKg / float64(windowDays)
		forecast.AvgDailyConsumption = avg
		days := int(math.Floor(stockKg / avg))
		forecast.DaysRemaining = &days
		forecast.SuggestedReorderKg = avg * restockCoverDays
	}
	forecast.Urgency = urgencyFor(stockKg, forecast.DaysRemaining)
	return forecast
}

func (s *analyticsService) GetFeedForecasts() ([]FeedForecast, error) {
	stockByType, err := s.feedRepo.GetStockByFeedType()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock by feed type: %w", err)
	}
	since := time.Now().AddDate(0, 0, -consumptionWindowDays)
	consumedByType, err := s.consumptionRepo.GetDailyTotalsByFeedType(since)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumption totals: %w", err)
	}

	// Feed types with consumption but no remaining stock still need a row.
	types := make(map[string]struct{})
	for feedType := range stockByType {
		types[feedType] = struct{}{}
	}
	for feedType := range consumedByType {
		types[feedType] = struct{}{}
	}

	forecasts := make([]FeedForecast, 0, len(types))
	for feedType := range types {
		forecasts = append(forecasts, buildForecast(feedType, stockByType[feedType], consumedByType[feedType], consumptionWindowDays))
	}
	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].FeedType < forecasts[j].FeedType
	})
	return forecasts, nil
}

// recommendedFeedStage returns the canonical feed stage for a breed at a
// given age. Broilers move straight from starter to finisher; other breeds
// go starter, grower, then layer.
func recommendedFeedStage(breed string, ageWeeks int) string {
	if breed == "Broiler" {
		if ageWeeks <= broilerStarterMaxWeeks {
			return "Starter"
		}
		return "Finisher"
	}
	switch {
	case ageWeeks <= starterMaxWeeks:
		return "Starter"
	case ageWeeks <= growerMaxWeeks:
		return "Grower"
	default:
		return "Layer"
	}
}

// ageInWeeks counts whole weeks since the hatch date.
func ageInWeeks(hatchDate time.Time, now time.Time) int {
	if now.Before(hatchDate) {
		return 0
	}
	return int(now.Sub(hatchDate).Hours() / (24 * 7))
}

func (s *analyticsService) GetBatchFeedSummary(batchID int64) (*BatchFeedSummary, error) {
	batch, err := s.liveRepo.GetLiveBatchByID(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get live batch: %w", err)
	}

	total, err := s.consumptionRepo.GetTotalConsumedByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get total consumption: %w", err)
	}
	breakdown, err := s.consumptionRepo.GetConsumptionBreakdownByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumption breakdown: %w", err)
	}
	assignments, err := s.feedRepo.GetAssignmentsByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed assignments: %w", err)
	}

	lastDates, err := s.consumptionRepo.GetLastConsumptionDates()
	if err != nil {
		return nil, fmt.Errorf("failed to get last consumption dates: %w", err)
	}

	weeks := ageInWeeks(batch.HatchDate, time.Now())
	summary := &BatchFeedSummary{
		BatchID:           batch.BatchID,
		TotalConsumedKg:   total,
		ConsumptionByType: breakdown,
		FCR:               computeFCR(batch, total),
		RecommendedStage:  recommendedFeedStage(batch.Breed, weeks),
		AgeWeeks:          weeks,
		AssignedFeeds:     assignments,
	}
	if last, ok := lastDates[batch.ID]; ok {
		summary.LastConsumptionDate = &last
	}
	return summary, nil
}

func (s *analyticsService) GetFarmOverview() (*FarmOverview, error) {
	liveBatches, _, err := s.liveRepo.GetLiveBatches(models.LiveBatchFilters{Page: 1, PageSize: 10000})
	if err != nil {
		return nil, fmt.Errorf("failed to get live batches: %w", err)
	}
	dressedBatches, _, err := s.dressedRepo.GetDressedBatches(models.DressedBatchFilters{Page: 1, PageSize: 10000})
	if err != nil {
		return nil, fmt.Errorf("failed to get dressed batches: %w", err)
	}
	stockByType, err := s.feedRepo.GetStockByFeedType()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock by feed type: %w", err)
	}
	openAlerts, err := s.alertRepo.CountOpenAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to count open alerts: %w", err)
	}

	overview := &FarmOverview{
		FeedStockByType: stockByType,
		OpenAlerts:      openAlerts,
	}
	for _, b := range liveBatches {
		if b.Status != models.BatchStatusCompleted {
			overview.ActiveLiveBatches++
			overview.TotalLiveBirds += b.CurrentCount
		}
	}
	for _, b := range dressedBatches {
		if b.Status == models.DressedStatusInStorage {
			overview.DressedBatches++
			overview.TotalDressedBirds += b.CurrentCount
		}
	}
	for _, kg := range stockByType {
		overview.TotalFeedStockKg += kg
	}
	return overview, nil
}
