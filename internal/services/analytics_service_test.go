package services

import (
	"testing"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyticsService() (*analyticsService, *fakeLiveBatchRepo, *fakeDressedBatchRepo, *fakeFeedInventoryRepo, *fakeFeedConsumptionRepo, *fakeFeedAlertRepo) {
	liveRepo := newFakeLiveBatchRepo()
	dressedRepo := newFakeDressedBatchRepo()
	feedRepo := newFakeFeedInventoryRepo()
	consumptionRepo := newFakeFeedConsumptionRepo()
	alertRepo := newFakeFeedAlertRepo()
	svc := &analyticsService{
		liveRepo:        liveRepo,
		dressedRepo:     dressedRepo,
		feedRepo:        feedRepo,
		consumptionRepo: consumptionRepo,
		alertRepo:       alertRepo,
	}
	return svc, liveRepo, dressedRepo, feedRepo, consumptionRepo, alertRepo
}

func TestRateFCR(t *testing.T) {
	assert.Equal(t, "Excellent", rateFCR(1.2))
	assert.Equal(t, "Excellent", rateFCR(1.49))
	assert.Equal(t, "Good", rateFCR(1.5))
	assert.Equal(t, "Good", rateFCR(1.79))
	assert.Equal(t, "Average", rateFCR(1.8))
	assert.Equal(t, "Average", rateFCR(2.19))
	assert.Equal(t, "Poor", rateFCR(2.2))
	assert.Equal(t, "Poor", rateFCR(3.5))
}

func TestComputeFCR(t *testing.T) {
	batch := &models.LiveChickenBatch{
		BatchID:         "LB-001",
		InitialCount:    100,
		CurrentWeightKg: 2.0,
	}

	report := computeFCR(batch, 340)
	// 340 kg feed over 200 kg live weight.
	assert.InDelta(t, 1.7, report.FCR, 1e-9)
	assert.Equal(t, "Good", report.Rating)
	assert.InDelta(t, 200, report.TotalWeightKg, 1e-9)
}

func TestComputeFCRNoWeightYieldsZero(t *testing.T) {
	batch := &models.LiveChickenBatch{BatchID: "LB-001", InitialCount: 100}
	report := computeFCR(batch, 340)
	assert.Zero(t, report.FCR)
}

func TestComputeFCRNoConsumptionYieldsZero(t *testing.T) {
	batch := &models.LiveChickenBatch{BatchID: "LB-001", InitialCount: 100, CurrentWeightKg: 2.0}
	report := computeFCR(batch, 0)
	assert.Zero(t, report.FCR)
}

func TestUrgencyFor(t *testing.T) {
	days := func(d int) *int { return &d }

	assert.Equal(t, "critical", urgencyFor(0, nil))
	assert.Equal(t, "critical", urgencyFor(10, days(3)))
	assert.Equal(t, "high", urgencyFor(10, days(7)))
	assert.Equal(t, "medium", urgencyFor(10, days(14)))
	assert.Equal(t, "low", urgencyFor(10, days(15)))
	assert.Equal(t, "low", urgencyFor(10, nil))
}

func TestBuildForecast(t *testing.T) {
	// 90 kg consumed over a 30-day window: 3 kg/day average.
	f := buildForecast("Starter", 30, 90, 30)
	assert.InDelta(t, 3, f.AvgDailyConsumption, 1e-9)
	require.NotNil(t, f.DaysRemaining)
	assert.Equal(t, 10, *f.DaysRemaining)
	assert.Equal(t, "medium", f.Urgency)
	assert.InDelta(t, 42, f.SuggestedReorderKg, 1e-9)
}

func TestBuildForecastNoHistory(t *testing.T) {
	f := buildForecast("Starter", 30, 0, 30)
	assert.Nil(t, f.DaysRemaining)
	assert.Equal(t, "low", f.Urgency)
	assert.Zero(t, f.SuggestedReorderKg)
}

func TestBuildForecastOutOfStock(t *testing.T) {
	f := buildForecast("Starter", 0, 90, 30)
	assert.Equal(t, "critical", f.Urgency)
}

func TestRecommendedFeedStage(t *testing.T) {
	assert.Equal(t, "Starter", recommendedFeedStage("Broiler", 3))
	assert.Equal(t, "Starter", recommendedFeedStage("Broiler", 4))
	assert.Equal(t, "Finisher", recommendedFeedStage("Broiler", 5))

	assert.Equal(t, "Starter", recommendedFeedStage("Layer", 6))
	assert.Equal(t, "Grower", recommendedFeedStage("Layer", 7))
	assert.Equal(t, "Grower", recommendedFeedStage("Layer", 18))
	assert.Equal(t, "Layer", recommendedFeedStage("Layer", 19))
}

func TestAgeInWeeks(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, ageInWeeks(now.AddDate(0, 0, -30), now))
	assert.Equal(t, 0, ageInWeeks(now.AddDate(0, 0, -6), now))
	assert.Equal(t, 0, ageInWeeks(now.AddDate(0, 0, 5), now))
}

func TestGetFeedForecastsIncludesConsumedOutTypes(t *testing.T) {
	svc, _, _, feedRepo, consumptionRepo, _ := newTestAnalyticsService()

	_, err := feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 60})
	require.NoError(t, err)

	grower := "Grower"
	_, err = consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID:           99,
		ChickenBatchID:   1,
		QuantityConsumed: 30,
		ConsumptionDate:  time.Now().AddDate(0, 0, -1),
		FeedType:         &grower,
	})
	require.NoError(t, err)

	forecasts, err := svc.GetFeedForecasts()
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	// Sorted by feed type.
	assert.Equal(t, "Grower", forecasts[0].FeedType)
	assert.Zero(t, forecasts[0].CurrentStockKg)
	assert.Equal(t, "critical", forecasts[0].Urgency)
	assert.Equal(t, "Starter", forecasts[1].FeedType)
}

func TestGetFarmOverview(t *testing.T) {
	svc, liveRepo, dressedRepo, feedRepo, _, alertRepo := newTestAnalyticsService()

	_, err := liveRepo.CreateLiveBatch(nil, &models.LiveChickenBatch{
		BatchID: "LB-001", InitialCount: 100, CurrentCount: 80, Status: models.BatchStatusHealthy,
	})
	require.NoError(t, err)
	_, err = liveRepo.CreateLiveBatch(nil, &models.LiveChickenBatch{
		BatchID: "LB-002", InitialCount: 50, CurrentCount: 0, Status: models.BatchStatusCompleted,
	})
	require.NoError(t, err)

	_, err = dressedRepo.CreateDressedBatch(nil, &models.DressedChickenBatch{
		BatchID: "DB-001", ProcessingQuantity: 50, CurrentCount: 40, Status: models.DressedStatusInStorage,
	})
	require.NoError(t, err)
	_, err = dressedRepo.CreateDressedBatch(nil, &models.DressedChickenBatch{
		BatchID: "DB-002", ProcessingQuantity: 30, CurrentCount: 0, Status: models.DressedStatusSold,
	})
	require.NoError(t, err)

	_, err = feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 120})
	require.NoError(t, err)
	_, err = feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Grower", QuantityKg: 80})
	require.NoError(t, err)

	_, err = alertRepo.CreateAlert(nil, &models.FeedAlert{AlertType: models.AlertLowStock, Severity: models.SeverityWarning})
	require.NoError(t, err)

	overview, err := svc.GetFarmOverview()
	require.NoError(t, err)

	assert.Equal(t, 80, overview.TotalLiveBirds)
	assert.Equal(t, 1, overview.ActiveLiveBatches)
	assert.Equal(t, 40, overview.TotalDressedBirds)
	assert.Equal(t, 1, overview.DressedBatches)
	assert.InDelta(t, 200, overview.TotalFeedStockKg, 1e-9)
	assert.Equal(t, 1, overview.OpenAlerts)
}

func TestGetBatchFeedSummary(t *testing.T) {
	svc, liveRepo, _, feedRepo, consumptionRepo, _ := newTestAnalyticsService()

	batch := &models.LiveChickenBatch{
		BatchID:         "LB-001",
		Breed:           "Broiler",
		InitialCount:    100,
		CurrentCount:    100,
		CurrentWeightKg: 2.0,
		HatchDate:       time.Now().AddDate(0, 0, -21),
		Status:          models.BatchStatusHealthy,
	}
	_, err := liveRepo.CreateLiveBatch(nil, batch)
	require.NoError(t, err)

	starter := "Starter"
	fedOn := time.Now().AddDate(0, 0, -1)
	_, err = consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID: 1, ChickenBatchID: batch.ID, QuantityConsumed: 300, FeedType: &starter,
		ConsumptionDate: fedOn,
	})
	require.NoError(t, err)

	_, err = feedRepo.CreateAssignment(nil, &models.FeedBatchAssignment{
		FeedID: 1, BatchID: batch.ID, AssignedQuantityKg: 100,
	})
	require.NoError(t, err)

	summary, err := svc.GetBatchFeedSummary(batch.ID)
	require.NoError(t, err)

	assert.InDelta(t, 300, summary.TotalConsumedKg, 1e-9)
	assert.Equal(t, 3, summary.AgeWeeks)
	assert.Equal(t, "Starter", summary.RecommendedStage)
	require.NotNil(t, summary.FCR)
	assert.InDelta(t, 1.5, summary.FCR.FCR, 1e-9)
	assert.Len(t, summary.AssignedFeeds, 1)
	assert.InDelta(t, 300, summary.ConsumptionByType["Starter"], 1e-9)
	require.NotNil(t, summary.LastConsumptionDate)
	assert.True(t, summary.LastConsumptionDate.Equal(fedOn))
}
