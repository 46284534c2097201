package services

import (
	"testing"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlertService() (*alertService, *fakeFeedAlertRepo, *fakeFeedInventoryRepo, *fakeFeedConsumptionRepo, *fakeLiveBatchRepo) {
	alertRepo := newFakeFeedAlertRepo()
	feedRepo := newFakeFeedInventoryRepo()
	consumptionRepo := newFakeFeedConsumptionRepo()
	liveRepo := newFakeLiveBatchRepo()
	svc := &alertService{
		alertRepo:       alertRepo,
		feedRepo:        feedRepo,
		consumptionRepo: consumptionRepo,
		liveRepo:        liveRepo,
	}
	return svc, alertRepo, feedRepo, consumptionRepo, liveRepo
}

func alertsOfType(repo *fakeFeedAlertRepo, alertType string) []models.FeedAlert {
	var out []models.FeedAlert
	for _, a := range repo.alerts {
		if a.AlertType == alertType {
			out = append(out, *a)
		}
	}
	return out
}

func TestGenerateLowStockAlerts(t *testing.T) {
	svc, alertRepo, feedRepo, _, _ := newTestAlertService()

	_, err := feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 0})
	require.NoError(t, err)
	_, err = feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Grower", QuantityKg: 30})
	require.NoError(t, err)
	_, err = feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Layer", QuantityKg: 500})
	require.NoError(t, err)

	created, err := svc.GenerateFeedAlerts()
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	alerts := alertsOfType(alertRepo, models.AlertLowStock)
	require.Len(t, alerts, 2)

	severities := map[string]int{}
	for _, a := range alerts {
		severities[a.Severity]++
	}
	assert.Equal(t, 1, severities[models.SeverityCritical])
	assert.Equal(t, 1, severities[models.SeverityWarning])
}

func TestGenerateAlertsIdempotent(t *testing.T) {
	svc, alertRepo, feedRepo, _, _ := newTestAlertService()

	_, err := feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 10})
	require.NoError(t, err)

	created, err := svc.GenerateFeedAlerts()
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// A second run creates nothing while the first alert stays open.
	created, err = svc.GenerateFeedAlerts()
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, alertRepo.alerts, 1)
}

func TestGenerateAlertsAfterAcknowledge(t *testing.T) {
	svc, alertRepo, feedRepo, _, _ := newTestAlertService()

	_, err := feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 10})
	require.NoError(t, err)

	_, err = svc.GenerateFeedAlerts()
	require.NoError(t, err)

	var alertID int64
	for id := range alertRepo.alerts {
		alertID = id
	}
	_, err = svc.AcknowledgeAlert(alertID)
	require.NoError(t, err)

	// With the old alert acknowledged a new one is raised.
	created, err := svc.GenerateFeedAlerts()
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestGenerateExpiryWarningAlerts(t *testing.T) {
	svc, alertRepo, feedRepo, _, _ := newTestAlertService()

	soon := time.Now().AddDate(0, 0, 7)
	farOut := time.Now().AddDate(0, 2, 0)
	_, err := feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Starter", QuantityKg: 200, ExpiryDate: &soon})
	require.NoError(t, err)
	_, err = feedRepo.CreateFeedItem(nil, &models.FeedInventoryItem{FeedType: "Grower", QuantityKg: 200, ExpiryDate: &farOut})
	require.NoError(t, err)

	_, err = svc.GenerateFeedAlerts()
	require.NoError(t, err)

	alerts := alertsOfType(alertRepo, models.AlertExpiryWarning)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
}

func TestGenerateNoConsumptionAlerts(t *testing.T) {
	svc, alertRepo, _, consumptionRepo, liveRepo := newTestAlertService()

	stale := &models.LiveChickenBatch{BatchID: "LB-001", InitialCount: 100, CurrentCount: 100, Status: models.BatchStatusHealthy}
	fresh := &models.LiveChickenBatch{BatchID: "LB-002", InitialCount: 100, CurrentCount: 100, Status: models.BatchStatusHealthy}
	done := &models.LiveChickenBatch{BatchID: "LB-003", InitialCount: 100, CurrentCount: 0, Status: models.BatchStatusCompleted}
	for _, b := range []*models.LiveChickenBatch{stale, fresh, done} {
		_, err := liveRepo.CreateLiveBatch(nil, b)
		require.NoError(t, err)
	}

	_, err := consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID: 1, ChickenBatchID: stale.ID, QuantityConsumed: 10,
		ConsumptionDate: time.Now().AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	_, err = consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID: 1, ChickenBatchID: fresh.ID, QuantityConsumed: 10,
		ConsumptionDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.GenerateFeedAlerts()
	require.NoError(t, err)

	alerts := alertsOfType(alertRepo, models.AlertNoConsumption)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].ChickenBatchID)
	assert.Equal(t, stale.ID, *alerts[0].ChickenBatchID)
}

func TestGenerateFCRDeviationAlerts(t *testing.T) {
	svc, alertRepo, _, consumptionRepo, liveRepo := newTestAlertService()

	poor := &models.LiveChickenBatch{BatchID: "LB-001", InitialCount: 100, CurrentCount: 100, CurrentWeightKg: 1.0, Status: models.BatchStatusHealthy}
	good := &models.LiveChickenBatch{BatchID: "LB-002", InitialCount: 100, CurrentCount: 100, CurrentWeightKg: 2.0, Status: models.BatchStatusHealthy}
	for _, b := range []*models.LiveChickenBatch{poor, good} {
		_, err := liveRepo.CreateLiveBatch(nil, b)
		require.NoError(t, err)
	}

	// Poor batch: 250 kg feed over 100 kg weight (FCR 2.5).
	_, err := consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID: 1, ChickenBatchID: poor.ID, QuantityConsumed: 250, ConsumptionDate: time.Now(),
	})
	require.NoError(t, err)
	// Good batch: 300 kg feed over 200 kg weight (FCR 1.5).
	_, err = consumptionRepo.CreateConsumption(nil, &models.FeedConsumptionEvent{
		FeedID: 1, ChickenBatchID: good.ID, QuantityConsumed: 300, ConsumptionDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.GenerateFeedAlerts()
	require.NoError(t, err)

	alerts := alertsOfType(alertRepo, models.AlertFCRDeviation)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].ChickenBatchID)
	assert.Equal(t, poor.ID, *alerts[0].ChickenBatchID)
}

func TestAcknowledgeAlertIdempotent(t *testing.T) {
	svc, alertRepo, _, _, _ := newTestAlertService()

	id, err := alertRepo.CreateAlert(nil, &models.FeedAlert{
		AlertType: models.AlertLowStock,
		Severity:  models.SeverityWarning,
		Message:   "Starter is low",
	})
	require.NoError(t, err)

	first, err := svc.AcknowledgeAlert(id)
	require.NoError(t, err)
	require.NotNil(t, first.AcknowledgedAt)

	second, err := svc.AcknowledgeAlert(id)
	require.NoError(t, err)
	assert.Equal(t, first.AcknowledgedAt.Unix(), second.AcknowledgedAt.Unix())
}

func TestAcknowledgeAlertNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestAlertService()
	_, err := svc.AcknowledgeAlert(404)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}
