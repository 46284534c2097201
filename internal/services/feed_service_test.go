package services

import (
	"testing"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeedService() (*feedService, *fakeFeedInventoryRepo, *fakeFeedConsumptionRepo, *fakeLiveBatchRepo) {
	feedRepo := newFakeFeedInventoryRepo()
	consumptionRepo := newFakeFeedConsumptionRepo()
	liveRepo := newFakeLiveBatchRepo()
	svc := &feedService{feedRepo: feedRepo, consumptionRepo: consumptionRepo, liveRepo: liveRepo}
	return svc, feedRepo, consumptionRepo, liveRepo
}

func seedFeedItem(t *testing.T, svc *feedService, feedType string, quantityKg float64) *models.FeedInventoryItem {
	t.Helper()
	item, err := svc.CreateFeedItem(CreateFeedItemRequest{
		FeedType:   feedType,
		QuantityKg: quantityKg,
	})
	require.NoError(t, err)
	return item
}

func TestStockStatusFor(t *testing.T) {
	assert.Equal(t, models.StockStatusOut, stockStatusFor(0))
	assert.Equal(t, models.StockStatusLow, stockStatusFor(0.5))
	assert.Equal(t, models.StockStatusLow, stockStatusFor(50))
	assert.Equal(t, models.StockStatusNormal, stockStatusFor(50.1))
}

func TestCreateFeedItemDerivesStatus(t *testing.T) {
	svc, _, _, _ := newTestFeedService()

	item := seedFeedItem(t, svc, "Starter", 200)
	assert.Equal(t, models.StockStatusNormal, item.StockStatus)

	low := seedFeedItem(t, svc, "Grower", 30)
	assert.Equal(t, models.StockStatusLow, low.StockStatus)
}

func TestAdjustFeedQuantityUnderflow(t *testing.T) {
	svc, _, _, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	_, err := svc.AdjustFeedQuantity(item.ID, AdjustFeedQuantityRequest{DeltaKg: -150})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	updated, err := svc.AdjustFeedQuantity(item.ID, AdjustFeedQuantityRequest{DeltaKg: -60})
	require.NoError(t, err)
	assert.InDelta(t, 40, updated.QuantityKg, 1e-9)
	assert.Equal(t, models.StockStatusLow, updated.StockStatus)
}

func TestAssignFeedToBatchOverAssignment(t *testing.T) {
	svc, _, _, liveRepo := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	batch := &models.LiveChickenBatch{BatchID: "LB-001", InitialCount: 50, CurrentCount: 50}
	_, err := liveRepo.CreateLiveBatch(nil, batch)
	require.NoError(t, err)

	_, err = svc.AssignFeedToBatch(item.ID, AssignFeedRequest{ChickenBatchID: batch.ID, AssignedQuantity: 70})
	require.NoError(t, err)

	// A second assignment pushing the total past stock is rejected.
	_, err = svc.AssignFeedToBatch(item.ID, AssignFeedRequest{ChickenBatchID: batch.ID, AssignedQuantity: 40})
	assert.ErrorIs(t, err, ErrOverAssigned)

	// Up to the remaining stock is still fine.
	_, err = svc.AssignFeedToBatch(item.ID, AssignFeedRequest{ChickenBatchID: batch.ID, AssignedQuantity: 30})
	assert.NoError(t, err)
}

func TestAssignFeedToBatchUnknownBatch(t *testing.T) {
	svc, _, _, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	_, err := svc.AssignFeedToBatch(item.ID, AssignFeedRequest{ChickenBatchID: 42, AssignedQuantity: 10})
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestRecordConsumptionTxDeductsStock(t *testing.T) {
	svc, feedRepo, consumptionRepo, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	event := &models.FeedConsumptionEvent{
		FeedID:           item.ID,
		ChickenBatchID:   1,
		QuantityConsumed: 25,
		ConsumptionDate:  time.Now(),
	}
	err := svc.recordConsumptionTx(nil, event)
	require.NoError(t, err)

	stored, err := feedRepo.GetFeedItemByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 75, stored.QuantityKg, 1e-9)
	assert.Len(t, consumptionRepo.events, 1)
}

func TestRecordConsumptionTxInsufficientStock(t *testing.T) {
	svc, feedRepo, consumptionRepo, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 10)

	event := &models.FeedConsumptionEvent{
		FeedID:           item.ID,
		ChickenBatchID:   1,
		QuantityConsumed: 25,
	}
	err := svc.recordConsumptionTx(nil, event)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was written.
	stored, _ := feedRepo.GetFeedItemByID(item.ID)
	assert.InDelta(t, 10, stored.QuantityKg, 1e-9)
	assert.Empty(t, consumptionRepo.events)
}

func TestDeleteConsumptionTxRestoresStock(t *testing.T) {
	svc, feedRepo, consumptionRepo, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	event := &models.FeedConsumptionEvent{
		FeedID:           item.ID,
		ChickenBatchID:   1,
		QuantityConsumed: 25,
	}
	require.NoError(t, svc.recordConsumptionTx(nil, event))

	require.NoError(t, svc.deleteConsumptionTx(nil, event))

	stored, err := feedRepo.GetFeedItemByID(item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, stored.QuantityKg, 1e-9)
	assert.Empty(t, consumptionRepo.events)
}

func TestDeleteConsumptionTxFeedItemGone(t *testing.T) {
	svc, feedRepo, _, _ := newTestFeedService()
	item := seedFeedItem(t, svc, "Starter", 100)

	event := &models.FeedConsumptionEvent{
		FeedID:           item.ID,
		ChickenBatchID:   1,
		QuantityConsumed: 25,
	}
	require.NoError(t, svc.recordConsumptionTx(nil, event))
	require.NoError(t, feedRepo.DeleteFeedItem(nil, item.ID))

	// The event still deletes cleanly when the item no longer exists.
	assert.NoError(t, svc.deleteConsumptionTx(nil, event))
}
