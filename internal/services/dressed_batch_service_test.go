package services

import (
	"testing"
	"time"

	"poultry_farm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDressedService() (*dressedBatchService, *fakeDressedBatchRepo, *fakeRelationshipRepo) {
	dressedRepo := newFakeDressedBatchRepo()
	relRepo := &fakeRelationshipRepo{}
	svc := &dressedBatchService{dressedRepo: dressedRepo, relRepo: relRepo}
	return svc, dressedRepo, relRepo
}

func seedDressedBatch(t *testing.T, repo *fakeDressedBatchRepo, batchID string, quantity int) *models.DressedChickenBatch {
	t.Helper()
	batch := &models.DressedChickenBatch{
		BatchID:            batchID,
		ProcessingDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ProcessingQuantity: quantity,
		CurrentCount:       quantity,
		AverageWeightKg:    1.5,
		Status:             models.DressedStatusInStorage,
		ExpiryDate:         time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		PartsCount:         models.PartsBreakdown{models.PartNeck: float64(quantity)},
		PartsWeight:        models.PartsBreakdown{models.PartNeck: float64(quantity) * 1.5},
	}
	_, err := repo.CreateDressedBatch(nil, batch)
	require.NoError(t, err)
	return batch
}

func TestApplyDressedUpdateImmutableQuantity(t *testing.T) {
	batch := &models.DressedChickenBatch{ProcessingQuantity: 50}

	other := 40
	err := applyDressedUpdate(batch, UpdateDressedBatchRequest{ProcessingQuantity: &other})
	assert.ErrorIs(t, err, ErrImmutableField)

	// Sending the unchanged value back is tolerated.
	same := 50
	err = applyDressedUpdate(batch, UpdateDressedBatchRequest{ProcessingQuantity: &same})
	assert.NoError(t, err)
}

func TestApplyDressedUpdateRecomputesAverageWeight(t *testing.T) {
	batch := &models.DressedChickenBatch{
		ProcessingQuantity: 10,
		PartsCount:         models.PartsBreakdown{},
		PartsWeight:        models.PartsBreakdown{models.PartNeck: 5},
	}

	err := applyDressedUpdate(batch, UpdateDressedBatchRequest{
		PartsWeight: map[string]float64{models.PartGizzard: 15},
	})
	require.NoError(t, err)
	// 5 kg neck + 15 kg gizzard over 10 birds.
	assert.InDelta(t, 2.0, batch.AverageWeightKg, 1e-9)
}

func TestApplyDressedUpdateCountAboveQuantity(t *testing.T) {
	batch := &models.DressedChickenBatch{ProcessingQuantity: 50, CurrentCount: 50}

	count := 51
	err := applyDressedUpdate(batch, UpdateDressedBatchRequest{CurrentCount: &count})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyDressedUpdateSizeCategorySwap(t *testing.T) {
	custom := "Jumbo"
	batch := &models.DressedChickenBatch{ProcessingQuantity: 10, SizeCategoryCustom: &custom}

	id := int64(2)
	err := applyDressedUpdate(batch, UpdateDressedBatchRequest{SizeCategoryID: &id})
	require.NoError(t, err)
	assert.Nil(t, batch.SizeCategoryCustom)
	require.NotNil(t, batch.SizeCategoryID)
	assert.Equal(t, int64(2), *batch.SizeCategoryID)

	empty := ""
	err = applyDressedUpdate(batch, UpdateDressedBatchRequest{SizeCategoryCustom: &empty})
	require.NoError(t, err)
	assert.Nil(t, batch.SizeCategoryID)
	assert.Nil(t, batch.SizeCategoryCustom)
}

func TestUpdateDressedBatchInvalidStatus(t *testing.T) {
	svc, repo, _ := newTestDressedService()
	batch := seedDressedBatch(t, repo, "DB-001", 50)

	bad := "expired"
	_, err := svc.UpdateDressedBatch(batch.ID, UpdateDressedBatchRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDressedBatchUnknownSizeCategory(t *testing.T) {
	svc, repo, _ := newTestDressedService()
	batch := seedDressedBatch(t, repo, "DB-001", 50)

	id := int64(99)
	_, err := svc.UpdateDressedBatch(batch.ID, UpdateDressedBatchRequest{SizeCategoryID: &id})
	assert.ErrorIs(t, err, ErrSizeCategoryNotFound)
}

func TestDeleteDressedBatchBlockedAsSource(t *testing.T) {
	svc, repo, relRepo := newTestDressedService()
	batch := seedDressedBatch(t, repo, "DB-001", 50)

	relRepo.relationships = []models.BatchRelationship{
		{SourceBatchID: "DB-001", TargetBatchID: "DB-002"},
	}

	err := svc.DeleteDressedBatch(batch.ID)
	assert.ErrorIs(t, err, ErrBatchReferenced)
}

func TestDeleteDressedBatchAllowedAsTarget(t *testing.T) {
	svc, repo, relRepo := newTestDressedService()
	batch := seedDressedBatch(t, repo, "DB-001", 50)

	// Being the target of a processing edge does not block deletion.
	relRepo.relationships = []models.BatchRelationship{
		{SourceBatchID: "LB-001", TargetBatchID: "DB-001"},
	}

	err := svc.DeleteDressedBatch(batch.ID)
	assert.NoError(t, err)
}

func TestDeleteDressedBatchNotFound(t *testing.T) {
	svc, _, _ := newTestDressedService()
	err := svc.DeleteDressedBatch(123)
	assert.ErrorIs(t, err, ErrDressedBatchNotFound)
}
