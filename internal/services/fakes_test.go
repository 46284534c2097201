package services

import (
	"time"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
)

// In-memory repository fakes. The executor argument is ignored, so service
// inner methods can be exercised with a nil transaction.

type fakeLiveBatchRepo struct {
	batches   map[int64]*models.LiveChickenBatch
	mortality []models.MortalityEvent
	nextID    int64
}

func newFakeLiveBatchRepo() *fakeLiveBatchRepo {
	return &fakeLiveBatchRepo{batches: make(map[int64]*models.LiveChickenBatch), nextID: 1}
}

func (f *fakeLiveBatchRepo) CreateLiveBatch(_ repositories.SQLExecutor, batch *models.LiveChickenBatch) (int64, error) {
	for _, b := range f.batches {
		if b.BatchID == batch.BatchID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	batch.ID = f.nextID
	f.nextID++
	copied := *batch
	f.batches[batch.ID] = &copied
	return batch.ID, nil
}

func (f *fakeLiveBatchRepo) GetLiveBatchByID(id int64) (*models.LiveChickenBatch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeLiveBatchRepo) GetLiveBatchByBatchID(batchID string) (*models.LiveChickenBatch, error) {
	for _, b := range f.batches {
		if b.BatchID == batchID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeLiveBatchRepo) GetLiveBatches(_ models.LiveBatchFilters) ([]models.LiveChickenBatch, int, error) {
	out := make([]models.LiveChickenBatch, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeLiveBatchRepo) UpdateLiveBatch(_ repositories.SQLExecutor, batch *models.LiveChickenBatch) error {
	stored, ok := f.batches[batch.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	count := stored.CurrentCount
	copied := *batch
	copied.CurrentCount = count // counts move only through AdjustCurrentCount
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeLiveBatchRepo) AdjustCurrentCount(_ repositories.SQLExecutor, id int64, delta int) (int, error) {
	b, ok := f.batches[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if b.CurrentCount+delta < 0 {
		return 0, repositories.ErrStockUnderflow
	}
	b.CurrentCount += delta
	return b.CurrentCount, nil
}

func (f *fakeLiveBatchRepo) DeleteLiveBatch(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.batches[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeLiveBatchRepo) LiveBatchIDExists(batchID string) (bool, error) {
	for _, b := range f.batches {
		if b.BatchID == batchID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLiveBatchRepo) CreateMortalityEvent(_ repositories.SQLExecutor, event *models.MortalityEvent) (int64, error) {
	event.ID = int64(len(f.mortality) + 1)
	f.mortality = append(f.mortality, *event)
	return event.ID, nil
}

func (f *fakeLiveBatchRepo) GetMortalityEvents(batchID int64) ([]models.MortalityEvent, error) {
	var out []models.MortalityEvent
	for _, e := range f.mortality {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDressedBatchRepo struct {
	batches        map[int64]*models.DressedChickenBatch
	sizeCategories map[int64]models.SizeCategory
	nextID         int64
}

func newFakeDressedBatchRepo() *fakeDressedBatchRepo {
	return &fakeDressedBatchRepo{
		batches: make(map[int64]*models.DressedChickenBatch),
		sizeCategories: map[int64]models.SizeCategory{
			1: {ID: 1, Name: "Small"},
			2: {ID: 2, Name: "Medium"},
		},
		nextID: 1,
	}
}

func (f *fakeDressedBatchRepo) CreateDressedBatch(_ repositories.SQLExecutor, batch *models.DressedChickenBatch) (int64, error) {
	for _, b := range f.batches {
		if b.BatchID == batch.BatchID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	batch.ID = f.nextID
	f.nextID++
	copied := *batch
	f.batches[batch.ID] = &copied
	return batch.ID, nil
}

func (f *fakeDressedBatchRepo) GetDressedBatchByID(id int64) (*models.DressedChickenBatch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeDressedBatchRepo) GetDressedBatchByBatchID(batchID string) (*models.DressedChickenBatch, error) {
	for _, b := range f.batches {
		if b.BatchID == batchID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeDressedBatchRepo) GetDressedBatches(_ models.DressedBatchFilters) ([]models.DressedChickenBatch, int, error) {
	out := make([]models.DressedChickenBatch, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeDressedBatchRepo) UpdateDressedBatch(_ repositories.SQLExecutor, batch *models.DressedChickenBatch) error {
	if _, ok := f.batches[batch.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeDressedBatchRepo) DeleteDressedBatch(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.batches[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeDressedBatchRepo) DressedBatchIDExists(batchID string) (bool, error) {
	for _, b := range f.batches {
		if b.BatchID == batchID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDressedBatchRepo) GetSizeCategories() ([]models.SizeCategory, error) {
	out := make([]models.SizeCategory, 0, len(f.sizeCategories))
	for _, c := range f.sizeCategories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeDressedBatchRepo) SizeCategoryExists(id int64) (bool, error) {
	_, ok := f.sizeCategories[id]
	return ok, nil
}

type fakeRelationshipRepo struct {
	relationships []models.BatchRelationship
}

func (f *fakeRelationshipRepo) CreateRelationship(_ repositories.SQLExecutor, rel *models.BatchRelationship) (int64, error) {
	rel.ID = int64(len(f.relationships) + 1)
	f.relationships = append(f.relationships, *rel)
	return rel.ID, nil
}

func (f *fakeRelationshipRepo) GetRelationshipsForBatch(batchID string) ([]models.BatchRelationship, error) {
	var out []models.BatchRelationship
	for _, r := range f.relationships {
		if r.SourceBatchID == batchID || r.TargetBatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRelationshipRepo) CountRelationshipsForBatch(batchID string) (int, error) {
	rels, _ := f.GetRelationshipsForBatch(batchID)
	return len(rels), nil
}

type fakeFeedInventoryRepo struct {
	items       map[int64]*models.FeedInventoryItem
	assignments []models.FeedBatchAssignment
	nextID      int64
}

func newFakeFeedInventoryRepo() *fakeFeedInventoryRepo {
	return &fakeFeedInventoryRepo{items: make(map[int64]*models.FeedInventoryItem), nextID: 1}
}

func (f *fakeFeedInventoryRepo) CreateFeedItem(_ repositories.SQLExecutor, item *models.FeedInventoryItem) (int64, error) {
	item.ID = f.nextID
	f.nextID++
	copied := *item
	f.items[item.ID] = &copied
	return item.ID, nil
}

func (f *fakeFeedInventoryRepo) GetFeedItemByID(id int64) (*models.FeedInventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeFeedInventoryRepo) GetFeedItems(_ models.FeedInventoryFilters) ([]models.FeedInventoryItem, int, error) {
	out := make([]models.FeedInventoryItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (f *fakeFeedInventoryRepo) UpdateFeedItem(_ repositories.SQLExecutor, item *models.FeedInventoryItem) error {
	stored, ok := f.items[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	quantity := stored.QuantityKg
	copied := *item
	copied.QuantityKg = quantity
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeFeedInventoryRepo) AdjustQuantity(_ repositories.SQLExecutor, id int64, deltaKg float64) (float64, error) {
	item, ok := f.items[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if item.QuantityKg+deltaKg < 0 {
		return 0, repositories.ErrStockUnderflow
	}
	item.QuantityKg += deltaKg
	return item.QuantityKg, nil
}

func (f *fakeFeedInventoryRepo) DeleteFeedItem(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeFeedInventoryRepo) GetStockByFeedType() (map[string]float64, error) {
	out := make(map[string]float64)
	for _, item := range f.items {
		out[item.FeedType] += item.QuantityKg
	}
	return out, nil
}

func (f *fakeFeedInventoryRepo) CreateAssignment(_ repositories.SQLExecutor, assignment *models.FeedBatchAssignment) (int64, error) {
	assignment.ID = int64(len(f.assignments) + 1)
	f.assignments = append(f.assignments, *assignment)
	return assignment.ID, nil
}

func (f *fakeFeedInventoryRepo) GetAssignmentsByFeed(feedID int64) ([]models.FeedBatchAssignment, error) {
	var out []models.FeedBatchAssignment
	for _, a := range f.assignments {
		if a.FeedID == feedID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeFeedInventoryRepo) GetAssignmentsByBatch(batchID int64) ([]models.FeedBatchAssignment, error) {
	var out []models.FeedBatchAssignment
	for _, a := range f.assignments {
		if a.BatchID == batchID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeFeedInventoryRepo) SumAssignedQuantity(feedID int64) (float64, error) {
	var sum float64
	for _, a := range f.assignments {
		if a.FeedID == feedID {
			sum += a.AssignedQuantityKg
		}
	}
	return sum, nil
}

type fakeFeedConsumptionRepo struct {
	events map[int64]*models.FeedConsumptionEvent
	nextID int64
}

func newFakeFeedConsumptionRepo() *fakeFeedConsumptionRepo {
	return &fakeFeedConsumptionRepo{events: make(map[int64]*models.FeedConsumptionEvent), nextID: 1}
}

func (f *fakeFeedConsumptionRepo) CreateConsumption(_ repositories.SQLExecutor, event *models.FeedConsumptionEvent) (int64, error) {
	if event.ConsumptionDate.IsZero() {
		event.ConsumptionDate = time.Now()
	}
	event.ID = f.nextID
	f.nextID++
	copied := *event
	f.events[event.ID] = &copied
	return event.ID, nil
}

func (f *fakeFeedConsumptionRepo) GetConsumptionByID(id int64) (*models.FeedConsumptionEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeFeedConsumptionRepo) GetConsumptions(_ models.FeedConsumptionFilters) ([]models.FeedConsumptionEvent, int, error) {
	out := make([]models.FeedConsumptionEvent, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (f *fakeFeedConsumptionRepo) DeleteConsumption(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.events[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeFeedConsumptionRepo) GetTotalConsumedByBatch(batchID int64) (float64, error) {
	var total float64
	for _, e := range f.events {
		if e.ChickenBatchID == batchID {
			total += e.QuantityConsumed
		}
	}
	return total, nil
}

func (f *fakeFeedConsumptionRepo) GetConsumptionBreakdownByBatch(batchID int64) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, e := range f.events {
		if e.ChickenBatchID == batchID && e.FeedType != nil {
			out[*e.FeedType] += e.QuantityConsumed
		}
	}
	return out, nil
}

func (f *fakeFeedConsumptionRepo) GetDailyTotalsByFeedType(since time.Time) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, e := range f.events {
		if e.FeedType != nil && !e.ConsumptionDate.Before(since) {
			out[*e.FeedType] += e.QuantityConsumed
		}
	}
	return out, nil
}

func (f *fakeFeedConsumptionRepo) GetLastConsumptionDates() (map[int64]time.Time, error) {
	out := make(map[int64]time.Time)
	for _, e := range f.events {
		if e.ConsumptionDate.After(out[e.ChickenBatchID]) {
			out[e.ChickenBatchID] = e.ConsumptionDate
		}
	}
	return out, nil
}

type fakeFeedAlertRepo struct {
	alerts map[int64]*models.FeedAlert
	nextID int64
}

func newFakeFeedAlertRepo() *fakeFeedAlertRepo {
	return &fakeFeedAlertRepo{alerts: make(map[int64]*models.FeedAlert), nextID: 1}
}

func (f *fakeFeedAlertRepo) CreateAlert(_ repositories.SQLExecutor, alert *models.FeedAlert) (int64, error) {
	alert.ID = f.nextID
	f.nextID++
	alert.CreatedAt = time.Now()
	copied := *alert
	f.alerts[alert.ID] = &copied
	return alert.ID, nil
}

func (f *fakeFeedAlertRepo) GetAlertByID(id int64) (*models.FeedAlert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeFeedAlertRepo) GetAlerts(_ models.FeedAlertFilters) ([]models.FeedAlert, int, error) {
	out := make([]models.FeedAlert, 0, len(f.alerts))
	for _, a := range f.alerts {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeFeedAlertRepo) AcknowledgeAlert(_ repositories.SQLExecutor, id int64, at time.Time) (*models.FeedAlert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !a.Acknowledged {
		a.Acknowledged = true
		ackAt := at
		a.AcknowledgedAt = &ackAt
	}
	copied := *a
	return &copied, nil
}

func (f *fakeFeedAlertRepo) OpenAlertExists(alertType string, feedID *int64, chickenBatchID *int64) (bool, error) {
	for _, a := range f.alerts {
		if a.Acknowledged || a.AlertType != alertType {
			continue
		}
		if int64PtrEqual(a.FeedID, feedID) && int64PtrEqual(a.ChickenBatchID, chickenBatchID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFeedAlertRepo) CountOpenAlerts() (int, error) {
	count := 0
	for _, a := range f.alerts {
		if !a.Acknowledged {
			count++
		}
	}
	return count, nil
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
