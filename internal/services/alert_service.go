package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"poultry_farm_backend/internal/models"
	"poultry_farm_backend/internal/repositories"
)

// --- Custom Service Errors ---
var ErrAlertNotFound = errors.New("alert not found")

// Alert generation parameters.
const (
	noConsumptionAfterDays = 2
	expiryWarningDays      = 14
	fcrDeviationThreshold  = 2.2
)

// --- AlertService Interface ---
type AlertService interface {
	GetAlerts(filters models.FeedAlertFilters) ([]models.FeedAlert, int, error)
	AcknowledgeAlert(id int64) (*models.FeedAlert, error)
	GenerateFeedAlerts() (int, error)
}

// --- alertService Implementation ---
type alertService struct {
	alertRepo       repositories.FeedAlertRepository
	feedRepo        repositories.FeedInventoryRepository
	consumptionRepo repositories.FeedConsumptionRepository
	liveRepo        repositories.LiveBatchRepository
	db              *sql.DB
}

// NewAlertService creates a new instance of AlertService.
func NewAlertService(
	ar repositories.FeedAlertRepository,
	fr repositories.FeedInventoryRepository,
	cr repositories.FeedConsumptionRepository,
	lr repositories.LiveBatchRepository,
	db *sql.DB,
) AlertService {
	return &alertService{
		alertRepo:       ar,
		feedRepo:        fr,
		consumptionRepo: cr,
		liveRepo:        lr,
		db:              db,
	}
}

func (s *alertService) GetAlerts(filters models.FeedAlertFilters) ([]models.FeedAlert, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	alerts, totalCount, err := s.alertRepo.GetAlerts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get alerts: %w", err)
	}
	return alerts, totalCount, nil
}

// AcknowledgeAlert marks an alert as acknowledged. Acknowledging an already
// acknowledged alert is a no-op that keeps the original timestamp.
func (s *alertService) AcknowledgeAlert(id int64) (*models.FeedAlert, error) {
	alert, err := s.alertRepo.AcknowledgeAlert(s.db, id, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return alert, nil
}

// createIfAbsent writes an alert unless an open one of the same type already
// targets the same feed item or batch.
func (s *alertService) createIfAbsent(alert *models.FeedAlert) (bool, error) {
	exists, err := s.alertRepo.OpenAlertExists(alert.AlertType, alert.FeedID, alert.ChickenBatchID)
	if err != nil {
		return false, fmt.Errorf("failed to check for open alert: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.alertRepo.CreateAlert(s.db, alert); err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	return true, nil
}

// GenerateFeedAlerts scans inventory, consumption history and batch FCRs and
// writes any missing advisories. It returns the number of alerts created and
// is safe to run repeatedly: open alerts are never duplicated.
func (s *alertService) GenerateFeedAlerts() (int, error) {
	created := 0

	n, err := s.generateStockAlerts()
	if err != nil {
		return created, err
	}
	created += n

	n, err = s.generateConsumptionAlerts()
	if err != nil {
		return created, err
	}
	created += n

	n, err = s.generateFCRAlerts()
	if err != nil {
		return created, err
	}
	return created + n, nil
}

func (s *alertService) generateStockAlerts() (int, error) {
	items, _, err := s.feedRepo.GetFeedItems(models.FeedInventoryFilters{Page: 1, PageSize: 10000})
	if err != nil {
		return 0, fmt.Errorf("failed to list feed items: %w", err)
	}

	created := 0
	now := time.Now()
	for i := range items {
		item := &items[i]

		var alert *models.FeedAlert
		switch {
		case item.QuantityKg <= 0:
			alert = &models.FeedAlert{
				AlertType: models.AlertLowStock,
				Severity:  models.SeverityCritical,
				FeedID:    &item.ID,
				Message:   fmt.Sprintf("%s is out of stock", item.FeedType),
			}
		case item.QuantityKg <= models.LowStockThresholdKg:
			alert = &models.FeedAlert{
				AlertType: models.AlertLowStock,
				Severity:  models.SeverityWarning,
				FeedID:    &item.ID,
				Message:   fmt.Sprintf("%s is low: %.1f kg remaining", item.FeedType, item.QuantityKg),
			}
		}
		if alert != nil {
			ok, err := s.createIfAbsent(alert)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}

		if item.ExpiryDate != nil && item.QuantityKg > 0 {
			daysToExpiry := int(item.ExpiryDate.Sub(now).Hours() / 24)
			if daysToExpiry <= expiryWarningDays {
				severity := models.SeverityWarning
				if daysToExpiry < 0 {
					severity = models.SeverityCritical
				}
				ok, err := s.createIfAbsent(&models.FeedAlert{
					AlertType: models.AlertExpiryWarning,
					Severity:  severity,
					FeedID:    &item.ID,
					Message:   fmt.Sprintf("%s expires on %s", item.FeedType, item.ExpiryDate.Format(dateLayout)),
				})
				if err != nil {
					return created, err
				}
				if ok {
					created++
				}
			}
		}
	}
	return created, nil
}

func (s *alertService) generateConsumptionAlerts() (int, error) {
	batches, _, err := s.liveRepo.GetLiveBatches(models.LiveBatchFilters{Page: 1, PageSize: 10000})
	if err != nil {
		return 0, fmt.Errorf("failed to list live batches: %w", err)
	}
	lastDates, err := s.consumptionRepo.GetLastConsumptionDates()
	if err != nil {
		return 0, fmt.Errorf("failed to get last consumption dates: %w", err)
	}

	created := 0
	cutoff := time.Now().AddDate(0, 0, -noConsumptionAfterDays)
	for i := range batches {
		batch := &batches[i]
		if batch.Status == models.BatchStatusCompleted || batch.CurrentCount == 0 {
			continue
		}
		last, recorded := lastDates[batch.ID]
		if recorded && !last.Before(cutoff) {
			continue
		}
		message := fmt.Sprintf("no feed consumption recorded for batch %s in the last %d days",
			batch.BatchID, noConsumptionAfterDays)
		if !recorded {
			message = fmt.Sprintf("no feed consumption ever recorded for batch %s", batch.BatchID)
		}
		ok, err := s.createIfAbsent(&models.FeedAlert{
			AlertType:      models.AlertNoConsumption,
			Severity:       models.SeverityWarning,
			ChickenBatchID: &batch.ID,
			Message:        message,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *alertService) generateFCRAlerts() (int, error) {
	batches, _, err := s.liveRepo.GetLiveBatches(models.LiveBatchFilters{Page: 1, PageSize: 10000})
	if err != nil {
		return 0, fmt.Errorf("failed to list live batches: %w", err)
	}

	created := 0
	for i := range batches {
		batch := &batches[i]
		if batch.Status == models.BatchStatusCompleted || batch.CurrentWeightKg <= 0 {
			continue
		}
		total, err := s.consumptionRepo.GetTotalConsumedByBatch(batch.ID)
		if err != nil {
			return created, fmt.Errorf("failed to get consumption for batch %s: %w", batch.BatchID, err)
		}
		if total <= 0 {
			continue
		}
		report := computeFCR(batch, total)
		if report.FCR < fcrDeviationThreshold {
			continue
		}
		ok, err := s.createIfAbsent(&models.FeedAlert{
			AlertType:      models.AlertFCRDeviation,
			Severity:       models.SeverityWarning,
			ChickenBatchID: &batch.ID,
			Message:        fmt.Sprintf("batch %s has a poor feed conversion ratio of %.2f", batch.BatchID, report.FCR),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
