package scheduler

import (
	"poultry_farm_backend/internal/services"
	"poultry_farm_backend/pkg/utils"

	"github.com/robfig/cron/v3"
)

// alertGenerationSpec is how often the alert scan runs.
const alertGenerationSpec = "@every 5m"

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	cron         *cron.Cron
	alertService services.AlertService
}

// New creates a scheduler with the alert generation job registered.
func New(alertService services.AlertService) (*Scheduler, error) {
	s := &Scheduler{
		cron:         cron.New(),
		alertService: alertService,
	}
	if _, err := s.cron.AddFunc(alertGenerationSpec, s.runAlertGeneration); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop and runs an initial alert scan so a fresh
// deployment has alerts before the first tick.
func (s *Scheduler) Start() {
	s.runAlertGeneration()
	s.cron.Start()
	utils.LogInfo("Scheduler started", map[string]interface{}{"alert_job": alertGenerationSpec})
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.LogInfo("Scheduler stopped")
}

func (s *Scheduler) runAlertGeneration() {
	created, err := s.alertService.GenerateFeedAlerts()
	if err != nil {
		utils.LogError(err, "Scheduled alert generation failed")
		return
	}
	if created > 0 {
		utils.LogInfo("Scheduled alert generation completed", map[string]interface{}{"created": created})
	} else {
		utils.LogDebug("Scheduled alert generation completed, nothing to report")
	}
}
