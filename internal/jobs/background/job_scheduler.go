package background

import (
	"context"
	"log"
	"sync"
	"time"

	"compliflow/internal/analytics"
	"compliflow/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages recurring background jobs.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc *analytics.Service
	issueAlerts  *jobs.IssueAlertService
	jobHandles   map[string]gocron.Job
	mu           sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(analyticsSvc *analytics.Service, issueAlerts *jobs.IssueAlertService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		issueAlerts:  issueAlerts,
		jobHandles:   make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	js.mu.Lock()
	defer js.mu.Unlock()

	dashboardJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshDashboard),
		gocron.WithName("dashboard-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create dashboard refresh job: %v", err)
	} else {
		js.jobHandles["dashboard-refresh"] = dashboardJob
	}

	alertsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.checkOverdueIssues),
		gocron.WithName("overdue-issue-alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create overdue issue job: %v", err)
	} else {
		js.jobHandles["overdue-issue-alerts"] = alertsJob
	}

	log.Printf("Registered %d background jobs", len(js.jobHandles))
}

func (js *JobScheduler) refreshDashboard() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := js.analyticsSvc.Refresh(ctx); err != nil {
		log.Printf("Dashboard refresh failed: %v", err)
	}
}

func (js *JobScheduler) checkOverdueIssues() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := js.issueAlerts.ScheduledOverdueCheck(ctx); err != nil {
		log.Printf("Overdue issue check failed: %v", err)
	}
}
