// Package jobs runs the scheduled background work of the service.
package jobs

import (
	"github.com/arkhipov/post-service/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatsReporter periodically logs a usage summary of the store.
type StatsReporter struct {
	repo *repository.Repository
	log  *logrus.Logger
	cron *cron.Cron
}

// NewStatsReporter creates a reporter that is not yet scheduled
func NewStatsReporter(repo *repository.Repository, log *logrus.Logger) *StatsReporter {
	return &StatsReporter{
		repo: repo,
		log:  log,
		cron: cron.New(),
	}
}

// Start schedules the daily summary at midnight and launches the scheduler
func (r *StatsReporter) Start() error {
	if _, err := r.cron.AddFunc("0 0 * * *", r.Report); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler
func (r *StatsReporter) Stop() {
	r.cron.Stop()
}

// Report logs the current user and post counts
func (r *StatsReporter) Report() {
	users, err := r.repo.CountUsers()
	if err != nil {
		r.log.Errorf("Failed to count users: %v", err)
		return
	}
	posts, err := r.repo.CountPosts()
	if err != nil {
		r.log.Errorf("Failed to count posts: %v", err)
		return
	}
	r.log.Infof("Usage summary: %d users, %d posts", users, posts)
}
