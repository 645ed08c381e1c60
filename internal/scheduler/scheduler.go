// Package scheduler provides cron-based scheduling for the market
// indicators refresh.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/finchoice/backend/internal/model"
)

// IndicatorSource fetches a fresh market conditions snapshot.
type IndicatorSource interface {
	Fetch(ctx context.Context) (model.MarketConditions, error)
}

// ConditionsSink receives the fetched snapshot.
type ConditionsSink interface {
	Set(mc model.MarketConditions)
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for when to refresh (e.g., "0 */6 * * *")
	Schedule string
	// Timeout is the maximum duration for one refresh cycle
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 */6 * * *",
		Timeout:  2 * time.Minute,
		Enabled:  true,
	}
}

// Scheduler periodically pulls market indicators and pushes them into the
// cached snapshot the matching layer reads.
type Scheduler struct {
	cron    *cron.Cron
	source  IndicatorSource
	sink    ConditionsSink
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, source IndicatorSource, sink ConditionsSink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runRefreshJob()
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate refresh (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runRefreshJob()
}

func (s *Scheduler) runRefreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Info("Starting market indicators refresh",
		slog.Time("start_time", startTime),
	)

	conditions, err := s.source.Fetch(ctx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Market indicators refresh failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	s.sink.Set(conditions)
	s.logger.Info("Market indicators refresh completed",
		slog.Float64("central_bank_rate", conditions.CentralBankRate),
		slog.Float64("inflation_rate", conditions.InflationRate),
		slog.Duration("duration", duration),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
