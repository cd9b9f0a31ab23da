package maintenance

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/logger"
)

const defaultAutoCloseSpec = "@hourly"

// Cleaner runs background maintenance: it closes active surveys whose event
// day has passed so they stop accepting reservations.
type Cleaner struct {
	surveys  *services.SurveyService
	cron     *cron.Cron
	schedule string
	log      *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the auto-close job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

func NewCleaner(surveys *services.SurveyService, opts ...Option) (*Cleaner, error) {
	if surveys == nil {
		return nil, errors.New("maintenance: survey service is required")
	}

	cleaner := &Cleaner{
		surveys:  surveys,
		schedule: defaultAutoCloseSpec,
		log:      logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner, nil
}

// Start registers the auto-close job and launches the scheduler.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("survey auto-close failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the auto-close pass immediately. Used by the scheduler,
// at startup, and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	closed, err := c.surveys.CloseExpired(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		c.log.Info("closed past-date surveys", zap.Int64("count", closed))
	}
	return nil
}
