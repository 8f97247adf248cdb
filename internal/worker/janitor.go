// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Purger deletes login-attempt records last touched before a cutoff.
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Janitor periodically purges stale login-attempt rows.
type Janitor struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time

	sched gocron.Scheduler
}

// NewJanitor constructs a janitor that every interval removes rows older than retention.
func NewJanitor(p Purger, interval, retention time.Duration, log *zap.Logger) *Janitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{
		purger:    p,
		interval:  interval,
		retention: retention,
		timeout:   30 * time.Second,
		log:       log,
		now:       time.Now,
	}
}

// Start schedules the purge job; the first run happens immediately.
func (j *Janitor) Start() error {
	if j.interval <= 0 {
		return errors.New("janitor: interval must be positive")
	}
	if j.sched != nil {
		return errors.New("janitor: already started")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.runOnce),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}
	s.Start()
	j.sched = s
	j.log.Info("janitor started", zap.Duration("interval", j.interval), zap.Duration("retention", j.retention))
	return nil
}

// Stop waits for a running purge and shuts the scheduler down.
func (j *Janitor) Stop() error {
	if j.sched == nil {
		return nil
	}
	err := j.sched.Shutdown()
	j.sched = nil
	return err
}

func (j *Janitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.purger.Purge(ctx, j.now().Add(-j.retention))
	if err != nil {
		j.log.Warn("janitor: purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Info("janitor: purged login attempts", zap.Int64("rows", n))
	}
}
