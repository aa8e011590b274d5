package rate

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/adapters"
)

// Scheduler triggers the daily incremental update.
type Scheduler struct {
	updater  *Updater
	notifier adapters.Notifier
	cron     string
	// -----
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		res, runErr := s.updater.Run(jobCtx, nil)
		if runErr != nil {
			logrus.Errorf("Scheduled rate update %s failed: %v", execID, runErr)
			s.notifier.NotifyError(jobCtx, runErr)
			return
		}
		logrus.Infof("Scheduled rate update %s wrote %d day(s) over %s..%s", execID, res.DaysWritten, res.Start, res.End)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)

	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(updater *Updater, notifier adapters.Notifier, cron string) *Scheduler {
	return &Scheduler{updater: updater, notifier: notifier, cron: cron}
}
