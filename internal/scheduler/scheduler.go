// Package scheduler runs background jobs on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"tribefeed/pkg/log"
)

// Job is one unit of background work. It must return when ctx is done.
type Job func(ctx context.Context) error

// Scheduler runs a single Job on a six-field cron spec (seconds first).
// Overlapping runs are skipped and panics are recovered.
type Scheduler struct {
	name   string
	cron   *cron.Cron
	job    cron.Job
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New parses spec and prepares job under name. Nothing runs until Start.
func New(name, spec string, job Job) (*Scheduler, error) {
	logger := log.Default().Named("scheduler").With("job", name)
	cl := cronLogger{logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		name:   name,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cl)),
	}
	s.job = cron.NewChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)).Then(cron.FuncJob(func() {
		s.run(job)
	}))

	if _, err := s.cron.AddJob(spec, s.job); err != nil {
		cancel()
		return nil, errors.Wrapf(err, "schedule %s with %q", name, spec)
	}
	return s, nil
}

// Start begins the schedule. With runNow the job also runs immediately in
// the background.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	s.logger.Info("scheduler started", "next_run", s.Next())

	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job.Run()
		}()
	}
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels the running job, if any, and waits for it to return or for
// ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.idle():
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "stop %s", s.name)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// Wait blocks until no run is in flight. Call it after a Stop that timed
// out before releasing anything the job uses.
func (s *Scheduler) Wait() {
	<-s.idle()
}

// idle closes once cron has no job running and the startup run returned.
func (s *Scheduler) idle() <-chan struct{} {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	return done
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.logger.Debug("job started")

	ctx := log.WithFields(s.ctx, "job", s.name)
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.logger.Info("job finished", "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger routes cron's own messages to pkg/log.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
