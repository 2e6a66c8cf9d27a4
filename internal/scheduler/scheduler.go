package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"TraderBlock/pkg/logger"
)

// Refresher recomputes the configured tickers.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs the refresh job once at start and then every interval. A
// run still in progress when the next one is due is skipped.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	log       *logger.Logger
	interval  time.Duration
	timeout   time.Duration

	job     cron.Job // refresh wrapped in the cron chain
	initial sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler that calls r.Refresh every interval. Each run gets
// at most one interval to finish.
func New(r Refresher, interval time.Duration, l *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	cl := cronLogger{l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		refresher: r,
		log:       l,
		interval:  interval,
		timeout:   interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds the refresh job.
func (s *Scheduler) Register() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	id, err := s.cron.AddFunc(spec, s.RunOnce)
	if err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	s.job = s.cron.Entry(id).WrappedJob
	return nil
}

// Start begins the schedule and fires the first refresh right away, through
// the same chain as the periodic runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.job != nil {
		s.initial.Add(1)
		go func() {
			defer s.initial.Done()
			s.job.Run()
		}()
	}
	s.log.Info("scheduler started", logger.Duration("interval", s.interval))
}

// Stop cancels a running refresh and waits for it to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop().Done()
	done := make(chan struct{})
	go func() {
		<-cronDone
		s.initial.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunOnce executes one refresh cycle. Errors are logged, never returned.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if err := s.refresher.Refresh(ctx); err != nil {
		s.log.Warn("scheduled refresh finished with errors", logger.Error(err))
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct{ l *logger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
