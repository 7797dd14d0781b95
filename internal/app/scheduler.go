package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"osm-news/internal/config"
	"osm-news/internal/observability"
)

const (
	ModeOneshot  = "oneshot"
	ModeInterval = "interval"
	ModeCron     = "cron"
)

// Runner is a full scrape run.
type Runner interface {
	Run(ctx context.Context) (*RunSummary, error)
}

// Scheduler triggers runs on an interval or cron expression. A tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *observability.Logger
	mode   string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(cfg *config.Config, runner Runner, logger *observability.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runner: runner,
		logger: logger,
		mode:   cfg.Scheduler.Mode,
		ctx:    ctx,
		cancel: cancel,
	}

	var spec string
	switch cfg.Scheduler.Mode {
	case ModeInterval:
		spec = fmt.Sprintf("@every %s", cfg.GetSchedulerInterval())
	case ModeCron:
		spec = cfg.Scheduler.CronExpr
	case ModeOneshot:
		return s, nil
	default:
		cancel()
		return nil, fmt.Errorf("unknown scheduler mode %q", cfg.Scheduler.Mode)
	}

	if _, err := c.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing scheduled runs. In oneshot mode it does nothing.
func (s *Scheduler) Start() {
	if s.mode == ModeOneshot {
		return
	}
	s.logger.Info("Starting scheduler", "mode", s.mode)
	s.cron.Start()
}

// Stop cancels an in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	summary, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.Warn("Scheduled run aborted", "error", err.Error())
		return
	}
	s.logger.Info("Scheduled run finished", "total_articles", summary.TotalArticles)
}

// cronLogger routes cron's own messages into the service logger.
type cronLogger struct {
	logger *observability.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
