// Package scheduler re-analyzes active feedback sources on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/pipeline"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateExpr reports whether expr is a usable 5-field cron expression.
func ValidateExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// SourceLister lists the sources a run should cover.
type SourceLister interface {
	ListActive(ctx context.Context) ([]models.FeedbackSource, error)
}

// Reanalyzer runs one source's analysis.
type Reanalyzer interface {
	ReanalyzeSource(ctx context.Context, sess *auth.Session, sourceID string) (*pipeline.AnalysisOutcome, error)
}

// Report summarizes one run.
type Report struct {
	Sources  int
	Analyzed int
	Failed   int
	Tasks    int
}

// Scheduler owns the cron job.
type Scheduler struct {
	expr     string
	schedule cron.Schedule
	sources  SourceLister
	runner   Reanalyzer
	sess     *auth.Session

	mu      sync.Mutex // serializes runs
	cron    *cron.Cron
	lastRun Report
}

// Opts configures a Scheduler.
type Opts struct {
	Expr    string
	Sources SourceLister
	Runner  Reanalyzer
	Session *auth.Session // defaults to auth.System()
}

// New validates the expression and builds a Scheduler. It does not start.
func New(opts Opts) (*Scheduler, error) {
	sched, err := cronParser.Parse(opts.Expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", opts.Expr, err)
	}
	if opts.Sources == nil || opts.Runner == nil {
		return nil, fmt.Errorf("scheduler: sources and runner are required")
	}
	sess := opts.Session
	if sess == nil {
		sess = auth.System()
	}
	return &Scheduler{expr: opts.Expr, schedule: sched, sources: opts.Sources, runner: opts.Runner, sess: sess}, nil
}

// Next returns the first fire time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start runs the job in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	c := cron.New(cron.WithParser(cronParser), cron.WithLogger(cronLogger{}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.RunOnce(ctx) }))
	c.Start()
	s.cron = c
	logx.Info().Str("cron", s.expr).Time("next", s.Next(time.Now())).Msg("scheduler: started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logx.Info().Msg("scheduler: stopped")
	}()
}

// RunOnce re-analyzes every active source. Per-source failures are logged
// and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rep Report
	sources, err := s.sources.ListActive(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("scheduler: list active sources")
		return rep
	}
	rep.Sources = len(sources)

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if src.SourceURL == "" {
			continue
		}
		out, err := s.runner.ReanalyzeSource(ctx, s.sess, src.ID)
		if err != nil {
			rep.Failed++
			logx.Warn().Err(err).Str("source", src.ID).Str("name", src.Name).Msg("scheduler: reanalyze failed")
			continue
		}
		rep.Analyzed++
		rep.Tasks += out.TasksCreated
	}

	logx.Info().Int("sources", rep.Sources).Int("analyzed", rep.Analyzed).Int("failed", rep.Failed).
		Int("tasks", rep.Tasks).Msg("scheduler: run complete")
	s.lastRun = rep
	return rep
}

// LastRun returns the report of the most recent run.
func (s *Scheduler) LastRun() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// cronLogger routes cron's internal logging to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logx.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logx.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
