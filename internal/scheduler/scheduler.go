package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/lock"
	obsmetrics "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/metrics"
	reportconfigdomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
)

const (
	JobRefreshReports = "refresh_reports"

	lockKeyPrefix = "dre:scheduler:"
	// lockGrace keeps a lease alive a little past the job timeout.
	lockGrace     = 30 * time.Second
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log      *zap.Logger
	DRE      dredomain.Service
	Reports  dredomain.ReportRepository
	Profiles reportconfigdomain.Service
	Clock    clock.Clock
	Config   Config                       `optional:"true"`
	Metrics  *obsmetrics.SchedulerMetrics `optional:"true"`
	Locker   *lock.Locker                 `optional:"true"`
}

// jobLocker keeps a job to one instance at a time.
type jobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	dre      dredomain.Service
	reports  dredomain.ReportRepository
	profiles reportconfigdomain.Service
	metrics  *obsmetrics.SchedulerMetrics
	locker   jobLocker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.DRE == nil || p.Reports == nil || p.Profiles == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	m := p.Metrics
	if m == nil {
		m = obsmetrics.Scheduler()
	}
	s := &Scheduler{
		log:      p.Log.Named("scheduler"),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		dre:      p.DRE,
		reports:  p.Reports,
		profiles: p.Profiles,
		metrics:  m,
	}
	if p.Locker != nil {
		s.locker = p.Locker
	}
	return s, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(zap.String("job", name))
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runLocked(parent, JobRefreshReports, func(ctx context.Context) error {
		return s.runJob(ctx, JobRefreshReports, s.cfg.JobTimeout, s.RefreshReportsJob)
	})
}

// runLocked runs fn only when this instance wins the job lease. Without a
// locker every instance runs the job.
func (s *Scheduler) runLocked(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	key := lockKeyPrefix + name
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.JobTimeout+lockGrace)
	if err != nil {
		s.metrics.IncJobError(name, err)
		return fmt.Errorf("%s: acquire lock: %w", name, err)
	}
	if !ok {
		s.metrics.IncLockBusy(name)
		s.log.Debug("job lock held elsewhere", zap.String("job", name))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()
	return fn(ctx)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshReportsJob recomputes the open competences for every configured
// regime with the default profile. Finalized reports are left untouched.
func (s *Scheduler) RefreshReportsJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	profile, err := s.profiles.GetDefault(ctx)
	if err != nil {
		return err
	}

	var jobErr error
	for _, competence := range s.targetCompetences() {
		for _, regime := range s.cfg.Regimes {
			if err := ctx.Err(); err != nil {
				return errors.Join(jobErr, err)
			}

			existing, err := s.reports.FindByKey(ctx, competence, regime)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				run.IncError()
				continue
			}
			if existing != nil && existing.Status == dredomain.ReportStatusFinal {
				s.metrics.IncReport(string(regime), obsmetrics.ReportOutcomeSkippedFinal)
				run.AddSkipped(1)
				continue
			}

			_, err = s.dre.GenerateReport(ctx, dredomain.ComputeRequest{
				Competence: competence,
				Regime:     regime,
				Config:     profile,
				KeepFinal:  true,
			})
			if errors.Is(err, dredomain.ErrReportFinal) {
				// finalized after the status check above
				s.metrics.IncReport(string(regime), obsmetrics.ReportOutcomeSkippedFinal)
				run.AddSkipped(1)
				continue
			}
			if err != nil {
				s.metrics.IncReport(string(regime), obsmetrics.ReportOutcomeFailed)
				s.logger(ctx).Warn("scheduler.report.failed",
					zap.String("competence", competence),
					zap.String("regime", string(regime)),
					zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
					zap.Error(err),
				)
				jobErr = errors.Join(jobErr, err)
				run.IncError()
				continue
			}
			s.metrics.IncReport(string(regime), obsmetrics.ReportOutcomeGenerated)
			run.AddProcessed(1)
		}
	}
	return jobErr
}

// targetCompetences returns the current competence, preceded by the previous
// one while it is still inside the grace window.
func (s *Scheduler) targetCompetences() []string {
	now := s.clock.Now().UTC()
	current := dredomain.PeriodOf(now)
	if s.cfg.PreviousMonthDays > 0 && now.Day() <= s.cfg.PreviousMonthDays {
		return []string{current.Previous().Competence, current.Competence}
	}
	return []string{current.Competence}
}
