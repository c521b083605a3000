package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	obscontext "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/context"
	obsmetrics "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/metrics"
	reportconfigdomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
)

type generateCall struct {
	competence string
	regime     dredomain.Regime
	config     string
	runID      string
	keepFinal  bool
}

type mockDREService struct {
	dredomain.Service

	mu    sync.Mutex
	calls []generateCall
	fail  map[dredomain.Regime]error
}

func (m *mockDREService) GenerateReport(ctx context.Context, req dredomain.ComputeRequest) (*dredomain.StoredReportResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, generateCall{
		competence: req.Competence,
		regime:     req.Regime,
		config:     req.Config.Name,
		runID:      obscontext.RunIDFromContext(ctx),
		keepFinal:  req.KeepFinal,
	})
	if err := m.fail[req.Regime]; err != nil {
		return nil, err
	}
	return &dredomain.StoredReportResponse{Competence: req.Competence, Regime: req.Regime}, nil
}

type mockReportRepo struct {
	dredomain.ReportRepository

	final map[string]bool
}

func (m *mockReportRepo) FindByKey(_ context.Context, competence string, regime dredomain.Regime) (*dredomain.StoredReport, error) {
	if m.final[competence+"/"+string(regime)] {
		return &dredomain.StoredReport{ID: snowflake.ID(1), Competence: competence, Regime: regime, Status: dredomain.ReportStatusFinal}, nil
	}
	return nil, nil
}

type mockProfiles struct {
	reportconfigdomain.Service

	err error
}

func (m *mockProfiles) GetDefault(context.Context) (dredomain.ReportConfig, error) {
	if m.err != nil {
		return dredomain.ReportConfig{}, m.err
	}
	cfg := dredomain.DefaultReportConfig()
	cfg.Name = "monthly"
	return cfg, nil
}

type fakeLocker struct {
	held     map[string]string
	released []string
	err      error
}

func (f *fakeLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	if ttl <= 0 {
		return "", false, errors.New("bad ttl")
	}
	if _, ok := f.held[key]; ok {
		return "", false, nil
	}
	f.held[key] = "token-1"
	return "token-1", true, nil
}

func (f *fakeLocker) Release(_ context.Context, key, token string) error {
	if f.held[key] == token {
		delete(f.held, key)
		f.released = append(f.released, key)
	}
	return nil
}

type fixture struct {
	sched    *Scheduler
	clock    *clock.FakeClock
	dre      *mockDREService
	reports  *mockReportRepo
	profiles *mockProfiles
}

func newFixture(t *testing.T, now time.Time, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewFakeClock(now),
		dre:      &mockDREService{fail: map[dredomain.Regime]error{}},
		reports:  &mockReportRepo{final: map[string]bool{}},
		profiles: &mockProfiles{},
	}
	sched, err := New(Params{
		Log:      zap.NewNop(),
		DRE:      f.dre,
		Reports:  f.reports,
		Profiles: f.profiles,
		Clock:    f.clock,
		Config:   cfg,
		Metrics:  obsmetrics.NewSchedulerMetricsForTest(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	f.sched = sched
	return f
}

func TestRunOnceRefreshesCurrentCompetence(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})

	require.NoError(t, f.sched.RunOnce(context.Background()))

	require.Len(t, f.dre.calls, 2)
	assert.Equal(t, "2024-03", f.dre.calls[0].competence)
	assert.Equal(t, dredomain.RegimeAccrual, f.dre.calls[0].regime)
	assert.Equal(t, dredomain.RegimeCash, f.dre.calls[1].regime)
	assert.Equal(t, "monthly", f.dre.calls[0].config)
	assert.NotEmpty(t, f.dre.calls[0].runID)
	assert.Equal(t, f.dre.calls[0].runID, f.dre.calls[1].runID)
}

func TestRunOnceIncludesPreviousMonthEarly(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 3, 0, 30, 0, 0, time.UTC), Config{Regimes: []dredomain.Regime{dredomain.RegimeCash}})

	require.NoError(t, f.sched.RunOnce(context.Background()))

	require.Len(t, f.dre.calls, 2)
	assert.Equal(t, "2023-12", f.dre.calls[0].competence)
	assert.Equal(t, "2024-01", f.dre.calls[1].competence)

	f.clock.Advance(5 * 24 * time.Hour)
	f.dre.calls = nil
	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.Len(t, f.dre.calls, 1)
	assert.Equal(t, "2024-01", f.dre.calls[0].competence)
}

func TestRunOnceSkipsFinalReports(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	f.reports.final["2024-03/accrual"] = true

	require.NoError(t, f.sched.RunOnce(context.Background()))

	require.Len(t, f.dre.calls, 1)
	assert.Equal(t, dredomain.RegimeCash, f.dre.calls[0].regime)
}

func TestRunOnceSkipsReportFinalizedDuringRun(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	f.dre.fail[dredomain.RegimeCash] = dredomain.ErrReportFinal

	require.NoError(t, f.sched.RunOnce(context.Background()))

	require.Len(t, f.dre.calls, 2)
	assert.True(t, f.dre.calls[0].keepFinal)
	assert.True(t, f.dre.calls[1].keepFinal)
}

func TestRunOnceCollectsFailures(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	f.dre.fail[dredomain.RegimeAccrual] = &dredomain.SourceFetchError{Source: dredomain.SourcePayable, Err: errors.New("down")}

	err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dredomain.ErrSourceFetch)
	assert.Contains(t, err.Error(), JobRefreshReports)
	// the failing regime does not stop the others
	assert.Len(t, f.dre.calls, 2)
}

func TestRunOnceProfileFailure(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	f.profiles.err = errors.New("profiles unavailable")

	err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.dre.calls)
}

func TestRunOnceCanceledContextIsSoft(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.sched.RunOnce(ctx))
	assert.Empty(t, f.dre.calls)
}

func TestRunOnceHonorsJobLock(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), Config{})
	locker := &fakeLocker{held: map[string]string{}}
	f.sched.locker = locker

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Len(t, f.dre.calls, 2)
	assert.Equal(t, []string{"dre:scheduler:refresh_reports"}, locker.released)

	locker.held["dre:scheduler:refresh_reports"] = "other-instance"
	f.dre.calls = nil
	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Empty(t, f.dre.calls)

	locker.err = errors.New("redis down")
	err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestProvideConfig(t *testing.T) {
	cfg := ProvideConfig(config.Config{Scheduler: config.SchedulerConfig{
		Enabled:  true,
		Interval: time.Hour,
		Regimes:  []string{"cash", "bogus", "cash"},
	}})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, []dredomain.Regime{dredomain.RegimeCash}, cfg.Regimes)

	cfg = ProvideConfig(config.Config{})
	assert.Equal(t, DefaultConfig().Regimes, cfg.Regimes)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
}
