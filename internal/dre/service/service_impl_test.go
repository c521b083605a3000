package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/repository"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/metrics"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
)

type fakeReader struct {
	kind    domain.SourceKind
	records []domain.Record
	err     error
	block   bool
	calls   atomic.Int32
}

func (f *fakeReader) Kind() domain.SourceKind { return f.kind }

func (f *fakeReader) ListRecords(ctx context.Context, _ domain.Period) ([]domain.Record, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeReference struct {
	accounts   []domain.ChartOfAccount
	categories []domain.Category
}

func (f fakeReference) ListChartOfAccounts(context.Context) ([]domain.ChartOfAccount, error) {
	return f.accounts, nil
}

func (f fakeReference) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

type fixture struct {
	svc        domain.Service
	repo       domain.ReportRepository
	receivable *fakeReader
	payable    *fakeReader
	payroll    *fakeReader
}

func march(day int) time.Time { return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC) }

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.StoredReport{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		repo: repository.NewReportRepository(conn, node, clock.SystemClock{}),
		receivable: &fakeReader{kind: domain.SourceReceivable, records: []domain.Record{{
			ID: "r1", Total: decimal.NewFromInt(1000), Status: "received",
			Dates: map[string]time.Time{domain.FieldDueDate: march(5), domain.FieldReceivedAt: march(6)},
			Allocations: []domain.Allocation{
				{AccountID: "acc-sales", Value: decimal.NewFromInt(700)},
				{AccountID: "acc-services", Value: decimal.NewFromInt(300)},
			},
		}}},
		payable: &fakeReader{kind: domain.SourcePayable, records: []domain.Record{{
			ID: "p1", Total: decimal.NewFromInt(250), Status: "paid",
			Dates: map[string]time.Time{domain.FieldDueDate: march(10), domain.FieldPaidAt: march(11)},
		}}},
		payroll: &fakeReader{kind: domain.SourcePayroll, err: errors.New("payroll offline")},
	}

	readers := []domain.SourceReader{f.receivable, f.payable, f.payroll}
	for _, kind := range domain.SourceKinds {
		switch kind {
		case domain.SourceReceivable, domain.SourcePayable, domain.SourcePayroll:
			continue
		}
		readers = append(readers, &fakeReader{kind: kind})
	}

	f.svc = New(Params{
		Log:     zap.NewNop(),
		Cfg:     config.Config{DRE: config.DREConfig{FetchTimeout: timeout}},
		Rules:   config.NewStaticRulesHolder(nil),
		Readers: readers,
		Reference: fakeReference{
			accounts: []domain.ChartOfAccount{
				{ID: "acc-sales", Name: "Sales", CategoryID: "cat-rev"},
				{ID: "acc-services", Name: "Services", CategoryID: "cat-rev"},
			},
			categories: []domain.Category{{ID: "cat-rev", Name: "Gross Revenue"}},
		},
		Repo:   f.repo,
		Engine: metrics.NewEngineMetricsForTest(prometheus.NewRegistry()),
	})
	return f
}

func withoutPayroll() domain.ReportConfig {
	cfg := domain.DefaultReportConfig()
	cfg.Sources[domain.SourcePayroll] = false
	return cfg
}

func TestComputeReportAggregatesSources(t *testing.T) {
	f := newFixture(t, time.Second)

	report, err := f.svc.ComputeReport(context.Background(), domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeCash,
		Config:     withoutPayroll(),
	})
	require.NoError(t, err)

	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, report.TotalExpense.Equal(decimal.NewFromInt(250)))
	assert.True(t, report.Result.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, 75.0, report.NetMargin)
	assert.Equal(t, domain.RegimeCash, report.Config.Regime)

	require.Len(t, report.Revenue.Categories, 1)
	assert.Equal(t, "Gross Revenue", report.Revenue.Categories[0].CategoryName)
	assert.Len(t, report.Revenue.Accounts, 2)
	assert.EqualValues(t, 0, f.payroll.calls.Load())
}

func TestComputeReportFailsFastOnSourceError(t *testing.T) {
	f := newFixture(t, time.Second)

	_, err := f.svc.ComputeReport(context.Background(), domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeAccrual,
		Config:     domain.DefaultReportConfig(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceFetch)

	var fetchErr *domain.SourceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.SourcePayroll, fetchErr.Source)
}

func TestComputeReportTimesOut(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.payable.block = true

	_, err := f.svc.ComputeReport(context.Background(), domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeAccrual,
		Config:     withoutPayroll(),
	})
	assert.ErrorIs(t, err, domain.ErrSourceFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestComputeReportValidatesInput(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	_, err := f.svc.ComputeReport(ctx, domain.ComputeRequest{Competence: "2024-13", Regime: domain.RegimeCash})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = f.svc.ComputeReport(ctx, domain.ComputeRequest{Competence: "2024-03", Regime: "weekly"})
	assert.ErrorIs(t, err, domain.ErrInvalidRegime)

	cfg := withoutPayroll()
	cfg.DatePolicy = "someday"
	_, err = f.svc.ComputeReport(ctx, domain.ComputeRequest{Competence: "2024-03", Regime: domain.RegimeCash, Config: cfg})
	assert.ErrorIs(t, err, domain.ErrInvalidDatePolicy)
}

func TestGenerateReportUpsertsByKey(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	req := domain.ComputeRequest{Competence: "2024-03", Regime: domain.RegimeCash, Config: withoutPayroll()}

	first, err := f.svc.GenerateReport(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Version)
	require.NotNil(t, first.Report)

	f.payable.records[0].Total = decimal.NewFromInt(500)
	second, err := f.svc.GenerateReport(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 2, second.Version)
	assert.True(t, second.TotalExpense.Equal(decimal.NewFromInt(500)))

	list, err := f.svc.ListStoredReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Report)
}

func TestGenerateReportLeavesStoredReportOnFailure(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	stored, err := f.svc.GenerateReport(ctx, domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeAccrual,
		Config:     withoutPayroll(),
	})
	require.NoError(t, err)

	_, err = f.svc.GenerateReport(ctx, domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeAccrual,
		Config:     domain.DefaultReportConfig(),
	})
	require.ErrorIs(t, err, domain.ErrSourceFetch)

	current, err := f.svc.GetStoredReport(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Version, current.Version)
	assert.True(t, stored.Result.Equal(current.Result))
}

func TestFinalizeAndGet(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	stored, err := f.svc.GenerateReport(ctx, domain.ComputeRequest{
		Competence: "2024-03",
		Regime:     domain.RegimeCash,
		Config:     withoutPayroll(),
	})
	require.NoError(t, err)

	final, err := f.svc.FinalizeReport(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFinal, final.Status)
	assert.Equal(t, domain.ReportStatusFinal, final.Report.Status)

	_, err = f.svc.GetStoredReport(ctx, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.GetStoredReport(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.FinalizeReport(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpsertReport(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNilReport)
}

func TestGenerateReportKeepFinal(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	req := domain.ComputeRequest{Competence: "2024-03", Regime: domain.RegimeCash, Config: withoutPayroll()}

	stored, err := f.svc.GenerateReport(ctx, req)
	require.NoError(t, err)
	final, err := f.svc.FinalizeReport(ctx, stored.ID)
	require.NoError(t, err)

	req.KeepFinal = true
	_, err = f.svc.GenerateReport(ctx, req)
	assert.ErrorIs(t, err, domain.ErrReportFinal)

	current, err := f.svc.GetStoredReport(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFinal, current.Status)
	assert.Equal(t, final.Version, current.Version)

	req.KeepFinal = false
	reopened, err := f.svc.GenerateReport(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusDraft, reopened.Status)
}
