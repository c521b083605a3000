package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/repository"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db/pagination"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.ReportProfile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(conn),
	})
	return svc, clk
}

func TestCreateNormalizesProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, domain.CreateProfileRequest{
		Name:             "  Monthly Cash View ",
		Regime:           dredomain.RegimeCash,
		PerSourceEnabled: map[dredomain.SourceKind]bool{dredomain.SourceReceivable: true, "invoices": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "monthly-cash-view", profile.Code)
	assert.Equal(t, "Monthly Cash View", profile.Name)
	assert.Equal(t, dredomain.DatePolicyDue, profile.DateReferencePolicy)
	assert.Equal(t, dredomain.ReportTypeDetailed, profile.ReportType)

	cfg := profile.Config()
	assert.Equal(t, []dredomain.SourceKind{dredomain.SourceReceivable}, cfg.EnabledSources())

	stored, err := svc.Get(ctx, profile.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.PerSourceEnabled.Data()[dredomain.SourceReceivable])
	assert.False(t, stored.PerSourceEnabled.Data()[dredomain.SourcePayable])
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProfileRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateProfileRequest{Name: "x", DateReferencePolicy: "whenever"})
	assert.ErrorIs(t, err, dredomain.ErrInvalidDatePolicy)

	_, err = svc.Create(ctx, domain.CreateProfileRequest{Name: "Dup"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProfileRequest{Name: "dup"})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)
}

func TestSingleDefaultProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, dredomain.DefaultReportConfig(), cfg)

	first, err := svc.Create(ctx, domain.CreateProfileRequest{Name: "First", IsDefault: true, ReportType: dredomain.ReportTypeSummary})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CreateProfileRequest{Name: "Second", IsDefault: true})
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, first.ID.String())
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	cfg, err = svc.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.Name)

	_, err = svc.SetDefault(ctx, first.ID.String())
	require.NoError(t, err)

	cfg, err = svc.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Name)
	assert.Equal(t, dredomain.ReportTypeSummary, cfg.ReportType)

	reloaded, err = svc.Get(ctx, second.ID.String())
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	_, err = svc.SetDefault(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, domain.CreateProfileRequest{Name: "Draft View"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	name := "Final View"
	reportType := dredomain.ReportTypeSummary
	updated, err := svc.Update(ctx, profile.ID.String(), domain.UpdateProfileRequest{
		Name:       &name,
		ReportType: &reportType,
	})
	require.NoError(t, err)
	assert.Equal(t, "final-view", updated.Code)
	assert.True(t, updated.UpdatedAt.After(profile.UpdatedAt))

	bad := dredomain.Regime("weekly")
	_, err = svc.Update(ctx, profile.ID.String(), domain.UpdateProfileRequest{Regime: &bad})
	assert.ErrorIs(t, err, dredomain.ErrInvalidRegime)

	require.NoError(t, svc.Delete(ctx, profile.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, profile.ID.String()), domain.ErrNotFound)

	_, err = svc.Get(ctx, profile.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListPaginates(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		clk.Advance(time.Minute)
		_, err := svc.Create(ctx, domain.CreateProfileRequest{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.ListProfileRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)
	assert.Equal(t, "three", page.Profiles[0].Code)
	assert.True(t, page.HasMore)

	next, err := svc.List(ctx, domain.ListProfileRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, next.Profiles, 1)
	assert.Equal(t, "one", next.Profiles[0].Code)
	assert.False(t, next.HasMore)

	_, err = svc.List(ctx, domain.ListProfileRequest{Pagination: pagination.Pagination{PageToken: "garbage"}})
	assert.ErrorIs(t, err, pagination.ErrInvalidCursor)
}

func TestDuplicateErrSeparatesCodeFromDefault(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, domain.CreateProfileRequest{Name: "Monthly", IsDefault: true})
	require.NoError(t, err)

	impl := svc.(*Service)
	assert.ErrorIs(t, impl.duplicateErr(ctx, "monthly", snowflake.ID(99)), domain.ErrCodeTaken)
	// a profile never conflicts with its own code
	assert.ErrorIs(t, impl.duplicateErr(ctx, "monthly", profile.ID), domain.ErrDefaultConflict)
	assert.ErrorIs(t, impl.duplicateErr(ctx, "quarterly", snowflake.ID(99)), domain.ErrDefaultConflict)
}
