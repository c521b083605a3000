package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	models := append([]any{&domain.StoredReport{}}, SourceModels()...)
	if err := conn.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newReportRepo(t *testing.T, conn *gorm.DB, clk clock.Clock) *reportRepo {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewReportRepository(conn, node, clk).(*reportRepo)
}

func sampleReport(competence string, regime domain.Regime, revenue, expense int64) *domain.Report {
	rev := decimal.NewFromInt(revenue)
	exp := decimal.NewFromInt(expense)
	return &domain.Report{
		Competence:   competence,
		Regime:       regime,
		Config:       domain.DefaultReportConfig(),
		TotalRevenue: rev,
		TotalExpense: exp,
		Result:       rev.Sub(exp),
		Status:       domain.ReportStatusDraft,
	}
}

func TestUpsertKeepsOneRowPerKey(t *testing.T) {
	conn := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	repo := newReportRepo(t, conn, clk)
	ctx := context.Background()

	firstID, err := repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeAccrual, 1000, 400))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	secondID, err := repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeAccrual, 1500, 900))
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	var count int64
	require.NoError(t, conn.Model(&domain.StoredReport{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := repo.FindByKey(ctx, "2024-03", domain.RegimeAccrual)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.EqualValues(t, 2, stored.Version)
	assert.True(t, stored.TotalRevenue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, stored.Result.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, domain.ReportStatusDraft, stored.Status)
	assert.True(t, stored.CreatedAt.Before(stored.UpdatedAt))

	var snapshot domain.Report
	require.NoError(t, json.Unmarshal(stored.Payload, &snapshot))
	assert.True(t, snapshot.TotalExpense.Equal(decimal.NewFromInt(900)))
	assert.True(t, snapshot.CreatedAt.Equal(stored.CreatedAt))
}

func TestUpsertSeparatesRegimes(t *testing.T) {
	conn := setupDB(t)
	repo := newReportRepo(t, conn, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	cashID, err := repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeCash, 10, 5))
	require.NoError(t, err)
	accrualID, err := repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeAccrual, 20, 5))
	require.NoError(t, err)
	assert.NotEqual(t, cashID, accrualID)

	rows, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteDetectsStaleVersion(t *testing.T) {
	conn := setupDB(t)
	repo := newReportRepo(t, conn, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeCash, 10, 5))
	require.NoError(t, err)

	stale, err := repo.FindByKey(ctx, "2024-03", domain.RegimeCash)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, sampleReport("2024-03", domain.RegimeCash, 30, 5))
	require.NoError(t, err)

	_, err = repo.write(ctx, sampleReport("2024-03", domain.RegimeCash, 99, 5), stale, false)
	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)

	// A concurrent insert for a key that already exists is also a conflict.
	_, err = repo.write(ctx, sampleReport("2024-03", domain.RegimeCash, 99, 5), nil, false)
	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)

	current, err := repo.FindByKey(ctx, "2024-03", domain.RegimeCash)
	require.NoError(t, err)
	assert.True(t, current.TotalRevenue.Equal(decimal.NewFromInt(30)))
}

func TestFinalizeAndRecompute(t *testing.T) {
	conn := setupDB(t)
	repo := newReportRepo(t, conn, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	id, err := repo.Upsert(ctx, sampleReport("2024-05", domain.RegimeAccrual, 10, 5))
	require.NoError(t, err)

	final, err := repo.Finalize(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, domain.ReportStatusFinal, final.Status)
	assert.NotNil(t, final.FinalizedAt)

	again, err := repo.Finalize(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, final.Version, again.Version)

	_, err = repo.Upsert(ctx, sampleReport("2024-05", domain.RegimeAccrual, 12, 5))
	require.NoError(t, err)
	reopened, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusDraft, reopened.Status)
	assert.Nil(t, reopened.FinalizedAt)

	missing, err := repo.Finalize(ctx, snowflake.ID(42))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertDraftKeepsReportFinalizedMidWrite(t *testing.T) {
	conn := setupDB(t)
	repo := newReportRepo(t, conn, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	id, err := repo.Upsert(ctx, sampleReport("2024-06", domain.RegimeCash, 10, 5))
	require.NoError(t, err)
	draft, err := repo.FindByKey(ctx, "2024-06", domain.RegimeCash)
	require.NoError(t, err)

	// finalized between the read and the write
	final, err := repo.Finalize(ctx, id)
	require.NoError(t, err)
	draft.Version = final.Version

	_, err = repo.write(ctx, sampleReport("2024-06", domain.RegimeCash, 99, 5), draft, true)
	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)

	_, err = repo.UpsertDraft(ctx, sampleReport("2024-06", domain.RegimeCash, 99, 5))
	assert.ErrorIs(t, err, domain.ErrReportFinal)

	current, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFinal, current.Status)
	assert.Equal(t, final.Version, current.Version)
	assert.True(t, current.TotalRevenue.Equal(decimal.NewFromInt(10)))

	newID, err := repo.UpsertDraft(ctx, sampleReport("2024-07", domain.RegimeCash, 1, 1))
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)
}

func TestListLimitAndOrder(t *testing.T) {
	conn := setupDB(t)
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := newReportRepo(t, conn, clk)
	ctx := context.Background()

	for _, competence := range []string{"2024-01", "2024-02", "2024-03"} {
		clk.Advance(time.Minute)
		_, err := repo.Upsert(ctx, sampleReport(competence, domain.RegimeAccrual, 1, 1))
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03", rows[0].Competence)
	assert.Equal(t, "2024-02", rows[1].Competence)

	found, err := repo.FindByKey(ctx, "1999-01", domain.RegimeAccrual)
	require.NoError(t, err)
	assert.Nil(t, found)
}
