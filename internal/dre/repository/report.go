package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200

	upsertAttempts = 2
)

const reportColumns = `id, competence, regime, status, version, config_name, total_revenue, total_expense,
	result, net_margin, payload, finalized_at, created_at, updated_at`

type reportRepo struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewReportRepository(conn *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.ReportRepository {
	return &reportRepo{db: conn, genID: genID, clock: clk}
}

// Upsert writes the report with a compare-and-swap on version. A lost race is
// retried once against the fresh row before surfacing ErrPersistenceConflict.
func (r *reportRepo) Upsert(ctx context.Context, report *domain.Report) (snowflake.ID, error) {
	return r.upsert(ctx, report, false)
}

func (r *reportRepo) UpsertDraft(ctx context.Context, report *domain.Report) (snowflake.ID, error) {
	return r.upsert(ctx, report, true)
}

func (r *reportRepo) upsert(ctx context.Context, report *domain.Report, keepFinal bool) (snowflake.ID, error) {
	if report == nil {
		return 0, domain.ErrNilReport
	}

	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := r.FindByKey(ctx, report.Competence, report.Regime)
		if err != nil {
			return 0, err
		}
		if keepFinal && existing != nil && existing.Status == domain.ReportStatusFinal {
			return 0, domain.ErrReportFinal
		}
		id, err := r.write(ctx, report, existing, keepFinal)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrPersistenceConflict) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// write inserts when existing is nil, otherwise updates only if the stored
// version still matches existing.Version. With keepFinal the update also
// requires the stored row to still be a draft.
func (r *reportRepo) write(ctx context.Context, report *domain.Report, existing *domain.StoredReport, keepFinal bool) (snowflake.ID, error) {
	now := r.clock.Now()
	status := report.Status
	if status != domain.ReportStatusFinal {
		status = domain.ReportStatusDraft
	}

	snapshot := *report
	snapshot.Status = status
	snapshot.UpdatedAt = now
	if existing == nil {
		snapshot.CreatedAt = now
	} else {
		snapshot.CreatedAt = existing.CreatedAt
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}

	var finalizedAt any
	if status == domain.ReportStatusFinal {
		finalizedAt = now
	}

	if existing == nil {
		id := r.genID.Generate()
		err := r.db.WithContext(ctx).Exec(
			`INSERT INTO dre_reports (`+reportColumns+`)
			 VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			report.Competence,
			report.Regime,
			status,
			report.Config.Name,
			report.TotalRevenue,
			report.TotalExpense,
			report.Result,
			report.NetMargin,
			datatypes.JSON(payload),
			finalizedAt,
			now,
			now,
		).Error
		if err != nil {
			if db.IsDuplicateKeyErr(err) || db.IsSerializationFailure(err) {
				return 0, domain.ErrPersistenceConflict
			}
			return 0, err
		}
		report.CreatedAt, report.UpdatedAt, report.Status = now, now, status
		return id, nil
	}

	query := `UPDATE dre_reports
		 SET status = ?, version = version + 1, config_name = ?, total_revenue = ?, total_expense = ?,
		     result = ?, net_margin = ?, payload = ?, finalized_at = ?, updated_at = ?
		 WHERE id = ? AND version = ?`
	if keepFinal {
		query += ` AND status <> 'final'`
	}
	res := r.db.WithContext(ctx).Exec(
		query,
		status,
		report.Config.Name,
		report.TotalRevenue,
		report.TotalExpense,
		report.Result,
		report.NetMargin,
		datatypes.JSON(payload),
		finalizedAt,
		now,
		existing.ID,
		existing.Version,
	)
	if res.Error != nil {
		if db.IsSerializationFailure(res.Error) {
			return 0, domain.ErrPersistenceConflict
		}
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrPersistenceConflict
	}
	report.CreatedAt, report.UpdatedAt, report.Status = existing.CreatedAt, now, status
	return existing.ID, nil
}

func (r *reportRepo) FindByKey(ctx context.Context, competence string, regime domain.Regime) (*domain.StoredReport, error) {
	var row domain.StoredReport
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+reportColumns+` FROM dre_reports WHERE competence = ? AND regime = ?`,
		competence,
		regime,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *reportRepo) FindByID(ctx context.Context, id snowflake.ID) (*domain.StoredReport, error) {
	var row domain.StoredReport
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+reportColumns+` FROM dre_reports WHERE id = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *reportRepo) List(ctx context.Context, limit int) ([]domain.StoredReport, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var rows []domain.StoredReport
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+reportColumns+` FROM dre_reports ORDER BY updated_at DESC, id DESC LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Finalize marks the report final. Finalizing an already final report is a no-op.
func (r *reportRepo) Finalize(ctx context.Context, id snowflake.ID) (*domain.StoredReport, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Status == domain.ReportStatusFinal {
		return existing, nil
	}

	now := r.clock.Now()
	res := r.db.WithContext(ctx).Exec(
		`UPDATE dre_reports SET status = ?, version = version + 1, finalized_at = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		domain.ReportStatusFinal,
		now,
		now,
		existing.ID,
		existing.Version,
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrPersistenceConflict
	}
	return r.FindByID(ctx, id)
}
