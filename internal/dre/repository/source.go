package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

const allocationChunk = 500

type sourceRow interface {
	TableName() string
	toRecord() domain.Record
}

// sourceReader reads one upstream table. The window query is a superset of the
// period; the engine's temporal filter decides inclusion.
type sourceReader[T sourceRow] struct {
	db          *gorm.DB
	kind        domain.SourceKind
	dateColumns []string
	competence  bool
}

func (r *sourceReader[T]) Kind() domain.SourceKind { return r.kind }

func (r *sourceReader[T]) ListRecords(ctx context.Context, period domain.Period) ([]domain.Record, error) {
	query, args := r.window(period)

	var rows []T
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]domain.Record, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		rec := row.toRecord()
		records = append(records, rec)
		ids = append(ids, rec.ID)
	}

	allocations, err := loadAllocations(ctx, r.db, r.kind, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Allocations = allocations[records[i].ID]
	}
	return records, nil
}

// window widens the period by a day on each side so timezone offsets in
// stored timestamps never drop a candidate row.
func (r *sourceReader[T]) window(period domain.Period) (string, []any) {
	from := period.Start.Add(-24 * time.Hour)
	to := period.End.Add(24 * time.Hour)

	clauses := make([]string, 0, len(r.dateColumns)+1)
	args := make([]any, 0, 2*len(r.dateColumns)+1)
	for _, col := range r.dateColumns {
		clauses = append(clauses, "("+col+" >= ? AND "+col+" <= ?)")
		args = append(args, from, to)
	}
	if r.competence {
		clauses = append(clauses, "competence LIKE ?")
		args = append(args, period.Competence+"%")
	}
	return strings.Join(clauses, " OR "), args
}

func loadAllocations(ctx context.Context, db *gorm.DB, kind domain.SourceKind, ids []string) (map[string][]domain.Allocation, error) {
	out := make(map[string][]domain.Allocation)
	for start := 0; start < len(ids); start += allocationChunk {
		end := start + allocationChunk
		if end > len(ids) {
			end = len(ids)
		}

		var rows []AllocationRow
		if err := db.WithContext(ctx).
			Where("source_kind = ? AND record_id IN ?", string(kind), ids[start:end]).
			Order("id asc").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.RecordID] = append(out[row.RecordID], domain.Allocation{
				AccountID:   row.AccountID,
				Value:       row.Value,
				Description: row.Description,
			})
		}
	}
	return out, nil
}

// NewSourceReaders returns one reader per source kind, in collection order.
func NewSourceReaders(db *gorm.DB) []domain.SourceReader {
	return []domain.SourceReader{
		&sourceReader[ReceivableRow]{
			db: db, kind: domain.SourceReceivable,
			dateColumns: []string{"due_date", "received_at"}, competence: true,
		},
		&sourceReader[PayableRow]{
			db: db, kind: domain.SourcePayable,
			dateColumns: []string{"due_date", "paid_at"}, competence: true,
		},
		&sourceReader[PayrollEntryRow]{
			db: db, kind: domain.SourcePayroll,
			dateColumns: []string{"payment_date", "paid_at"}, competence: true,
		},
		&sourceReader[AdvanceRow]{
			db: db, kind: domain.SourceAdvance,
			dateColumns: []string{"advance_date", "paid_at"}, competence: true,
		},
		&sourceReader[PurchaseRow]{
			db: db, kind: domain.SourcePurchase,
			dateColumns: []string{"purchase_date", "due_date", "paid_at"},
		},
		&sourceReader[LedgerEntryRow]{
			db: db, kind: domain.SourceLedgerEntry,
			dateColumns: []string{"entry_date", "due_date", "paid_at"}, competence: true,
		},
		&sourceReader[ServiceOrderRow]{
			db: db, kind: domain.SourceServiceOrder,
			dateColumns: []string{"billed_at", "due_date", "paid_at"},
		},
	}
}
