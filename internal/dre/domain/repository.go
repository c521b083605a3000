package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// SourceReader lists the records of one source kind for a period.
// Implementations may return a superset of what the period includes.
type SourceReader interface {
	Kind() SourceKind
	ListRecords(ctx context.Context, period Period) ([]Record, error)
}

type ReferenceReader interface {
	ListChartOfAccounts(ctx context.Context) ([]ChartOfAccount, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type ReportRepository interface {
	// Upsert stores report under (competence, regime) and returns the stored id.
	Upsert(ctx context.Context, report *Report) (snowflake.ID, error)
	// UpsertDraft is Upsert that refuses with ErrReportFinal when the stored
	// report is final, including one finalized while the write is in flight.
	UpsertDraft(ctx context.Context, report *Report) (snowflake.ID, error)
	FindByKey(ctx context.Context, competence string, regime Regime) (*StoredReport, error)
	FindByID(ctx context.Context, id snowflake.ID) (*StoredReport, error)
	List(ctx context.Context, limit int) ([]StoredReport, error)
	Finalize(ctx context.Context, id snowflake.ID) (*StoredReport, error)
}
