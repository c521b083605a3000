package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	ComputeReport(ctx context.Context, req ComputeRequest) (*Report, error)
	UpsertReport(ctx context.Context, report *Report) (snowflake.ID, error)
	GenerateReport(ctx context.Context, req ComputeRequest) (*StoredReportResponse, error)
	ListStoredReports(ctx context.Context, limit int) ([]StoredReportResponse, error)
	GetStoredReport(ctx context.Context, id string) (*StoredReportResponse, error)
	FinalizeReport(ctx context.Context, id string) (*StoredReportResponse, error)
}

type ComputeRequest struct {
	Competence string       `json:"competence"`
	Regime     Regime       `json:"regime"`
	Config     ReportConfig `json:"config"`

	// KeepFinal leaves a final report untouched and fails with ErrReportFinal
	// instead of reopening it.
	KeepFinal bool `json:"-"`
}

// StoredReportResponse is a stored row with its decoded snapshot.
type StoredReportResponse struct {
	ID           string          `json:"id"`
	Competence   string          `json:"competence"`
	Regime       Regime          `json:"regime"`
	Status       ReportStatus    `json:"status"`
	Version      int64           `json:"version"`
	ConfigName   string          `json:"config_name,omitempty"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Result       decimal.Decimal `json:"result"`
	NetMargin    float64         `json:"net_margin"`
	Report       *Report         `json:"report,omitempty"`
	FinalizedAt  *time.Time      `json:"finalized_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
