package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// Source rows are owned by the upstream application; the engine only reads them.

type ReceivableRow struct {
	ID          string          `gorm:"primaryKey;type:text"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status      string          `gorm:"type:text"`
	DueDate     *time.Time
	ReceivedAt  *time.Time
	Competence  string `gorm:"type:text"`
	CategoryID  string `gorm:"type:text"`
}

func (ReceivableRow) TableName() string { return "receivables" }

func (r ReceivableRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourceReceivable,
		Description: r.Description,
		Total:       r.Amount,
		Status:      r.Status,
		Dates:       dates(domain.FieldDueDate, r.DueDate, domain.FieldReceivedAt, r.ReceivedAt),
		Competence:  r.Competence,
		CategoryID:  r.CategoryID,
	}
}

type PayableRow struct {
	ID          string          `gorm:"primaryKey;type:text"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status      string          `gorm:"type:text"`
	DueDate     *time.Time
	PaidAt      *time.Time
	Competence  string `gorm:"type:text"`
	CategoryID  string `gorm:"type:text"`
}

func (PayableRow) TableName() string { return "payables" }

func (r PayableRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourcePayable,
		Description: r.Description,
		Total:       r.Amount,
		Status:      r.Status,
		Dates:       dates(domain.FieldDueDate, r.DueDate, domain.FieldPaidAt, r.PaidAt),
		Competence:  r.Competence,
		CategoryID:  r.CategoryID,
	}
}

type PayrollEntryRow struct {
	ID           string          `gorm:"primaryKey;type:text"`
	EmployeeName string          `gorm:"type:text"`
	NetAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status       string          `gorm:"type:text"`
	PaymentDate  *time.Time
	PaidAt       *time.Time
	Competence   string `gorm:"type:text"`
	CategoryID   string `gorm:"type:text"`
}

func (PayrollEntryRow) TableName() string { return "payroll_entries" }

func (r PayrollEntryRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourcePayroll,
		Description: r.EmployeeName,
		Total:       r.NetAmount,
		Status:      r.Status,
		Dates:       dates(domain.FieldPaymentDate, r.PaymentDate, domain.FieldPaidAt, r.PaidAt),
		Competence:  r.Competence,
		CategoryID:  r.CategoryID,
	}
}

type AdvanceRow struct {
	ID          string          `gorm:"primaryKey;type:text"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status      string          `gorm:"type:text"`
	AdvanceDate *time.Time
	PaidAt      *time.Time
	Competence  string `gorm:"type:text"`
	CategoryID  string `gorm:"type:text"`
}

func (AdvanceRow) TableName() string { return "advances" }

func (r AdvanceRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourceAdvance,
		Description: r.Description,
		Total:       r.Amount,
		Status:      r.Status,
		Dates:       dates(domain.FieldAdvanceDate, r.AdvanceDate, domain.FieldPaidAt, r.PaidAt),
		Competence:  r.Competence,
		CategoryID:  r.CategoryID,
	}
}

type PurchaseRow struct {
	ID           string          `gorm:"primaryKey;type:text"`
	Description  string          `gorm:"type:text"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status       string          `gorm:"type:text"`
	PurchaseDate *time.Time
	DueDate      *time.Time
	PaidAt       *time.Time
	CategoryID   string `gorm:"type:text"`
}

func (PurchaseRow) TableName() string { return "purchases" }

func (r PurchaseRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourcePurchase,
		Description: r.Description,
		Total:       r.TotalAmount,
		Status:      r.Status,
		Dates: dates(
			domain.FieldPurchaseDate, r.PurchaseDate,
			domain.FieldDueDate, r.DueDate,
			domain.FieldPaidAt, r.PaidAt,
		),
		CategoryID: r.CategoryID,
	}
}

type LedgerEntryRow struct {
	ID          string          `gorm:"primaryKey;type:text"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Kind        string          `gorm:"type:text;not null"`
	Status      string          `gorm:"type:text"`
	EntryDate   *time.Time
	DueDate     *time.Time
	PaidAt      *time.Time
	Competence  string `gorm:"type:text"`
	CategoryID  string `gorm:"type:text"`
}

func (LedgerEntryRow) TableName() string { return "ledger_entries" }

func (r LedgerEntryRow) toRecord() domain.Record {
	side := domain.SideExpense
	if domain.Side(r.Kind) == domain.SideRevenue {
		side = domain.SideRevenue
	}
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourceLedgerEntry,
		Description: r.Description,
		Total:       r.Amount,
		Status:      r.Status,
		Dates: dates(
			domain.FieldEntryDate, r.EntryDate,
			domain.FieldDueDate, r.DueDate,
			domain.FieldPaidAt, r.PaidAt,
		),
		Competence: r.Competence,
		CategoryID: r.CategoryID,
		Side:       side,
	}
}

type ServiceOrderRow struct {
	ID          string          `gorm:"primaryKey;type:text"`
	Description string          `gorm:"type:text"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status      string          `gorm:"type:text"`
	BilledAt    *time.Time
	DueDate     *time.Time
	PaidAt      *time.Time
	CategoryID  string `gorm:"type:text"`
}

func (ServiceOrderRow) TableName() string { return "service_orders" }

func (r ServiceOrderRow) toRecord() domain.Record {
	return domain.Record{
		ID:          r.ID,
		Kind:        domain.SourceServiceOrder,
		Description: r.Description,
		Total:       r.TotalAmount,
		Status:      r.Status,
		Dates: dates(
			domain.FieldBilledAt, r.BilledAt,
			domain.FieldDueDate, r.DueDate,
			domain.FieldPaidAt, r.PaidAt,
		),
		CategoryID: r.CategoryID,
	}
}

type AllocationRow struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	SourceKind  string          `gorm:"type:text;not null;index:ix_record_allocations_record,priority:1"`
	RecordID    string          `gorm:"type:text;not null;index:ix_record_allocations_record,priority:2"`
	AccountID   string          `gorm:"type:text"`
	Value       decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Description string          `gorm:"type:text"`
}

func (AllocationRow) TableName() string { return "record_allocations" }

type ChartOfAccountRow struct {
	ID         string `gorm:"primaryKey;type:text"`
	Code       string `gorm:"type:text"`
	Name       string `gorm:"type:text;not null"`
	CategoryID string `gorm:"type:text"`
	Kind       string `gorm:"type:text"`
}

func (ChartOfAccountRow) TableName() string { return "chart_of_accounts" }

type CategoryRow struct {
	ID   string `gorm:"primaryKey;type:text"`
	Name string `gorm:"type:text;not null"`
	Kind string `gorm:"type:text"`
}

func (CategoryRow) TableName() string { return "account_categories" }

// dates builds a Record.Dates map from (field, value) pairs, skipping nil values.
func dates(pairs ...any) map[string]time.Time {
	out := make(map[string]time.Time, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		field, _ := pairs[i].(string)
		value, _ := pairs[i+1].(*time.Time)
		if field == "" || value == nil || value.IsZero() {
			continue
		}
		out[field] = value.UTC()
	}
	return out
}

// SourceModels lists every collaborator-owned table, used by tests and local bootstrap.
func SourceModels() []any {
	return []any{
		&ReceivableRow{},
		&PayableRow{},
		&PayrollEntryRow{},
		&AdvanceRow{},
		&PurchaseRow{},
		&LedgerEntryRow{},
		&ServiceOrderRow{},
		&AllocationRow{},
		&ChartOfAccountRow{},
		&CategoryRow{},
	}
}
