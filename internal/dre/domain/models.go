package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies one of the transactional sources feeding the income statement.
type SourceKind string

const (
	SourceReceivable   SourceKind = "receivable"
	SourcePayable      SourceKind = "payable"
	SourcePayroll      SourceKind = "payroll"
	SourceAdvance      SourceKind = "advance"
	SourcePurchase     SourceKind = "purchase"
	SourceLedgerEntry  SourceKind = "ledger_entry"
	SourceServiceOrder SourceKind = "service_order"
)

// SourceKinds lists every source in collection order.
// Output order of fetched records follows this list.
var SourceKinds = []SourceKind{
	SourceReceivable,
	SourcePayable,
	SourcePayroll,
	SourceAdvance,
	SourcePurchase,
	SourceLedgerEntry,
	SourceServiceOrder,
}

func (k SourceKind) Valid() bool {
	for _, kind := range SourceKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Side places an account, category or record on the revenue or expense half of the statement.
type Side string

const (
	SideRevenue Side = "revenue"
	SideExpense Side = "expense"
)

// Well-known date field names carried in Record.Dates.
const (
	FieldDueDate      = "due_date"
	FieldReceivedAt   = "received_at"
	FieldPaidAt       = "paid_at"
	FieldPaymentDate  = "payment_date"
	FieldAdvanceDate  = "advance_date"
	FieldPurchaseDate = "purchase_date"
	FieldEntryDate    = "entry_date"
	FieldBilledAt     = "billed_at"
)

// Allocation splits part of a record's value onto a chart-of-account entry.
type Allocation struct {
	AccountID   string          `json:"account_id"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description,omitempty"`
}

// Record is an immutable snapshot of one upstream transactional row.
//
// Dates is keyed by the source's own field names (see the Field* constants);
// which field plays the role of due, payment or competence date is decided by
// the engine's resolver table, not by the record.
type Record struct {
	ID          string               `json:"id"`
	Kind        SourceKind           `json:"kind"`
	Description string               `json:"description"`
	Total       decimal.Decimal      `json:"total"`
	Status      string               `json:"status"`
	Dates       map[string]time.Time `json:"dates,omitempty"`
	Competence  string               `json:"competence,omitempty"`
	CategoryID  string               `json:"category_id,omitempty"`
	Side        Side                 `json:"side,omitempty"`
	Allocations []Allocation         `json:"allocations,omitempty"`
}

// Date returns the named date field, or nil when the record does not carry it.
func (r Record) Date(field string) *time.Time {
	if field == "" || r.Dates == nil {
		return nil
	}
	value, ok := r.Dates[field]
	if !ok || value.IsZero() {
		return nil
	}
	return &value
}

// ChartOfAccount is a ledger account entry of the chart of accounts.
type ChartOfAccount struct {
	ID         string `json:"id"`
	Code       string `json:"code,omitempty"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	Kind       Side   `json:"kind"`
}

// Category groups chart-of-account entries one level above.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Side   `json:"kind"`
}

// Regime decides which date attribute qualifies a record for a period.
type Regime string

const (
	RegimeCash    Regime = "cash"
	RegimeAccrual Regime = "accrual"
)

func (r Regime) Valid() bool {
	return r == RegimeCash || r == RegimeAccrual
}

// DatePolicy selects the reference date under the accrual regime.
type DatePolicy string

const (
	DatePolicyDue        DatePolicy = "due"
	DatePolicyPayment    DatePolicy = "payment"
	DatePolicyCompetence DatePolicy = "competence"
)

func (p DatePolicy) Valid() bool {
	return p == DatePolicyDue || p == DatePolicyPayment || p == DatePolicyCompetence
}

// ReportType controls whether line detail is kept in the stored tree.
type ReportType string

const (
	ReportTypeSummary  ReportType = "summary"
	ReportTypeDetailed ReportType = "detailed"
)

func (t ReportType) Valid() bool {
	return t == ReportTypeSummary || t == ReportTypeDetailed
}

// ReportConfig is the immutable set of toggles a computation runs with.
type ReportConfig struct {
	Name       string              `json:"name,omitempty"`
	Regime     Regime              `json:"regime"`
	DatePolicy DatePolicy          `json:"date_reference_policy"`
	ReportType ReportType          `json:"report_type"`
	Sources    map[SourceKind]bool `json:"per_source_enabled"`
	IsDefault  bool                `json:"is_default"`
}

// DefaultReportConfig enables every source under accrual by due date.
func DefaultReportConfig() ReportConfig {
	sources := make(map[SourceKind]bool, len(SourceKinds))
	for _, kind := range SourceKinds {
		sources[kind] = true
	}
	return ReportConfig{
		Name:       "default",
		Regime:     RegimeAccrual,
		DatePolicy: DatePolicyDue,
		ReportType: ReportTypeDetailed,
		Sources:    sources,
		IsDefault:  true,
	}
}

// Enabled reports whether the source participates in the run.
func (c ReportConfig) Enabled(kind SourceKind) bool {
	if c.Sources == nil {
		return false
	}
	return c.Sources[kind]
}

// EnabledSources returns the enabled sources in collection order.
func (c ReportConfig) EnabledSources() []SourceKind {
	out := make([]SourceKind, 0, len(SourceKinds))
	for _, kind := range SourceKinds {
		if c.Enabled(kind) {
			out = append(out, kind)
		}
	}
	return out
}

// Validate checks the enumerated fields. Regime is validated by the caller
// since computations take the regime as a separate argument.
func (c ReportConfig) Validate() error {
	if c.Regime != "" && !c.Regime.Valid() {
		return ErrInvalidRegime
	}
	if !c.DatePolicy.Valid() {
		return ErrInvalidDatePolicy
	}
	if !c.ReportType.Valid() {
		return ErrInvalidReportType
	}
	return nil
}

// Clone returns a copy that does not share the sources map.
func (c ReportConfig) Clone() ReportConfig {
	out := c
	if c.Sources != nil {
		out.Sources = make(map[SourceKind]bool, len(c.Sources))
		for k, v := range c.Sources {
			out.Sources[k] = v
		}
	}
	return out
}
