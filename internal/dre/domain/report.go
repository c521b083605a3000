package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Sentinel group keys and display names for lines that miss classification.
const (
	UncategorizedKey  = "uncategorized"
	UncategorizedName = "Uncategorized"
	NoAccountKey      = "no_account"
	NoAccountName     = "No Account"
)

// LedgerLine is one value produced by expanding a record. Never persisted on its own.
type LedgerLine struct {
	Value       decimal.Decimal `json:"value"`
	AccountRef  *string         `json:"account_ref,omitempty"`
	Description string          `json:"description"`
	Source      SourceKind      `json:"source"`
	RecordID    string          `json:"record_id"`
	Side        Side            `json:"side"`

	// Set when AccountRef is nil: the record's own category, or the source default.
	DefaultCategoryID   string `json:"default_category_id,omitempty"`
	DefaultCategoryName string `json:"default_category_name,omitempty"`
	// RecordCategory marks DefaultCategoryID as supplied by the record. Such an
	// id must exist in the category lookup; source defaults need not.
	RecordCategory bool `json:"record_category,omitempty"`
}

// ClassifiedLine is a ledger line resolved against the chart of accounts.
// An empty CategoryID or AccountID routes the line to the sentinel groups.
type ClassifiedLine struct {
	LedgerLine
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`
	Gap          bool   `json:"classification_gap,omitempty"`
}

// AccountNode holds the lines of one account inside one category.
// CategoryIndex points into Tree.Categories.
type AccountNode struct {
	CategoryIndex int              `json:"category_index"`
	AccountID     string           `json:"account_id"`
	AccountName   string           `json:"account_name"`
	Lines         []ClassifiedLine `json:"lines,omitempty"`
	LineCount     int              `json:"line_count"`
	Total         decimal.Decimal  `json:"total"`
}

// CategoryNode is a top-level group. Accounts holds indexes into Tree.Accounts.
type CategoryNode struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Accounts     []int           `json:"accounts"`
	Total        decimal.Decimal `json:"total"`
}

// Tree is the arena form of the Category -> Account -> Lines hierarchy.
type Tree struct {
	Categories []CategoryNode `json:"categories"`
	Accounts   []AccountNode  `json:"accounts"`
}

// AccountsOf returns the account nodes of the category at index ci.
func (t Tree) AccountsOf(ci int) []AccountNode {
	if ci < 0 || ci >= len(t.Categories) {
		return nil
	}
	out := make([]AccountNode, 0, len(t.Categories[ci].Accounts))
	for _, ai := range t.Categories[ci].Accounts {
		out = append(out, t.Accounts[ai])
	}
	return out
}

// Total sums category totals.
func (t Tree) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range t.Categories {
		total = total.Add(c.Total)
	}
	return total
}

// FindCategory returns the index of the category key, or -1.
func (t Tree) FindCategory(categoryID string) int {
	for i, c := range t.Categories {
		if c.CategoryID == categoryID {
			return i
		}
	}
	return -1
}

// FindAccount returns the account node with the given key under the category key.
func (t Tree) FindAccount(categoryID, accountID string) (AccountNode, bool) {
	ci := t.FindCategory(categoryID)
	if ci < 0 {
		return AccountNode{}, false
	}
	for _, ai := range t.Categories[ci].Accounts {
		if t.Accounts[ai].AccountID == accountID {
			return t.Accounts[ai], true
		}
	}
	return AccountNode{}, false
}

// ReportStatus is the lifecycle of a stored report.
type ReportStatus string

const (
	ReportStatusDraft ReportStatus = "draft"
	ReportStatusFinal ReportStatus = "final"
)

// RunStats describes what a computation saw.
type RunStats struct {
	RecordsFetched     map[SourceKind]int `json:"records_fetched"`
	RecordsIncluded    int                `json:"records_included"`
	Lines              int                `json:"lines"`
	ClassificationGaps int                `json:"classification_gaps"`
}

// Report is a computed income statement. It is self-describing: the config
// and period that produced it travel with it.
type Report struct {
	Competence   string          `json:"competence"`
	Regime       Regime          `json:"regime"`
	Period       Period          `json:"period"`
	Config       ReportConfig    `json:"config"`
	Revenue      Tree            `json:"revenue_tree"`
	Expense      Tree            `json:"expense_tree"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Result       decimal.Decimal `json:"result"`
	NetMargin    float64         `json:"net_margin"`
	Status       ReportStatus    `json:"status"`
	Stats        RunStats        `json:"stats"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StoredReport is the persisted row, unique on (competence, regime).
type StoredReport struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Competence   string          `gorm:"type:text;not null;uniqueIndex:ux_dre_reports_key,priority:1" json:"competence"`
	Regime       Regime          `gorm:"type:text;not null;uniqueIndex:ux_dre_reports_key,priority:2" json:"regime"`
	Status       ReportStatus    `gorm:"type:text;not null;default:draft" json:"status"`
	Version      int64           `gorm:"not null;default:1" json:"version"`
	ConfigName   string          `gorm:"type:text" json:"config_name"`
	TotalRevenue decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_revenue"`
	TotalExpense decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_expense"`
	Result       decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"result"`
	NetMargin    float64         `gorm:"not null" json:"net_margin"`
	Payload      datatypes.JSON  `gorm:"type:jsonb;not null" json:"payload"`
	FinalizedAt  *time.Time      `json:"finalized_at,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;index" json:"updated_at"`
}

func (StoredReport) TableName() string { return "dre_reports" }
