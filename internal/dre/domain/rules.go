package domain

import "strings"

// SourceRule carries the per-source vocabulary the engine cannot infer from rows.
type SourceRule struct {
	SettledStatuses     []string `mapstructure:"settled_statuses" yaml:"settled_statuses" json:"settled_statuses"`
	Side                Side     `mapstructure:"side" yaml:"side" json:"side"`
	DefaultCategoryID   string   `mapstructure:"default_category_id" yaml:"default_category_id" json:"default_category_id"`
	DefaultCategoryName string   `mapstructure:"default_category_name" yaml:"default_category_name" json:"default_category_name"`
}

// IsSettled matches status case-insensitively against the settled vocabulary.
func (r SourceRule) IsSettled(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return false
	}
	for _, s := range r.SettledStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// Rules maps a source kind to its rule.
type Rules map[SourceKind]SourceRule

// DefaultRules is used when no rules file is present or a kind is left out of it.
func DefaultRules() Rules {
	return Rules{
		SourceReceivable: {
			SettledStatuses:     []string{"received", "paid"},
			Side:                SideRevenue,
			DefaultCategoryID:   "default:receivable",
			DefaultCategoryName: "Operating Revenue",
		},
		SourcePayable: {
			SettledStatuses:     []string{"paid"},
			Side:                SideExpense,
			DefaultCategoryID:   "default:payable",
			DefaultCategoryName: "Operating Expenses",
		},
		SourcePayroll: {
			SettledStatuses:     []string{"paid"},
			Side:                SideExpense,
			DefaultCategoryID:   "default:payroll",
			DefaultCategoryName: "Personnel Expenses",
		},
		SourceAdvance: {
			SettledStatuses:     []string{"paid", "approved"},
			Side:                SideExpense,
			DefaultCategoryID:   "default:advance",
			DefaultCategoryName: "Salary Advances",
		},
		SourcePurchase: {
			SettledStatuses:     []string{"paid", "received"},
			Side:                SideExpense,
			DefaultCategoryID:   "default:purchase",
			DefaultCategoryName: "Purchases",
		},
		SourceLedgerEntry: {
			SettledStatuses:     []string{"paid", "received", "cleared"},
			DefaultCategoryID:   "default:ledger_entry",
			DefaultCategoryName: "Other Entries",
		},
		SourceServiceOrder: {
			SettledStatuses:     []string{"paid", "invoiced_paid"},
			Side:                SideRevenue,
			DefaultCategoryID:   "default:service_order",
			DefaultCategoryName: "Operating Revenue",
		},
	}
}

// Rule returns the rule for kind, falling back to the built-in default.
func (r Rules) Rule(kind SourceKind) SourceRule {
	if rule, ok := r[kind]; ok {
		return rule
	}
	return DefaultRules()[kind]
}

// SideOf decides the side of a record. A source without a fixed side
// (ledger entries) uses the record's own side, defaulting to expense.
func (r Rules) SideOf(rec Record) Side {
	if side := r.Rule(rec.Kind).Side; side != "" {
		return side
	}
	if rec.Side == SideRevenue {
		return SideRevenue
	}
	return SideExpense
}

// DefaultCategory returns the fallback category key and label for a record
// without allocations. Sides are suffixed for sources that carry both.
func (r Rules) DefaultCategory(rec Record) (string, string) {
	rule := r.Rule(rec.Kind)
	id := rule.DefaultCategoryID
	if id == "" {
		id = "default:" + string(rec.Kind)
	}
	if rule.Side == "" {
		id += ":" + string(r.SideOf(rec))
	}
	name := rule.DefaultCategoryName
	if name == "" {
		name = UncategorizedName
	}
	return id, name
}

// Merge overlays non-empty fields of other onto a copy of r.
func (r Rules) Merge(other Rules) Rules {
	out := make(Rules, len(r))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		base := out[k]
		if len(v.SettledStatuses) > 0 {
			base.SettledStatuses = append([]string(nil), v.SettledStatuses...)
		}
		if v.Side != "" {
			base.Side = v.Side
		}
		if v.DefaultCategoryID != "" {
			base.DefaultCategoryID = v.DefaultCategoryID
		}
		if v.DefaultCategoryName != "" {
			base.DefaultCategoryName = v.DefaultCategoryName
		}
		out[k] = base
	}
	return out
}
