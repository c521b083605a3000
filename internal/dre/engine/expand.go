package engine

import (
	"strings"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// Expand turns a record into ledger lines. Allocations are emitted verbatim,
// one line each, and are not reconciled against the record total.
func Expand(rec domain.Record, rules domain.Rules) []domain.LedgerLine {
	side := rules.SideOf(rec)
	if len(rec.Allocations) > 0 {
		lines := make([]domain.LedgerLine, 0, len(rec.Allocations))
		for _, a := range rec.Allocations {
			line := domain.LedgerLine{
				Value:       a.Value,
				Description: firstNonEmpty(a.Description, rec.Description),
				Source:      rec.Kind,
				RecordID:    rec.ID,
				Side:        side,
			}
			if ref := strings.TrimSpace(a.AccountID); ref != "" {
				line.AccountRef = &ref
			} else {
				line.DefaultCategoryID, line.DefaultCategoryName, line.RecordCategory = defaultCategory(rec, rules)
			}
			lines = append(lines, line)
		}
		return lines
	}

	catID, catName, own := defaultCategory(rec, rules)
	return []domain.LedgerLine{{
		Value:               rec.Total,
		Description:         rec.Description,
		Source:              rec.Kind,
		RecordID:            rec.ID,
		Side:                side,
		DefaultCategoryID:   catID,
		DefaultCategoryName: catName,
		RecordCategory:      own,
	}}
}

// defaultCategory prefers the record's own category over the source default.
func defaultCategory(rec domain.Record, rules domain.Rules) (string, string, bool) {
	if id := strings.TrimSpace(rec.CategoryID); id != "" {
		_, name := rules.DefaultCategory(rec)
		return id, name, true
	}
	id, name := rules.DefaultCategory(rec)
	return id, name, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
