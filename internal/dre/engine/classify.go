package engine

import "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"

// Reference is the lookup view of the chart of accounts and its categories.
type Reference struct {
	accounts   map[string]domain.ChartOfAccount
	categories map[string]domain.Category
}

func NewReference(accounts []domain.ChartOfAccount, categories []domain.Category) *Reference {
	ref := &Reference{
		accounts:   make(map[string]domain.ChartOfAccount, len(accounts)),
		categories: make(map[string]domain.Category, len(categories)),
	}
	for _, a := range accounts {
		ref.accounts[a.ID] = a
	}
	for _, c := range categories {
		ref.categories[c.ID] = c
	}
	return ref
}

// Classify resolves the display identity of line. Lookup misses never fail;
// they leave the ids empty so the aggregator routes the line to the sentinel
// groups, and mark the line as a classification gap.
func (r *Reference) Classify(line domain.LedgerLine) domain.ClassifiedLine {
	out := domain.ClassifiedLine{
		LedgerLine:   line,
		CategoryName: domain.UncategorizedName,
		AccountName:  domain.NoAccountName,
	}

	if line.AccountRef == nil {
		if line.DefaultCategoryID == "" {
			out.Gap = true
			return out
		}
		cat, known := r.categories[line.DefaultCategoryID]
		if line.RecordCategory && !known {
			out.Gap = true
			return out
		}
		out.CategoryID = line.DefaultCategoryID
		out.CategoryName = line.DefaultCategoryName
		if known && cat.Name != "" {
			out.CategoryName = cat.Name
		}
		return out
	}

	account, ok := r.accounts[*line.AccountRef]
	if !ok {
		out.Gap = true
		return out
	}
	out.AccountID = account.ID
	out.AccountName = account.Name

	cat, ok := r.categories[account.CategoryID]
	if !ok {
		out.Gap = true
		return out
	}
	out.CategoryID = cat.ID
	out.CategoryName = cat.Name
	return out
}
