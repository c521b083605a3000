package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals holds the figures derived from the flat line sets.
type Totals struct {
	Revenue   decimal.Decimal
	Expense   decimal.Decimal
	Result    decimal.Decimal
	NetMargin float64
}

// Build sums the flat line sets. Totals are never re-derived from the trees.
func Build(revenue, expense []domain.ClassifiedLine) Totals {
	t := Totals{
		Revenue: sumLines(revenue),
		Expense: sumLines(expense),
	}
	t.Result = t.Revenue.Sub(t.Expense)
	t.NetMargin = NetMargin(t.Result, t.Revenue)
	return t
}

// NetMargin is result/revenue as a percentage, 0 when revenue is 0.
func NetMargin(result, revenue decimal.Decimal) float64 {
	if revenue.IsZero() {
		return 0
	}
	return result.Mul(hundred).DivRound(revenue, 4).InexactFloat64()
}

func sumLines(lines []domain.ClassifiedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Value)
	}
	return total
}
