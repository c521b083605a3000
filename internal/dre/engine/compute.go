package engine

import (
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// Input is everything a computation reads. Records of disabled sources are ignored.
type Input struct {
	Period     domain.Period
	Regime     domain.Regime
	Config     domain.ReportConfig
	Rules      domain.Rules
	Records    map[domain.SourceKind][]domain.Record
	Accounts   []domain.ChartOfAccount
	Categories []domain.Category
}

// Compute runs filter, expansion, classification, aggregation and totals in a
// single in-memory pass. It has no side effects and sets no timestamps.
func Compute(in Input) (*domain.Report, error) {
	if !in.Regime.Valid() {
		return nil, domain.ErrInvalidRegime
	}
	if in.Period.Start.IsZero() {
		return nil, domain.ErrInvalidPeriod
	}
	cfg := in.Config.Clone()
	cfg.Regime = in.Regime
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules := in.Rules
	if rules == nil {
		rules = domain.DefaultRules()
	}

	ref := NewReference(in.Accounts, in.Categories)
	stats := domain.RunStats{RecordsFetched: make(map[domain.SourceKind]int)}
	var revenue, expense []domain.ClassifiedLine

	for _, kind := range cfg.EnabledSources() {
		records := in.Records[kind]
		stats.RecordsFetched[kind] = len(records)
		for _, rec := range records {
			if rec.Kind == "" {
				rec.Kind = kind
			}
			if !Include(rec, in.Regime, cfg.DatePolicy, in.Period, rules) {
				continue
			}
			stats.RecordsIncluded++
			for _, line := range Expand(rec, rules) {
				cl := ref.Classify(line)
				if cl.Gap {
					stats.ClassificationGaps++
				}
				stats.Lines++
				if cl.Side == domain.SideRevenue {
					revenue = append(revenue, cl)
				} else {
					expense = append(expense, cl)
				}
			}
		}
	}

	revenueTree := Aggregate(revenue)
	expenseTree := Aggregate(expense)
	if cfg.ReportType == domain.ReportTypeSummary {
		revenueTree = Summarize(revenueTree)
		expenseTree = Summarize(expenseTree)
	}
	totals := Build(revenue, expense)

	return &domain.Report{
		Competence:   in.Period.Competence,
		Regime:       in.Regime,
		Period:       in.Period,
		Config:       cfg,
		Revenue:      revenueTree,
		Expense:      expenseTree,
		TotalRevenue: totals.Revenue,
		TotalExpense: totals.Expense,
		Result:       totals.Result,
		NetMargin:    totals.NetMargin,
		Status:       domain.ReportStatusDraft,
		Stats:        stats,
	}, nil
}
