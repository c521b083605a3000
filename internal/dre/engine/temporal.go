package engine

import (
	"time"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// DateResolver names the record date fields that play each role for a source.
// An empty Competence means the record's competence string is used.
type DateResolver struct {
	Due        string
	Payment    string
	Competence string
}

// Resolvers is the per-source date table. Adding a source means adding an entry.
var Resolvers = map[domain.SourceKind]DateResolver{
	domain.SourceReceivable:   {Due: domain.FieldDueDate, Payment: domain.FieldReceivedAt},
	domain.SourcePayable:      {Due: domain.FieldDueDate, Payment: domain.FieldPaidAt},
	domain.SourcePayroll:      {Due: domain.FieldPaymentDate, Payment: domain.FieldPaidAt},
	domain.SourceAdvance:      {Due: domain.FieldAdvanceDate, Payment: domain.FieldPaidAt},
	domain.SourcePurchase:     {Due: domain.FieldDueDate, Payment: domain.FieldPaidAt, Competence: domain.FieldPurchaseDate},
	domain.SourceLedgerEntry:  {Due: domain.FieldDueDate, Payment: domain.FieldPaidAt},
	domain.SourceServiceOrder: {Due: domain.FieldDueDate, Payment: domain.FieldPaidAt, Competence: domain.FieldBilledAt},
}

// fallbackDue is consulted when a source's due field is absent on a row.
var fallbackDue = map[domain.SourceKind]string{
	domain.SourcePurchase:    domain.FieldPurchaseDate,
	domain.SourceLedgerEntry: domain.FieldEntryDate,
}

func (r DateResolver) due(rec domain.Record) *time.Time {
	if d := rec.Date(r.Due); d != nil {
		return d
	}
	return rec.Date(fallbackDue[rec.Kind])
}

func (r DateResolver) payment(rec domain.Record) *time.Time {
	return rec.Date(r.Payment)
}

func (r DateResolver) competence(rec domain.Record) *time.Time {
	if r.Competence != "" {
		if d := rec.Date(r.Competence); d != nil {
			return d
		}
	} else if t, ok := domain.NormalizeCompetence(rec.Competence); ok {
		return &t
	}
	return r.due(rec)
}

// ReferenceDate resolves the date that qualifies rec under regime and policy.
// It returns nil when the record does not qualify for any date.
func ReferenceDate(rec domain.Record, regime domain.Regime, policy domain.DatePolicy, rules domain.Rules) *time.Time {
	resolver, ok := Resolvers[rec.Kind]
	if !ok {
		return nil
	}
	if regime == domain.RegimeCash {
		if !rules.Rule(rec.Kind).IsSettled(rec.Status) {
			return nil
		}
		return resolver.payment(rec)
	}
	switch policy {
	case domain.DatePolicyPayment:
		return resolver.payment(rec)
	case domain.DatePolicyCompetence:
		return resolver.competence(rec)
	default:
		return resolver.due(rec)
	}
}

// Include decides whether rec belongs to period. A missing date excludes the record.
func Include(rec domain.Record, regime domain.Regime, policy domain.DatePolicy, period domain.Period, rules domain.Rules) bool {
	ref := ReferenceDate(rec, regime, policy, rules)
	if ref == nil {
		return false
	}
	return period.Contains(*ref)
}
