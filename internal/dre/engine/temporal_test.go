package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func mustPeriod(t *testing.T, competence string) domain.Period {
	t.Helper()
	p, err := domain.ParsePeriod(competence)
	require.NoError(t, err)
	return p
}

func TestIncludeRegimeSwitch(t *testing.T) {
	rec := domain.Record{
		ID:     "r1",
		Kind:   domain.SourceReceivable,
		Status: "received",
		Dates: map[string]time.Time{
			domain.FieldDueDate:    day(t, "2024-01-10"),
			domain.FieldReceivedAt: day(t, "2024-02-05"),
		},
	}
	period := mustPeriod(t, "2024-01")
	rules := domain.DefaultRules()

	assert.False(t, Include(rec, domain.RegimeCash, domain.DatePolicyDue, period, rules))
	assert.True(t, Include(rec, domain.RegimeAccrual, domain.DatePolicyDue, period, rules))
	assert.True(t, Include(rec, domain.RegimeCash, domain.DatePolicyDue, mustPeriod(t, "2024-02"), rules))
}

func TestIncludeTable(t *testing.T) {
	period := mustPeriod(t, "2024-03")
	rules := domain.DefaultRules()

	cases := []struct {
		name   string
		rec    domain.Record
		regime domain.Regime
		policy domain.DatePolicy
		want   bool
	}{
		{
			name:   "cash requires settled status",
			rec:    domain.Record{Kind: domain.SourcePayable, Status: "open", Dates: map[string]time.Time{domain.FieldPaidAt: day(t, "2024-03-02")}},
			regime: domain.RegimeCash,
			want:   false,
		},
		{
			name:   "cash status match is case insensitive",
			rec:    domain.Record{Kind: domain.SourcePayable, Status: "PAID", Dates: map[string]time.Time{domain.FieldPaidAt: day(t, "2024-03-02")}},
			regime: domain.RegimeCash,
			want:   true,
		},
		{
			name:   "cash requires settlement date",
			rec:    domain.Record{Kind: domain.SourcePayable, Status: "paid", Dates: map[string]time.Time{domain.FieldDueDate: day(t, "2024-03-02")}},
			regime: domain.RegimeCash,
			want:   false,
		},
		{
			name:   "receivable paid status is not settled for payables vocabulary",
			rec:    domain.Record{Kind: domain.SourcePayable, Status: "received", Dates: map[string]time.Time{domain.FieldPaidAt: day(t, "2024-03-02")}},
			regime: domain.RegimeCash,
			want:   false,
		},
		{
			name:   "payroll due uses payment_date",
			rec:    domain.Record{Kind: domain.SourcePayroll, Dates: map[string]time.Time{domain.FieldPaymentDate: day(t, "2024-03-05")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyDue,
			want:   true,
		},
		{
			name:   "accrual payment policy",
			rec:    domain.Record{Kind: domain.SourceAdvance, Dates: map[string]time.Time{domain.FieldAdvanceDate: day(t, "2024-02-20"), domain.FieldPaidAt: day(t, "2024-03-01")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyPayment,
			want:   true,
		},
		{
			name:   "competence month string",
			rec:    domain.Record{Kind: domain.SourcePayroll, Competence: "2024-03", Dates: map[string]time.Time{domain.FieldPaymentDate: day(t, "2024-04-05")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyCompetence,
			want:   true,
		},
		{
			name:   "competence falls back to due date",
			rec:    domain.Record{Kind: domain.SourcePayable, Dates: map[string]time.Time{domain.FieldDueDate: day(t, "2024-03-31")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyCompetence,
			want:   true,
		},
		{
			name:   "unparseable competence falls back to due date",
			rec:    domain.Record{Kind: domain.SourcePayable, Competence: "march", Dates: map[string]time.Time{domain.FieldDueDate: day(t, "2024-04-01")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyCompetence,
			want:   false,
		},
		{
			name:   "service order competence uses billed_at",
			rec:    domain.Record{Kind: domain.SourceServiceOrder, Dates: map[string]time.Time{domain.FieldBilledAt: day(t, "2024-03-15"), domain.FieldDueDate: day(t, "2024-04-15")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyCompetence,
			want:   true,
		},
		{
			name:   "purchase due falls back to purchase_date",
			rec:    domain.Record{Kind: domain.SourcePurchase, Dates: map[string]time.Time{domain.FieldPurchaseDate: day(t, "2024-03-09")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyDue,
			want:   true,
		},
		{
			name:   "missing date excludes",
			rec:    domain.Record{Kind: domain.SourceReceivable},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyDue,
			want:   false,
		},
		{
			name:   "unknown kind excludes",
			rec:    domain.Record{Kind: "invoice", Dates: map[string]time.Time{domain.FieldDueDate: day(t, "2024-03-09")}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyDue,
			want:   false,
		},
		{
			name:   "last day is inclusive",
			rec:    domain.Record{Kind: domain.SourceReceivable, Dates: map[string]time.Time{domain.FieldDueDate: time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)}},
			regime: domain.RegimeAccrual,
			policy: domain.DatePolicyDue,
			want:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Include(tc.rec, tc.regime, tc.policy, period, rules)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIncludeCustomSettledVocabulary(t *testing.T) {
	rules := domain.DefaultRules().Merge(domain.Rules{
		domain.SourcePayable: {SettledStatuses: []string{"liquidado"}},
	})
	rec := domain.Record{Kind: domain.SourcePayable, Status: "liquidado", Dates: map[string]time.Time{domain.FieldPaidAt: day(t, "2024-03-02")}}

	assert.True(t, Include(rec, domain.RegimeCash, domain.DatePolicyDue, mustPeriod(t, "2024-03"), rules))
	rec.Status = "paid"
	assert.False(t, Include(rec, domain.RegimeCash, domain.DatePolicyDue, mustPeriod(t, "2024-03"), rules))
}
