package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	obscontext "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/context"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithRunID(ctx, "run-1")
	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "run-1", fields["run_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestWithReportTagsKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	ctx := obscontext.WithRunID(context.Background(), "run-2")
	WithReport(ctx, zap.New(core), "2024-03", "cash").Info("computed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "2024-03", fields["competence"])
	assert.Equal(t, "cash", fields["regime"])
	assert.Equal(t, "run-2", fields["run_id"])
	assert.Nil(t, WithReport(ctx, nil, "2024-03", "cash"))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(GormLoggerConfig{
		Base:          zap.New(core),
		Level:         gormlogger.Warn,
		SlowThreshold: time.Millisecond,
	})

	fc := func() (string, int64) { return "UPDATE dre_reports SET version = 2", 1 }
	gl.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	gl.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("ignored"))

	gl.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	assert.Equal(t, "UPDATE", logs.All()[0].ContextMap()["operation"])
	assert.Equal(t, "dre_reports", logs.All()[0].ContextMap()["table"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, true, logs.All()[1].ContextMap()["slow"])
}

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{`SELECT * FROM "receivables" WHERE due_date >= $1`, "SELECT", "receivables"},
		{"INSERT INTO `dre_reports` (`id`) VALUES (?)", "INSERT", "dre_reports"},
		{"UPDATE report_profiles SET is_default = false", "UPDATE", "report_profiles"},
		{"DELETE FROM report_profiles WHERE id = 1", "DELETE", "report_profiles"},
		{"", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}
