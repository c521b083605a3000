package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/engine"
	obscontext "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/context"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/logger"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/metrics"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/tracing"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/telemetry/correlation"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Rules     *config.RulesHolder
	Readers   []domain.SourceReader
	Reference domain.ReferenceReader
	Repo      domain.ReportRepository
	Metrics   *metrics.Metrics       `optional:"true"`
	Engine    *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	rules     *config.RulesHolder
	collector *collector
	repo      domain.ReportRepository
	metrics   *metrics.Metrics
	engine    *metrics.EngineMetrics
	tracer    trace.Tracer
}

func New(p Params) domain.Service {
	rules := p.Rules
	if rules == nil {
		rules = config.NewStaticRulesHolder(nil)
	}
	engineMetrics := p.Engine
	if engineMetrics == nil {
		engineMetrics = metrics.Engine()
	}
	return &Service{
		log:       p.Log.Named("dre.service"),
		rules:     rules,
		collector: newCollector(p.Readers, p.Reference, p.Cfg.DRE.FetchTimeout),
		repo:      p.Repo,
		metrics:   p.Metrics,
		engine:    engineMetrics,
		tracer:    otel.Tracer("dre/service"),
	}
}

// ComputeReport fetches, filters and aggregates one period without persisting anything.
func (s *Service) ComputeReport(ctx context.Context, req domain.ComputeRequest) (*domain.Report, error) {
	ctx, runID := correlation.EnsureRunID(ctx)
	ctx = obscontext.WithRunID(ctx, runID)

	period, err := domain.ParsePeriod(strings.TrimSpace(req.Competence))
	if err != nil {
		return nil, err
	}
	regime := req.Regime
	if regime == "" {
		regime = req.Config.Regime
	}
	if !regime.Valid() {
		return nil, domain.ErrInvalidRegime
	}
	cfg := withDefaults(req.Config)
	cfg.Regime = regime
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dre.compute", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("competence", period.Competence),
		attribute.String("regime", string(regime)),
	)...))
	defer span.End()

	log := logger.WithReport(ctx, s.log, period.Competence, string(regime))
	started := time.Now()

	data, err := s.collector.collect(ctx, period, cfg.EnabledSources())
	if err != nil {
		s.recordFailure(ctx, span, log, regime, err, started)
		return nil, err
	}

	report, err := engine.Compute(engine.Input{
		Period:     period,
		Regime:     regime,
		Config:     cfg,
		Rules:      s.rules.Get(),
		Records:    data.Records,
		Accounts:   data.Accounts,
		Categories: data.Categories,
	})
	if err != nil {
		s.recordFailure(ctx, span, log, regime, err, started)
		return nil, err
	}

	duration := time.Since(started)
	fetched := make(map[string]int, len(report.Stats.RecordsFetched))
	for kind, count := range report.Stats.RecordsFetched {
		fetched[string(kind)] = count
	}
	s.engine.ObserveRun(string(regime), report.Stats.Lines, report.Stats.ClassificationGaps, fetched, report.NetMargin)
	s.metrics.RecordReportComputed(ctx, string(regime), "ok", duration)
	s.metrics.RecordClassificationGaps(ctx, string(regime), report.Stats.ClassificationGaps)

	span.SetAttributes(
		attribute.Int("dre.lines", report.Stats.Lines),
		attribute.Int("dre.classification_gaps", report.Stats.ClassificationGaps),
	)
	log.Info("dre_report_computed",
		zap.String("config", cfg.Name),
		zap.Int("records_included", report.Stats.RecordsIncluded),
		zap.Int("lines", report.Stats.Lines),
		zap.Int("classification_gaps", report.Stats.ClassificationGaps),
		zap.String("total_revenue", report.TotalRevenue.StringFixed(2)),
		zap.String("total_expense", report.TotalExpense.StringFixed(2)),
		zap.String("result", report.Result.StringFixed(2)),
		zap.Float64("net_margin", report.NetMargin),
		zap.Duration("duration", duration),
	)
	return report, nil
}

func (s *Service) recordFailure(ctx context.Context, span trace.Span, log *zap.Logger, regime domain.Regime, err error, started time.Time) {
	var fetchErr *domain.SourceFetchError
	if errors.As(err, &fetchErr) {
		s.engine.IncFetchFailure(string(fetchErr.Source))
		s.metrics.RecordSourceFetchFailure(ctx, string(fetchErr.Source))
	}
	s.engine.IncRunFailed(string(regime))
	s.metrics.RecordReportComputed(ctx, string(regime), "failed", time.Since(started))

	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, "compute failed")
	log.Warn("dre_report_failed", zap.Error(err))
}

func (s *Service) UpsertReport(ctx context.Context, report *domain.Report) (snowflake.ID, error) {
	return s.upsert(ctx, report, false)
}

func (s *Service) upsert(ctx context.Context, report *domain.Report, keepFinal bool) (snowflake.ID, error) {
	if report == nil {
		return 0, domain.ErrNilReport
	}
	ctx, span := s.tracer.Start(ctx, "dre.upsert", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("competence", report.Competence),
		attribute.String("regime", string(report.Regime)),
	)...))
	defer span.End()

	write := s.repo.Upsert
	if keepFinal {
		write = s.repo.UpsertDraft
	}
	id, err := write(ctx, report)
	if errors.Is(err, domain.ErrReportFinal) {
		span.SetAttributes(attribute.Bool("dre.kept_final", true))
		return 0, err
	}
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceConflict) {
			s.engine.IncConflict(string(report.Regime))
			s.metrics.RecordUpsertConflict(ctx, string(report.Regime))
		}
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "upsert failed")
		logger.WithReport(ctx, s.log, report.Competence, string(report.Regime)).Warn("dre_report_upsert_failed",
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

// GenerateReport computes and stores the report. Nothing is written when computing fails.
// With req.KeepFinal a final report is left as is and ErrReportFinal is returned.
func (s *Service) GenerateReport(ctx context.Context, req domain.ComputeRequest) (*domain.StoredReportResponse, error) {
	ctx, runID := correlation.EnsureRunID(ctx)
	ctx = obscontext.WithRunID(ctx, runID)

	report, err := s.ComputeReport(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := s.upsert(ctx, report, req.KeepFinal)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}

	logger.WithContext(ctx, s.log).Info("dre_report_stored",
		zap.String("report_id", row.ID.String()),
		zap.String("competence", row.Competence),
		zap.String("regime", string(row.Regime)),
		zap.Int64("version", row.Version),
	)
	return toResponse(row, true)
}

func (s *Service) ListStoredReports(ctx context.Context, limit int) ([]domain.StoredReportResponse, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoredReportResponse, 0, len(rows))
	for i := range rows {
		resp, err := toResponse(&rows[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *Service) GetStoredReport(ctx context.Context, id string) (*domain.StoredReportResponse, error) {
	reportID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(row, true)
}

func (s *Service) FinalizeReport(ctx context.Context, id string) (*domain.StoredReportResponse, error) {
	reportID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.Finalize(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	logger.WithContext(ctx, s.log).Info("dre_report_finalized",
		zap.String("report_id", row.ID.String()),
		zap.String("competence", row.Competence),
		zap.String("regime", string(row.Regime)),
	)
	return toResponse(row, true)
}

// withDefaults fills the unset toggles. A config without a sources map enables every source.
func withDefaults(cfg domain.ReportConfig) domain.ReportConfig {
	out := cfg.Clone()
	defaults := domain.DefaultReportConfig()
	if out.Sources == nil {
		out.Sources = defaults.Sources
	}
	if out.DatePolicy == "" {
		out.DatePolicy = defaults.DatePolicy
	}
	if out.ReportType == "" {
		out.ReportType = defaults.ReportType
	}
	if out.Name == "" {
		out.Name = defaults.Name
	}
	return out
}

func toResponse(row *domain.StoredReport, withReport bool) (*domain.StoredReportResponse, error) {
	resp := &domain.StoredReportResponse{
		ID:           row.ID.String(),
		Competence:   row.Competence,
		Regime:       row.Regime,
		Status:       row.Status,
		Version:      row.Version,
		ConfigName:   row.ConfigName,
		TotalRevenue: row.TotalRevenue,
		TotalExpense: row.TotalExpense,
		Result:       row.Result,
		NetMargin:    row.NetMargin,
		FinalizedAt:  row.FinalizedAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if !withReport || len(row.Payload) == 0 {
		return resp, nil
	}

	var report domain.Report
	if err := json.Unmarshal(row.Payload, &report); err != nil {
		return nil, err
	}
	// The row status is authoritative once a report is finalized.
	report.Status = row.Status
	resp.Report = &report
	return resp, nil
}

func parseID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, domain.ErrInvalidID
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return snowflake.ID(id), nil
}
