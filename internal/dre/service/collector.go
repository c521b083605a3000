package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/observability/tracing"
)

const (
	referenceAccounts   domain.SourceKind = "chart_of_accounts"
	referenceCategories domain.SourceKind = "account_categories"
)

var errNoReader = errors.New("no reader registered")

// collected is everything the engine needs for one period.
type collected struct {
	Records    map[domain.SourceKind][]domain.Record
	Accounts   []domain.ChartOfAccount
	Categories []domain.Category
}

// collector fetches the enabled sources and the reference data concurrently.
// The first failure cancels the rest and the run is aborted.
type collector struct {
	readers   map[domain.SourceKind]domain.SourceReader
	reference domain.ReferenceReader
	timeout   time.Duration
	tracer    trace.Tracer
}

func newCollector(readers []domain.SourceReader, reference domain.ReferenceReader, timeout time.Duration) *collector {
	byKind := make(map[domain.SourceKind]domain.SourceReader, len(readers))
	for _, r := range readers {
		if r == nil {
			continue
		}
		byKind[r.Kind()] = r
	}
	return &collector{
		readers:   byKind,
		reference: reference,
		timeout:   timeout,
		tracer:    otel.Tracer("dre/collector"),
	}
}

// fetch runs one source read inside its own span.
func (c *collector) fetch(ctx context.Context, kind domain.SourceKind, fn func(ctx context.Context) (int, error)) error {
	ctx, span := c.tracer.Start(ctx, "dre.fetch", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("dre.source", string(kind)),
	)...))
	defer span.End()

	count, err := fn(ctx)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "fetch failed")
		return &domain.SourceFetchError{Source: kind, Err: err}
	}
	span.SetAttributes(attribute.Int("dre.records", count))
	return nil
}

func (c *collector) collect(ctx context.Context, period domain.Period, sources []domain.SourceKind) (*collected, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := &collected{Records: make(map[domain.SourceKind][]domain.Record, len(sources))}
	var mu sync.Mutex

	for _, kind := range sources {
		if _, ok := c.readers[kind]; !ok {
			return nil, &domain.SourceFetchError{Source: kind, Err: errNoReader}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range sources {
		reader := c.readers[kind]
		g.Go(func() error {
			return c.fetch(gctx, kind, func(ctx context.Context) (int, error) {
				records, err := reader.ListRecords(ctx, period)
				if err != nil {
					return 0, err
				}
				mu.Lock()
				out.Records[kind] = records
				mu.Unlock()
				return len(records), nil
			})
		})
	}

	if c.reference != nil {
		g.Go(func() error {
			return c.fetch(gctx, referenceAccounts, func(ctx context.Context) (int, error) {
				accounts, err := c.reference.ListChartOfAccounts(ctx)
				if err != nil {
					return 0, err
				}
				mu.Lock()
				out.Accounts = accounts
				mu.Unlock()
				return len(accounts), nil
			})
		})
		g.Go(func() error {
			return c.fetch(gctx, referenceCategories, func(ctx context.Context) (int, error) {
				categories, err := c.reference.ListCategories(ctx)
				if err != nil {
					return 0, err
				}
				mu.Lock()
				out.Categories = categories
				mu.Unlock()
				return len(categories), nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
