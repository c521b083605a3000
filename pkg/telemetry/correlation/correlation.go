// Package correlation carries the run id that ties the log lines, spans and
// stored report of one computation together.
package correlation

import (
	"context"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// Header lets callers supply their own run id over HTTP.
const Header = "X-Correlation-ID"

const maxIDLength = 128

type runIDKey struct{}

func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(runIDKey{}).(string); ok {
		return val
	}
	return ""
}

// WithRunID stores id on ctx. Ids that fail Valid are ignored.
func WithRunID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if !Valid(id) {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// EnsureRunID keeps an existing run id and otherwise mints a ULID.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := ulid.Make().String()
	return context.WithValue(ctx, runIDKey{}, id), id
}

// Valid accepts short printable ids without whitespace so foreign values
// cannot break log lines.
func Valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
