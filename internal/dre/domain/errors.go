package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidRegime       = errors.New("invalid_regime")
	ErrInvalidDatePolicy   = errors.New("invalid_date_policy")
	ErrInvalidReportType   = errors.New("invalid_report_type")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrPersistenceConflict = errors.New("persistence_conflict")
	ErrSourceFetch         = errors.New("source_fetch_failed")
	ErrNilReport           = errors.New("nil_report")
	ErrReportFinal         = errors.New("report_final")
)

// SourceFetchError reports that an enabled source could not be loaded.
// The whole run is aborted and nothing is persisted.
type SourceFetchError struct {
	Source SourceKind
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceFetch.Error(), e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// Is lets callers match any fetch failure with errors.Is(err, ErrSourceFetch).
func (e *SourceFetchError) Is(target error) bool {
	return target == ErrSourceFetch
}
