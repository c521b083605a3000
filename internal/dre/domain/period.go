package domain

import (
	"strings"
	"time"
)

const competenceLayout = "2006-01"

// Period is the competence month a report is computed for.
type Period struct {
	Competence string    `json:"competence"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ParsePeriod parses a "YYYY-MM" competence string.
func ParsePeriod(competence string) (Period, error) {
	value := strings.TrimSpace(competence)
	if len(value) != len(competenceLayout) {
		return Period{}, ErrInvalidPeriod
	}
	start, err := time.ParseInLocation(competenceLayout, value, time.UTC)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	if start.Year() < 1900 {
		return Period{}, ErrInvalidPeriod
	}
	return periodFromStart(start), nil
}

// PeriodOf returns the competence month containing t.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return periodFromStart(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

func periodFromStart(start time.Time) Period {
	return Period{
		Competence: start.Format(competenceLayout),
		Start:      start,
		End:        start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

// Contains reports whether the UTC calendar day of t falls within the period.
// Offsets are not kept: 2024-02-29T22:00-03:00 belongs to March.
func (p Period) Contains(t time.Time) bool {
	if p.Start.IsZero() {
		return false
	}
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.Start) && !day.After(p.End)
}

// Previous returns the competence month before p.
func (p Period) Previous() Period {
	return periodFromStart(p.Start.AddDate(0, -1, 0))
}

// NormalizeCompetence turns a stored competence value into a date.
// "YYYY-MM" maps to the first day of that month; full dates are accepted as-is.
func NormalizeCompetence(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{competenceLayout, "2006-01-02", time.RFC3339} {
		if len(layout) != len(value) && layout != time.RFC3339 {
			continue
		}
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
