package scheduler

import (
	"strings"
	"time"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/config"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// Config controls the recomputation loop.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	JobTimeout  time.Duration
	Regimes     []domain.Regime
	// PreviousMonthDays keeps refreshing the previous competence during the
	// first days of a month, while late settlements still arrive.
	PreviousMonthDays int
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       15 * time.Minute,
		JobTimeout:        2 * time.Minute,
		Regimes:           []domain.Regime{domain.RegimeAccrual, domain.RegimeCash},
		PreviousMonthDays: 5,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if len(c.Regimes) == 0 {
		c.Regimes = defaults.Regimes
	}
	if c.PreviousMonthDays < 0 {
		c.PreviousMonthDays = 0
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	out.Enabled = cfg.Scheduler.Enabled
	if cfg.Scheduler.Interval > 0 {
		out.RunInterval = cfg.Scheduler.Interval
	}
	regimes := make([]domain.Regime, 0, len(cfg.Scheduler.Regimes))
	seen := map[domain.Regime]bool{}
	for _, raw := range cfg.Scheduler.Regimes {
		regime := domain.Regime(strings.ToLower(strings.TrimSpace(raw)))
		if !regime.Valid() || seen[regime] {
			continue
		}
		seen[regime] = true
		regimes = append(regimes, regime)
	}
	if len(regimes) > 0 {
		out.Regimes = regimes
	}
	return out.withDefaults()
}
