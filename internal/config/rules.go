package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// RulesHolder keeps the current engine rules, reloaded when the rules file changes.
type RulesHolder struct {
	current atomic.Value // holds domain.Rules
}

// NewStaticRulesHolder returns a holder that never reloads.
func NewStaticRulesHolder(rules domain.Rules) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(domain.DefaultRules().Merge(rules))
	return holder
}

func NewRulesHolder(cfg Config, log *zap.Logger) (*RulesHolder, error) {
	log = log.Named("config.rules")
	v := viper.New()

	if cfg.DRE.RulesPath != "" {
		v.SetConfigFile(cfg.DRE.RulesPath)
	} else {
		v.SetConfigName("dre")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/dre")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	rules, err := decodeRules(v)
	if err != nil {
		return nil, err
	}

	holder := &RulesHolder{}
	holder.current.Store(rules)
	if !found {
		log.Info("rules file not found, using defaults")
		return holder, nil
	}
	log.Info("rules loaded", zap.String("file", v.ConfigFileUsed()))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRules(v)
		if err != nil {
			log.Warn("rules reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("rules reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RulesHolder) Get() domain.Rules {
	return h.current.Load().(domain.Rules)
}

func decodeRules(v *viper.Viper) (domain.Rules, error) {
	raw := map[string]domain.SourceRule{}
	if v.IsSet("dre.sources") {
		if err := v.UnmarshalKey("dre.sources", &raw); err != nil {
			return nil, err
		}
	}
	overlay := make(domain.Rules, len(raw))
	for key, rule := range raw {
		kind := domain.SourceKind(strings.ToLower(strings.TrimSpace(key)))
		if !kind.Valid() {
			return nil, fmt.Errorf("dre.sources: unknown source %q", key)
		}
		if rule.Side != "" && rule.Side != domain.SideRevenue && rule.Side != domain.SideExpense {
			return nil, fmt.Errorf("dre.sources.%s: invalid side %q", key, rule.Side)
		}
		overlay[kind] = rule
	}
	return domain.DefaultRules().Merge(overlay), nil
}
