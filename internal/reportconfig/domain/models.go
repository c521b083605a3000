package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

// ReportProfile is a named, stored ReportConfig.
type ReportProfile struct {
	ID                  snowflake.ID                                      `gorm:"primaryKey" json:"id"`
	Code                string                                            `gorm:"type:text;not null;uniqueIndex:ux_report_profiles_code" json:"code"`
	Name                string                                            `gorm:"type:text;not null" json:"name"`
	Regime              dredomain.Regime                                  `gorm:"type:text" json:"regime,omitempty"`
	DateReferencePolicy dredomain.DatePolicy                              `gorm:"type:text;not null;default:due" json:"date_reference_policy"`
	ReportType          dredomain.ReportType                              `gorm:"type:text;not null;default:detailed" json:"report_type"`
	PerSourceEnabled    datatypes.JSONType[map[dredomain.SourceKind]bool] `gorm:"type:jsonb;not null" json:"per_source_enabled"`
	IsDefault           bool                                              `gorm:"not null;default:false" json:"is_default"`
	CreatedAt           time.Time                                         `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time                                         `gorm:"not null" json:"updated_at"`
}

func (ReportProfile) TableName() string { return "report_profiles" }

// Config returns the engine configuration this profile stands for.
func (p ReportProfile) Config() dredomain.ReportConfig {
	cfg := dredomain.ReportConfig{
		Name:       p.Code,
		Regime:     p.Regime,
		DatePolicy: p.DateReferencePolicy,
		ReportType: p.ReportType,
		Sources:    map[dredomain.SourceKind]bool{},
		IsDefault:  p.IsDefault,
	}
	for kind, enabled := range p.PerSourceEnabled.Data() {
		cfg.Sources[kind] = enabled
	}
	return cfg
}
