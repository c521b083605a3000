package domain

import (
	"context"

	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db/pagination"
)

type CreateProfileRequest struct {
	Name                string                        `json:"name"`
	Regime              dredomain.Regime              `json:"regime"`
	DateReferencePolicy dredomain.DatePolicy          `json:"date_reference_policy"`
	ReportType          dredomain.ReportType          `json:"report_type"`
	PerSourceEnabled    map[dredomain.SourceKind]bool `json:"per_source_enabled"`
	IsDefault           bool                          `json:"is_default"`
}

// UpdateProfileRequest carries optional fields; nil leaves the stored value.
type UpdateProfileRequest struct {
	Name                *string                       `json:"name"`
	Regime              *dredomain.Regime             `json:"regime"`
	DateReferencePolicy *dredomain.DatePolicy         `json:"date_reference_policy"`
	ReportType          *dredomain.ReportType         `json:"report_type"`
	PerSourceEnabled    map[dredomain.SourceKind]bool `json:"per_source_enabled"`
}

type ListProfileRequest struct {
	pagination.Pagination
}

type ListProfileResponse struct {
	pagination.PageInfo
	Profiles []ReportProfile `json:"profiles"`
}

type Service interface {
	Create(ctx context.Context, req CreateProfileRequest) (ReportProfile, error)
	List(ctx context.Context, req ListProfileRequest) (ListProfileResponse, error)
	Get(ctx context.Context, id string) (ReportProfile, error)
	Update(ctx context.Context, id string, req UpdateProfileRequest) (ReportProfile, error)
	Delete(ctx context.Context, id string) error
	SetDefault(ctx context.Context, id string) (ReportProfile, error)
	// GetDefault returns the default profile's config, or the built-in default when none is flagged.
	GetDefault(ctx context.Context) (dredomain.ReportConfig, error)
}
