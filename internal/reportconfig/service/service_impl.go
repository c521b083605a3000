package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/clock"
	dredomain "github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reportconfig.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProfileRequest) (domain.ReportProfile, error) {
	name := strings.TrimSpace(req.Name)
	code := slug.Make(name)
	if name == "" || code == "" {
		return domain.ReportProfile{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	profile := domain.ReportProfile{
		ID:                  s.genID.Generate(),
		Code:                code,
		Name:                name,
		Regime:              req.Regime,
		DateReferencePolicy: req.DateReferencePolicy,
		ReportType:          req.ReportType,
		PerSourceEnabled:    datatypes.NewJSONType(normalizeSources(req.PerSourceEnabled)),
		IsDefault:           req.IsDefault,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if profile.DateReferencePolicy == "" {
		profile.DateReferencePolicy = dredomain.DatePolicyDue
	}
	if profile.ReportType == "" {
		profile.ReportType = dredomain.ReportTypeDetailed
	}
	if err := profile.Config().Validate(); err != nil {
		return domain.ReportProfile{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		if profile.IsDefault {
			if err := repo.ClearDefaults(ctx, profile.ID); err != nil {
				return err
			}
		}
		return repo.Insert(ctx, &profile)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ReportProfile{}, s.duplicateErr(ctx, profile.Code, profile.ID)
		}
		return domain.ReportProfile{}, err
	}

	s.log.Info("report profile created",
		zap.String("profile_id", profile.ID.String()),
		zap.String("code", profile.Code),
		zap.Bool("is_default", profile.IsDefault),
	)
	return profile, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProfileRequest) (domain.ListProfileResponse, error) {
	limit := req.Size()

	var cursor *domain.PageCursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListProfileResponse{}, err
		}
		createdAt, err := decoded.Time()
		if err != nil {
			return domain.ListProfileResponse{}, err
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return domain.ListProfileResponse{}, pagination.ErrInvalidCursor
		}
		cursor = &domain.PageCursor{CreatedAt: createdAt, ID: id}
	}

	items, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return domain.ListProfileResponse{}, err
	}

	items, pageInfo, err := pagination.BuildCursorPageInfo(items, limit, func(p *domain.ReportProfile) pagination.Cursor {
		return pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListProfileResponse{}, err
	}

	profiles := make([]domain.ReportProfile, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		profiles = append(profiles, *item)
	}
	return domain.ListProfileResponse{PageInfo: pageInfo, Profiles: profiles}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.ReportProfile, error) {
	profileID, err := s.parseID(id)
	if err != nil {
		return domain.ReportProfile{}, err
	}
	item, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		return domain.ReportProfile{}, err
	}
	if item == nil {
		return domain.ReportProfile{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateProfileRequest) (domain.ReportProfile, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.ReportProfile{}, err
	}

	fields := map[string]any{}
	next := current
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		code := slug.Make(name)
		if name == "" || code == "" {
			return domain.ReportProfile{}, domain.ErrInvalidName
		}
		next.Name, next.Code = name, code
		fields["name"], fields["code"] = name, code
	}
	if req.Regime != nil {
		next.Regime = *req.Regime
		fields["regime"] = next.Regime
	}
	if req.DateReferencePolicy != nil {
		next.DateReferencePolicy = *req.DateReferencePolicy
		fields["date_reference_policy"] = next.DateReferencePolicy
	}
	if req.ReportType != nil {
		next.ReportType = *req.ReportType
		fields["report_type"] = next.ReportType
	}
	if req.PerSourceEnabled != nil {
		next.PerSourceEnabled = datatypes.NewJSONType(normalizeSources(req.PerSourceEnabled))
		fields["per_source_enabled"] = next.PerSourceEnabled
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := next.Config().Validate(); err != nil {
		return domain.ReportProfile{}, err
	}

	next.UpdatedAt = s.clock.Now()
	fields["updated_at"] = next.UpdatedAt

	rows, err := s.repo.Update(ctx, current.ID, fields)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ReportProfile{}, s.duplicateErr(ctx, next.Code, current.ID)
		}
		return domain.ReportProfile{}, err
	}
	if rows == 0 {
		return domain.ReportProfile{}, domain.ErrNotFound
	}
	return next, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	profileID, err := s.parseID(id)
	if err != nil {
		return err
	}
	rows, err := s.repo.Delete(ctx, profileID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	s.log.Info("report profile deleted", zap.String("profile_id", profileID.String()))
	return nil
}

// SetDefault flags the profile as default and unflags every other one in the same transaction.
func (s *Service) SetDefault(ctx context.Context, id string) (domain.ReportProfile, error) {
	profileID, err := s.parseID(id)
	if err != nil {
		return domain.ReportProfile{}, err
	}

	var updated domain.ReportProfile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		item, err := repo.FindByID(ctx, profileID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := repo.ClearDefaults(ctx, profileID); err != nil {
			return err
		}
		now := s.clock.Now()
		if _, err := repo.Update(ctx, profileID, map[string]any{
			"is_default": true,
			"updated_at": now,
		}); err != nil {
			return err
		}
		item.IsDefault = true
		item.UpdatedAt = now
		updated = *item
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ReportProfile{}, domain.ErrDefaultConflict
		}
		return domain.ReportProfile{}, err
	}

	s.log.Info("default report profile changed", zap.String("profile_id", profileID.String()))
	return updated, nil
}

func (s *Service) GetDefault(ctx context.Context) (dredomain.ReportConfig, error) {
	item, err := s.repo.FindDefault(ctx)
	if err != nil {
		return dredomain.ReportConfig{}, err
	}
	if item == nil {
		return dredomain.DefaultReportConfig(), nil
	}
	return item.Config(), nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
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

// normalizeSources keeps only known source kinds. An empty map enables every source.
func normalizeSources(in map[dredomain.SourceKind]bool) map[dredomain.SourceKind]bool {
	out := make(map[dredomain.SourceKind]bool, len(dredomain.SourceKinds))
	if len(in) == 0 {
		for _, kind := range dredomain.SourceKinds {
			out[kind] = true
		}
		return out
	}
	for _, kind := range dredomain.SourceKinds {
		out[kind] = in[kind]
	}
	return out
}

// duplicateErr tells the two unique indexes apart. Translated driver errors
// drop the constraint name, so the code index is checked directly; any other
// violation comes from the single-default index.
func (s *Service) duplicateErr(ctx context.Context, code string, self snowflake.ID) error {
	taken, err := s.repo.CodeTaken(ctx, code, self)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrCodeTaken
	}
	return domain.ErrDefaultConflict
}
