package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/domain"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/db/option"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/pkg/repository"
)

type repo struct {
	db    *gorm.DB
	store repository.Repository[domain.ReportProfile]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db, store: repository.ProvideStore[domain.ReportProfile](db)}
}

func (r *repo) WithTrx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx, store: r.store.WithTrx(tx)}
}

func (r *repo) Insert(ctx context.Context, profile *domain.ReportProfile) error {
	return r.store.Create(ctx, profile)
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.ReportProfile, error) {
	return r.store.FindOne(ctx, nil, option.Where("id = ?", id))
}

func (r *repo) FindDefault(ctx context.Context) (*domain.ReportProfile, error) {
	return r.store.FindOne(ctx, nil,
		option.Where("is_default = ?", true),
		option.OrderBy("updated_at", "desc"),
	)
}

func (r *repo) List(ctx context.Context, cursor *domain.PageCursor, limit int) ([]*domain.ReportProfile, error) {
	opts := []option.QueryOption{
		option.OrderBy("created_at", "desc"),
		option.OrderBy("id", "desc"),
		option.Limit(limit),
	}
	if cursor != nil {
		opts = append(opts, option.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		))
	}
	return r.store.Find(ctx, nil, opts...)
}

func (r *repo) Update(ctx context.Context, id snowflake.ID, fields map[string]any) (int64, error) {
	return r.store.Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) (int64, error) {
	return r.store.Delete(ctx, id)
}

func (r *repo) ClearDefaults(ctx context.Context, keep snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.ReportProfile{}).
		Where("is_default = ? AND id <> ?", true, keep).
		Update("is_default", false).Error
}

func (r *repo) CodeTaken(ctx context.Context, code string, self snowflake.ID) (bool, error) {
	item, err := r.store.FindOne(ctx, nil, option.Where("code = ? AND id <> ?", code, self))
	if err != nil {
		return false, err
	}
	return item != nil, nil
}
