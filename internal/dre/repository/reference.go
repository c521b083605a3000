package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

type referenceRepo struct {
	db *gorm.DB
}

func NewReferenceReader(db *gorm.DB) domain.ReferenceReader {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) ListChartOfAccounts(ctx context.Context) ([]domain.ChartOfAccount, error) {
	var rows []ChartOfAccountRow
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ChartOfAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ChartOfAccount{
			ID:         row.ID,
			Code:       row.Code,
			Name:       row.Name,
			CategoryID: row.CategoryID,
			Kind:       domain.Side(row.Kind),
		})
	}
	return out, nil
}

func (r *referenceRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []CategoryRow
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Category{ID: row.ID, Name: row.Name, Kind: domain.Side(row.Kind)})
	}
	return out, nil
}
