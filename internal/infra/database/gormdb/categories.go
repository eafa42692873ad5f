package gormdb

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

func (r *Repo) CreateCategory(ctx context.Context, in domain.Category) (domain.Category, error) {
	m := categoryModel{ID: in.ID, Name: in.Name, Description: in.Description}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		r.logger.Printf("CreateCategory error: %v", err)
		return domain.Category{}, mapErr(err)
	}
	return m.toDomain(), nil
}

func (r *Repo) CategoryByID(ctx context.Context, id domain.CategoryID) (domain.Category, error) {
	var m categoryModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.Category{}, mapErr(err)
	}
	return m.toDomain(), nil
}

func (r *Repo) ListCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, int, error) {
	page, limit := domain.Normalize(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&categoryModel{})
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(s))
	}

	// отдельная сессия: Count и Find не должны делить Statement
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []categoryModel
	if err := q.Order("name ASC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, int(total), nil
}

func (r *Repo) UpdateCategory(ctx context.Context, id domain.CategoryID, u domain.CategoryUpdate) (domain.Category, error) {
	var out categoryModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if u.Name != nil {
			out.Name = *u.Name
		}
		if u.Description != nil {
			out.Description = *u.Description
		}
		return tx.Save(&out).Error
	})
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	return out.toDomain(), nil
}

// DeleteCategory повторяет ON DELETE RESTRICT: sqlite без PRAGMA foreign_keys его не проверяет.
func (r *Repo) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&productModel{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict
		}
		res := tx.Delete(&categoryModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapErr(err)
}
