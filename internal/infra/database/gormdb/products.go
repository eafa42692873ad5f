package gormdb

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

func (r *Repo) loadProduct(db *gorm.DB, id domain.ProductID) (productModel, error) {
	var m productModel
	err := db.Preload("Category").First(&m, "id = ?", id).Error
	return m, err
}

func (r *Repo) CreateProduct(ctx context.Context, in domain.Product) (domain.Product, error) {
	m := fromProduct(in)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(&m).Error; err != nil {
		r.logger.Printf("CreateProduct error: %v", err)
		return domain.Product{}, mapErr(err)
	}
	out, err := r.loadProduct(db, m.ID)
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return out.toDomain(), nil
}

func (r *Repo) ProductByID(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	m, err := r.loadProduct(r.db.WithContext(ctx), id)
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return m.toDomain(), nil
}

func (r *Repo) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	page, limit := domain.Normalize(f.Page, f.Limit)

	q := r.db.WithContext(ctx).Model(&productModel{})
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(s))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}

	// отдельная сессия: Count и Find не должны делить Statement
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []productModel
	err := q.Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Product, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, int(total), nil
}

func (r *Repo) UpdateProduct(ctx context.Context, id domain.ProductID, u domain.ProductUpdate) (domain.Product, error) {
	var out productModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := updateQuery(tx, id, u)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var err error
		out, err = r.loadProduct(tx, id)
		return err
	})
	if err != nil {
		r.logger.Printf("UpdateProduct error id=%s: %v", id, err)
		return domain.Product{}, mapErr(err)
	}
	return out.toDomain(), nil
}

// updateQuery пишет только изменённые колонки: download_count не трогаем,
// иначе параллельный инкремент затирается.
func updateQuery(tx *gorm.DB, id domain.ProductID, u domain.ProductUpdate) *gorm.DB {
	var m productModel
	cols := applyUpdate(&m, u)
	m.UpdatedAt = time.Now().UTC()
	return tx.Model(&productModel{}).
		Where("id = ?", id).
		Select(append(cols, "updated_at")).
		Updates(&m)
}

func applyUpdate(m *productModel, u domain.ProductUpdate) []string {
	var cols []string
	if u.Name != nil {
		m.Name = *u.Name
		cols = append(cols, "name")
	}
	if u.FileType != nil {
		m.FileType = *u.FileType
		cols = append(cols, "file_type")
	}
	if u.CategoryID != nil {
		m.CategoryID = *u.CategoryID
		cols = append(cols, "category_id")
	}
	if u.FileSize != nil {
		m.FileSize = *u.FileSize
		cols = append(cols, "file_size")
	}
	if u.Thumbnail != nil {
		m.Thumbnail = *u.Thumbnail
		cols = append(cols, "thumbnail")
	}
	if u.Media != nil {
		m.Media = append([]string(nil), u.Media...)
		cols = append(cols, "media")
	}
	if u.File != nil {
		if *u.File != "" {
			f := *u.File
			m.File = &f
		}
		cols = append(cols, "file")
	}
	return cols
}

func (r *Repo) DeleteProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var out productModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if out, err = r.loadProduct(tx, id); err != nil {
			return err
		}
		return tx.Delete(&productModel{}, "id = ?", id).Error
	})
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return out.toDomain(), nil
}

// IncrementDownloadCount: download_count = download_count + 1 одним UPDATE.
func (r *Repo) IncrementDownloadCount(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	db := r.db.WithContext(ctx)
	res := incrementQuery(db, id)
	if res.Error != nil {
		return domain.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	m, err := r.loadProduct(db, id)
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return m.toDomain(), nil
}

func incrementQuery(db *gorm.DB, id domain.ProductID) *gorm.DB {
	return db.Model(&productModel{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
}

func (r *Repo) CountProductsByCategory(ctx context.Context, id domain.CategoryID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&productModel{}).Where("category_id = ?", id).Count(&n).Error
	return int(n), err
}
