package gormdb

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

type categoryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:50;not null;uniqueIndex"`
	Description string    `gorm:"size:200;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (categoryModel) TableName() string { return "categories" }

func (m *categoryModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type productModel struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Name          string        `gorm:"size:100;not null"`
	Thumbnail     string        `gorm:"not null"`
	Media         []string      `gorm:"serializer:json;type:text;not null"`
	File          *string       `gorm:"type:text"`
	FileType      string        `gorm:"not null;default:image"`
	CategoryID    uuid.UUID     `gorm:"type:uuid;not null;index:products_category_name_idx,priority:1"`
	Category      categoryModel `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	FileSize      float64       `gorm:"not null"`
	DownloadCount int64         `gorm:"not null;default:0"`
	CreatedAt     time.Time     `gorm:"index"`
	UpdatedAt     time.Time
}

func (productModel) TableName() string { return "products" }

func (m *productModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func fromProduct(p domain.Product) productModel {
	m := productModel{
		ID:            p.ID,
		Name:          p.Name,
		Thumbnail:     p.Thumbnail,
		Media:         append([]string(nil), p.Media...),
		FileType:      p.FileType,
		CategoryID:    p.Category.ID,
		FileSize:      p.FileSize,
		DownloadCount: p.DownloadCount,
		CreatedAt:     p.CreatedAt,
	}
	if p.File != "" {
		f := p.File
		m.File = &f
	}
	return m
}

func (m productModel) toDomain() domain.Product {
	p := domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		Thumbnail:     m.Thumbnail,
		Media:         m.Media,
		FileType:      m.FileType,
		Category:      domain.CategorySummary{ID: m.CategoryID, Name: m.Category.Name},
		FileSize:      m.FileSize,
		DownloadCount: m.DownloadCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.File != nil {
		p.File = *m.File
	}
	if p.Media == nil {
		p.Media = []string{}
	}
	return p
}

func (m categoryModel) toDomain() domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
