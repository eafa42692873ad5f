package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type ProductID = uuid.UUID
type CategoryID = uuid.UUID
type UserID = uuid.UUID

// Значение fileType по умолчанию (как в исходной схеме)
const DefaultFileType = "image"

// Категория каталога
type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Краткая форма категории, подставляется в продукт при чтении
type CategorySummary struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

// Продукт и принадлежащие ему ссылки на объекты в хранилище.
// Thumbnail/Media/File — непрозрачные строки, структура извлекается ParseAssetRef.
type Product struct {
	ID            ProductID       `json:"id"`
	Name          string          `json:"name"`
	Thumbnail     string          `json:"thumbnail"`
	Media         []string        `json:"media"`
	File          string          `json:"file,omitempty"`
	FileType      string          `json:"fileType"`
	Category      CategorySummary `json:"category"`
	FileSize      float64         `json:"fileSize"`
	DownloadCount int64           `json:"downloadCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// AssetRefs возвращает все ссылки продукта: thumbnail, media по порядку, file (если есть).
func (p Product) AssetRefs() []string {
	refs := make([]string, 0, len(p.Media)+2)
	if p.Thumbnail != "" {
		refs = append(refs, p.Thumbnail)
	}
	refs = append(refs, p.Media...)
	if p.File != "" {
		refs = append(refs, p.File)
	}
	return refs
}

// Страница списка
type Page[T any] struct {
	Items       []T `json:"items"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}
