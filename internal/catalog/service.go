// Package catalog — жизненный цикл продуктов и их файлов, категории и выдача скачиваний.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

// Payload — один присланный файл
type Payload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Payloads — файлы запроса, разложенные по полям продукта
type Payloads struct {
	Thumbnail []Payload
	Media     []Payload
	File      []Payload
}

func (p Payloads) Empty() bool {
	return len(p.Thumbnail) == 0 && len(p.Media) == 0 && len(p.File) == 0
}

// при создании: ровно один thumbnail, 1..4 media, не больше одного file
func (p Payloads) validateForCreate() error {
	if len(p.Thumbnail) != 1 {
		return fmt.Errorf("%w: exactly one thumbnail is required", domain.ErrMissingAsset)
	}
	if len(p.Media) == 0 {
		return fmt.Errorf("%w: at least one media file is required", domain.ErrMissingAsset)
	}
	return p.validateForUpdate()
}

func (p Payloads) validateForUpdate() error {
	if len(p.Thumbnail) > 1 {
		return fmt.Errorf("%w: at most one thumbnail is allowed", domain.ErrMissingAsset)
	}
	if len(p.Media) > domain.MaxMediaPerProduct {
		return fmt.Errorf("%w: at most %d media files are allowed", domain.ErrMissingAsset, domain.MaxMediaPerProduct)
	}
	if len(p.File) > 1 {
		return fmt.Errorf("%w: at most one file is allowed", domain.ErrMissingAsset)
	}
	return nil
}

type Service struct {
	Products   domain.ProductsRepo
	Categories domain.CategoriesRepo
	Gateway    domain.AssetGateway
	Reclaimer  Reclaimer
	Log        *log.Logger
}

func (s *Service) upload(ctx context.Context, p Payload) (string, error) {
	obj, err := s.Gateway.Upload(ctx, domain.UploadRequest{
		Body:        p.Body,
		Filename:    p.Filename,
		ContentType: p.ContentType,
		Size:        p.Size,
		Folder:      domain.ProductsFolder,
	})
	if err != nil {
		return "", err
	}
	return obj.Reference, nil
}

// uploadAll загружает файлы по порядку. При ошибке возвращает ссылки, которые уже успели загрузиться.
func (s *Service) uploadAll(ctx context.Context, ps []Payload) ([]string, error) {
	refs := make([]string, 0, len(ps))
	for _, p := range ps {
		ref, err := s.upload(ctx, p)
		if err != nil {
			return refs, fmt.Errorf("upload %q: %w", p.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// отсутствующая категория даёт ErrInvalidReference
func (s *Service) ensureCategory(ctx context.Context, id domain.CategoryID) error {
	_, err := s.Categories.CategoryByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: category %s does not exist", domain.ErrInvalidReference, id)
	}
	return err
}

func (s *Service) reclaim(ctx context.Context, refs ...string) {
	if len(refs) == 0 || s.Reclaimer == nil {
		return
	}
	s.Reclaimer.Reclaim(ctx, refs...)
}
