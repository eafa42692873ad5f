package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

type CreateProductInput struct {
	Name       string
	FileType   string
	CategoryID domain.CategoryID
	FileSize   float64
}

// ProductPatch — изменяемые скалярные поля; nil означает "не менять".
type ProductPatch struct {
	Name       *string
	FileType   *string
	CategoryID *domain.CategoryID
	FileSize   *float64
	ClearFile  bool
}

// CreateProduct проверяет категорию и набор файлов, загружает файлы
// (thumbnail, media по порядку, file) и сохраняет продукт.
// Любая ошибка после проверок оборачивается в ErrCreateFailed.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput, files Payloads) (domain.Product, error) {
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, domain.ErrInvalidReference) {
			return domain.Product{}, err
		}
		return domain.Product{}, errors.Join(domain.ErrCreateFailed, err)
	}
	if err := files.validateForCreate(); err != nil {
		return domain.Product{}, err
	}

	name, err := domain.NormalizeProductName(in.Name)
	if err != nil {
		return domain.Product{}, errors.Join(domain.ErrCreateFailed, err)
	}
	if err := domain.ValidateFileSize(in.FileSize); err != nil {
		return domain.Product{}, errors.Join(domain.ErrCreateFailed, err)
	}

	var uploaded []string
	fail := func(cause error) (domain.Product, error) {
		s.reclaim(ctx, uploaded...)
		s.Log.Printf("create product %q failed, reclaiming %d uploaded: %v", name, len(uploaded), cause)
		return domain.Product{}, errors.Join(domain.ErrCreateFailed, cause)
	}

	thumb, err := s.upload(ctx, files.Thumbnail[0])
	if err != nil {
		return fail(fmt.Errorf("upload thumbnail: %w", err))
	}
	uploaded = append(uploaded, thumb)

	media, err := s.uploadAll(ctx, files.Media)
	uploaded = append(uploaded, media...)
	if err != nil {
		return fail(err)
	}

	var file string
	if len(files.File) == 1 {
		if file, err = s.upload(ctx, files.File[0]); err != nil {
			return fail(fmt.Errorf("upload file: %w", err))
		}
		uploaded = append(uploaded, file)
	}

	p, err := s.Products.CreateProduct(ctx, domain.Product{
		Name:      name,
		Thumbnail: thumb,
		Media:     media,
		File:      file,
		FileType:  domain.NormalizeFileType(in.FileType),
		Category:  domain.CategorySummary{ID: in.CategoryID},
		FileSize:  in.FileSize,
	})
	if err != nil {
		return fail(fmt.Errorf("persist: %w", err))
	}
	s.Log.Printf("product created id=%s name=%q media=%d file=%t", p.ID, p.Name, len(p.Media), p.File != "")
	return p, nil
}

// UpdateProduct применяет патч и новые файлы. Заменённые ссылки отправляются
// на удаление только после успешного обновления записи.
func (s *Service) UpdateProduct(ctx context.Context, id domain.ProductID, patch ProductPatch, files Payloads) (domain.Product, error) {
	if patch.CategoryID != nil {
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}
	if err := files.validateForUpdate(); err != nil {
		return domain.Product{}, err
	}

	upd := domain.ProductUpdate{CategoryID: patch.CategoryID}
	if patch.Name != nil {
		name, err := domain.NormalizeProductName(*patch.Name)
		if err != nil {
			return domain.Product{}, err
		}
		upd.Name = &name
	}
	if patch.FileType != nil {
		ft := domain.NormalizeFileType(*patch.FileType)
		upd.FileType = &ft
	}
	if patch.FileSize != nil {
		if err := domain.ValidateFileSize(*patch.FileSize); err != nil {
			return domain.Product{}, err
		}
		upd.FileSize = patch.FileSize
	}

	// текущая запись нужна, чтобы знать, какие ссылки заменяются
	var current domain.Product
	needCurrent := !files.Empty() || patch.ClearFile
	if needCurrent {
		var err error
		if current, err = s.Products.ProductByID(ctx, id); err != nil {
			return domain.Product{}, err
		}
	}

	var uploaded, superseded []string
	if len(files.Thumbnail) == 1 {
		ref, err := s.upload(ctx, files.Thumbnail[0])
		if err != nil {
			s.reclaim(ctx, uploaded...)
			return domain.Product{}, fmt.Errorf("upload thumbnail: %w", err)
		}
		uploaded = append(uploaded, ref)
		upd.Thumbnail = &ref
		superseded = append(superseded, current.Thumbnail)
	}
	if len(files.Media) > 0 {
		refs, err := s.uploadAll(ctx, files.Media)
		uploaded = append(uploaded, refs...)
		if err != nil {
			s.reclaim(ctx, uploaded...)
			return domain.Product{}, err
		}
		upd.Media = refs
		superseded = append(superseded, current.Media...)
	}
	switch {
	case len(files.File) == 1:
		ref, err := s.upload(ctx, files.File[0])
		if err != nil {
			s.reclaim(ctx, uploaded...)
			return domain.Product{}, fmt.Errorf("upload file: %w", err)
		}
		uploaded = append(uploaded, ref)
		upd.File = &ref
		superseded = append(superseded, current.File)
	case patch.ClearFile:
		empty := ""
		upd.File = &empty
		superseded = append(superseded, current.File)
	}

	p, err := s.Products.UpdateProduct(ctx, id, upd)
	if err != nil {
		s.reclaim(ctx, uploaded...)
		return domain.Product{}, err
	}

	superseded = nonEmpty(superseded)
	s.reclaim(ctx, superseded...)
	s.Log.Printf("product updated id=%s uploaded=%d superseded=%d", p.ID, len(uploaded), len(superseded))
	return p, nil
}

// DeleteProduct удаляет запись, затем отправляет все её файлы на удаление.
func (s *Service) DeleteProduct(ctx context.Context, id domain.ProductID) error {
	p, err := s.Products.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	refs := p.AssetRefs()
	s.reclaim(ctx, refs...)
	s.Log.Printf("product deleted id=%s assets=%d", p.ID, len(refs))
	return nil
}

func (s *Service) ProductByID(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	return s.Products.ProductByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	f.Page, f.Limit = domain.Normalize(f.Page, f.Limit)
	items, total, err := s.Products.ListProducts(ctx, f)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return newPage(items, total, f.Page, f.Limit), nil
}

func newPage[T any](items []T, total, page, limit int) domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	return domain.Page[T]{
		Items:       items,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}
}

func nonEmpty(refs []string) []string {
	out := refs[:0]
	for _, r := range refs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
