package catalog

import (
	"context"
	"fmt"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

type CategoryInput struct {
	Name        string
	Description string
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	name, err := domain.NormalizeCategoryName(in.Name)
	if err != nil {
		return domain.Category{}, err
	}
	descr, err := domain.NormalizeCategoryDescription(in.Description)
	if err != nil {
		return domain.Category{}, err
	}
	c, err := s.Categories.CreateCategory(ctx, domain.Category{Name: name, Description: descr})
	if err != nil {
		return domain.Category{}, err
	}
	s.Log.Printf("category created id=%s name=%q", c.ID, c.Name)
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id domain.CategoryID, patch CategoryPatch) (domain.Category, error) {
	var upd domain.CategoryUpdate
	if patch.Name != nil {
		name, err := domain.NormalizeCategoryName(*patch.Name)
		if err != nil {
			return domain.Category{}, err
		}
		upd.Name = &name
	}
	if patch.Description != nil {
		descr, err := domain.NormalizeCategoryDescription(*patch.Description)
		if err != nil {
			return domain.Category{}, err
		}
		upd.Description = &descr
	}
	return s.Categories.UpdateCategory(ctx, id, upd)
}

func (s *Service) CategoryByID(ctx context.Context, id domain.CategoryID) (domain.Category, error) {
	return s.Categories.CategoryByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, f domain.CategoryFilter) (domain.Page[domain.Category], error) {
	f.Page, f.Limit = domain.Normalize(f.Page, f.Limit)
	items, total, err := s.Categories.ListCategories(ctx, f)
	if err != nil {
		return domain.Page[domain.Category]{}, err
	}
	return newPage(items, total, f.Page, f.Limit), nil
}

// DeleteCategory запрещено, пока на категорию ссылается хотя бы один продукт.
func (s *Service) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	if _, err := s.Categories.CategoryByID(ctx, id); err != nil {
		return err
	}
	n, err := s.Products.CountProductsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category %s has %d products", domain.ErrConflict, id, n)
	}
	if err := s.Categories.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.Log.Printf("category deleted id=%s", id)
	return nil
}
