package product

import (
	"context"
	"encoding/json"
	"log"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

type Service interface {
	CreateProduct(ctx context.Context, in catalog.CreateProductInput, files catalog.Payloads) (domain.Product, error)
	UpdateProduct(ctx context.Context, id domain.ProductID, patch catalog.ProductPatch, files catalog.Payloads) (domain.Product, error)
	DeleteProduct(ctx context.Context, id domain.ProductID) error
	ProductByID(ctx context.Context, id domain.ProductID) (domain.Product, error)
	ListProducts(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error)
	ResolveDownload(ctx context.Context, id domain.ProductID) (catalog.Redirect, error)
	IncrementDownloadCount(ctx context.Context, id domain.ProductID) (domain.Product, error)
}

type Handler struct {
	Log     *log.Logger
	Service Service
	Cache   domain.Cache

	CacheTTL     int   // секунд
	MaxFileBytes int64 // лимит на один файл
}

type productList struct {
	Products    []domain.Product `json:"products"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

type deletedResponse struct {
	Deleted domain.ProductID `json:"deleted"`
}

func (h *Handler) cached(ctx context.Context, id domain.ProductID) (domain.Product, bool) {
	if h.Cache == nil {
		return domain.Product{}, false
	}
	b, err := h.Cache.Get(ctx, domain.CacheKeyProduct(id))
	if err != nil || len(b) == 0 {
		return domain.Product{}, false
	}
	var p domain.Product
	if err := json.Unmarshal(b, &p); err != nil {
		return domain.Product{}, false
	}
	return p, true
}

func (h *Handler) remember(ctx context.Context, p domain.Product) {
	if h.Cache == nil || h.CacheTTL <= 0 {
		return
	}
	if buf, err := json.Marshal(p); err == nil {
		_ = h.Cache.Set(ctx, domain.CacheKeyProduct(p.ID), buf, h.CacheTTL)
	}
}

func (h *Handler) forget(ctx context.Context, id domain.ProductID) {
	if h.Cache == nil {
		return
	}
	_ = h.Cache.Del(ctx, domain.CacheKeyProduct(id))
}
