package category

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/logx"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	v1 "github.com/EgorLis/asset-catalog/internal/transport/web/v1"
)

type Service interface {
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, id domain.CategoryID, patch catalog.CategoryPatch) (domain.Category, error)
	DeleteCategory(ctx context.Context, id domain.CategoryID) error
	CategoryByID(ctx context.Context, id domain.CategoryID) (domain.Category, error)
	ListCategories(ctx context.Context, f domain.CategoryFilter) (domain.Page[domain.Category], error)
}

// ProductLister нужен только для сброса кеша карточек после переименования.
type ProductLister interface {
	ListProducts(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error)
}

type Handler struct {
	Log     *log.Logger
	Service Service

	// карточки продуктов в кеше несут имя категории; nil отключает сброс
	Products ProductLister
	Cache    domain.Cache
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type categoryList struct {
	Categories  []domain.Category `json:"categories"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

type deletedResponse struct {
	Deleted domain.CategoryID `json:"deleted"`
}

const maxBodyBytes = 16 << 10

func decodeBody(w http.ResponseWriter, r *http.Request) (categoryRequest, error) {
	var req categoryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid json: %v", domain.ErrBadParams, err)
	}
	return req, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create: POST /categories (admin), {"name": "...", "description": "..."}
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "categories.create"
	reqID := mw.RequestIDFromCtx(r.Context())

	body, err := decodeBody(w, r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	c, err := h.Service.CreateCategory(r.Context(), catalog.CategoryInput{
		Name:        deref(body.Name),
		Description: deref(body.Description),
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", c.ID)
	v1.WriteCreated(w, r, c)
}

// List: GET /categories?page=&limit=&search=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "categories.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	page, limit, err := v1.Paging(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	res, err := h.Service.ListCategories(r.Context(), domain.CategoryFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, categoryList{Categories: res.Items, TotalPages: res.TotalPages, CurrentPage: res.CurrentPage})
}

func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "categories.get_one"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	c, err := h.Service.CategoryByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "get failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, c)
}

// Update: PUT /categories/{id} (admin); отсутствующие поля не меняются
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "categories.update"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	c, err := h.Service.UpdateCategory(r.Context(), id, catalog.CategoryPatch{Name: body.Name, Description: body.Description})
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	if body.Name != nil {
		if n, err := h.evictProducts(r.Context(), id); err != nil {
			logx.Error(h.Log, reqID, op, "evict cached products failed", err, "id", id, "evicted", n)
		}
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKData(w, r, c)
}

// evictProducts удаляет из кеша карточки всех продуктов категории.
func (h *Handler) evictProducts(ctx context.Context, id domain.CategoryID) (int, error) {
	if h.Cache == nil || h.Products == nil {
		return 0, nil
	}
	evicted := 0
	for page := 1; ; page++ {
		res, err := h.Products.ListProducts(ctx, domain.ProductFilter{CategoryID: &id, Page: page, Limit: domain.MaxLimit})
		if err != nil {
			return evicted, err
		}
		if len(res.Items) == 0 {
			return evicted, nil
		}
		keys := make([]string, 0, len(res.Items))
		for _, p := range res.Items {
			keys = append(keys, domain.CacheKeyProduct(p.ID))
		}
		if err := h.Cache.Del(ctx, keys...); err != nil {
			return evicted, err
		}
		evicted += len(keys)
		if page >= res.TotalPages {
			return evicted, nil
		}
	}
}

// Delete: DELETE /categories/{id} (admin); 409, пока в категории есть продукты
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "categories.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if err := h.Service.DeleteCategory(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKResponse(w, r, deletedResponse{Deleted: id})
}
