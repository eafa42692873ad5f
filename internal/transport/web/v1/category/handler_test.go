package category

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

type fakeService struct {
	in     catalog.CategoryInput
	patch  catalog.CategoryPatch
	filter domain.CategoryFilter
	err    error
}

func (s *fakeService) CreateCategory(_ context.Context, in catalog.CategoryInput) (domain.Category, error) {
	s.in = in
	return domain.Category{ID: uuid.New(), Name: in.Name}, s.err
}

func (s *fakeService) UpdateCategory(_ context.Context, id domain.CategoryID, p catalog.CategoryPatch) (domain.Category, error) {
	s.patch = p
	return domain.Category{ID: id}, s.err
}

func (s *fakeService) DeleteCategory(context.Context, domain.CategoryID) error { return s.err }

func (s *fakeService) CategoryByID(_ context.Context, id domain.CategoryID) (domain.Category, error) {
	return domain.Category{ID: id, Name: "Icons"}, s.err
}

func (s *fakeService) ListCategories(_ context.Context, f domain.CategoryFilter) (domain.Page[domain.Category], error) {
	s.filter = f
	return domain.Page[domain.Category]{Items: []domain.Category{}, TotalPages: 0, CurrentPage: f.Page}, s.err
}

type pagedProducts struct {
	ids     []domain.ProductID
	filters []domain.ProductFilter
}

func (p *pagedProducts) ListProducts(_ context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	p.filters = append(p.filters, f)
	from := (f.Page - 1) * f.Limit
	to := min(from+f.Limit, len(p.ids))
	items := []domain.Product{}
	for _, id := range p.ids[min(from, len(p.ids)):to] {
		items = append(items, domain.Product{ID: id})
	}
	pages := (len(p.ids) + f.Limit - 1) / f.Limit
	return domain.Page[domain.Product]{Items: items, TotalPages: pages, CurrentPage: f.Page}, nil
}

type keyLog struct {
	deleted []string
}

func (c *keyLog) Get(context.Context, string) ([]byte, error)    { return nil, domain.ErrNotFound }
func (c *keyLog) Set(context.Context, string, []byte, int) error { return nil }
func (c *keyLog) Del(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}
func (c *keyLog) Ping(context.Context) error { return nil }
func (c *keyLog) Close()                     {}

func newMux(svc *fakeService) *http.ServeMux {
	return newMuxWith(&Handler{Log: log.New(io.Discard, "", 0), Service: svc})
}

func newMuxWith(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /categories", h.Create)
	mux.HandleFunc("GET /categories", h.List)
	mux.HandleFunc("GET /categories/{id}", h.GetOne)
	mux.HandleFunc("PUT /categories/{id}", h.Update)
	mux.HandleFunc("DELETE /categories/{id}", h.Delete)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestCreateCategory(t *testing.T) {
	svc := &fakeService{}
	mux := newMux(svc)

	rec := do(mux, http.MethodPost, "/categories", `{"name":"Icons","description":"vector"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, catalog.CategoryInput{Name: "Icons", Description: "vector"}, svc.in)

	rec = do(mux, http.MethodPost, "/categories", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/categories", `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields rejected")
}

func TestUpdateCategoryKeepsAbsentFields(t *testing.T) {
	svc := &fakeService{}
	rec := do(newMux(svc), http.MethodPut, "/categories/"+uuid.NewString(), `{"description":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.patch.Name)
	require.NotNil(t, svc.patch.Description)
	assert.Empty(t, *svc.patch.Description)
}

func TestDeleteCategoryConflict(t *testing.T) {
	svc := &fakeService{err: domain.ErrConflict}
	rec := do(newMux(svc), http.MethodDelete, "/categories/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var env domain.APIEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodeConflict, env.Error.Code)
}

func TestListCategories(t *testing.T) {
	svc := &fakeService{}
	rec := do(newMux(svc), http.MethodGet, "/categories?search=ic&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CategoryFilter{Search: "ic", Page: 2, Limit: domain.DefaultLimit}, svc.filter)
	assert.Contains(t, rec.Body.String(), `"categories":[]`)
}

func TestGetCategoryNotFound(t *testing.T) {
	svc := &fakeService{err: domain.ErrNotFound}
	rec := do(newMux(svc), http.MethodGet, "/categories/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenameEvictsCachedProducts(t *testing.T) {
	ids := make([]domain.ProductID, domain.MaxLimit+3)
	for i := range ids {
		ids[i] = uuid.New()
	}
	products := &pagedProducts{ids: ids}
	cache := &keyLog{}
	mux := newMuxWith(&Handler{Log: log.New(io.Discard, "", 0), Service: &fakeService{}, Products: products, Cache: cache})
	catID := uuid.New()

	rec := do(mux, http.MethodPut, "/categories/"+catID.String(), `{"description":"only text"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cache.deleted, "description change keeps product cards")

	rec = do(mux, http.MethodPut, "/categories/"+catID.String(), `{"name":"Vectors"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, cache.deleted, len(ids))
	assert.Equal(t, domain.CacheKeyProduct(ids[0]), cache.deleted[0])
	assert.Equal(t, domain.CacheKeyProduct(ids[len(ids)-1]), cache.deleted[len(ids)-1])
	require.Len(t, products.filters, 2)
	assert.Equal(t, catID, *products.filters[0].CategoryID)
}
