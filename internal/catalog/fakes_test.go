package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

var discard = log.New(io.Discard, "", 0)

// репозиторий в памяти
type memStore struct {
	mu         sync.Mutex
	products   map[domain.ProductID]domain.Product
	categories map[domain.CategoryID]domain.Category

	failCreate error
	failUpdate error
	increments int
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[domain.ProductID]domain.Product{},
		categories: map[domain.CategoryID]domain.Category{},
	}
}

func (m *memStore) withCategory(p domain.Product) domain.Product {
	p.Category.Name = m.categories[p.Category.ID].Name
	p.Media = append([]string(nil), p.Media...)
	return p
}

func (m *memStore) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return domain.Product{}, m.failCreate
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
	return m.withCategory(p), nil
}

func (m *memStore) ProductByID(_ context.Context, id domain.ProductID) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return m.withCategory(p), nil
}

func (m *memStore) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Product
	for _, p := range m.products {
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.CategoryID != nil && p.Category.ID != *f.CategoryID {
			continue
		}
		all = append(all, m.withCategory(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from := (f.Page - 1) * f.Limit
	if from > len(all) {
		from = len(all)
	}
	to := from + f.Limit
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], len(all), nil
}

func (m *memStore) UpdateProduct(_ context.Context, id domain.ProductID, u domain.ProductUpdate) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return domain.Product{}, m.failUpdate
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.FileType != nil {
		p.FileType = *u.FileType
	}
	if u.CategoryID != nil {
		p.Category.ID = *u.CategoryID
	}
	if u.FileSize != nil {
		p.FileSize = *u.FileSize
	}
	if u.Thumbnail != nil {
		p.Thumbnail = *u.Thumbnail
	}
	if u.Media != nil {
		p.Media = u.Media
	}
	if u.File != nil {
		p.File = *u.File
	}
	m.products[id] = p
	return m.withCategory(p), nil
}

func (m *memStore) DeleteProduct(_ context.Context, id domain.ProductID) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	delete(m.products, id)
	return m.withCategory(p), nil
}

func (m *memStore) IncrementDownloadCount(_ context.Context, id domain.ProductID) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	p.DownloadCount++
	m.increments++
	m.products[id] = p
	return m.withCategory(p), nil
}

func (m *memStore) CountProductsByCategory(_ context.Context, id domain.CategoryID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.products {
		if p.Category.ID == id {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateCategory(_ context.Context, c domain.Category) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.categories {
		if ex.Name == c.Name {
			return domain.Category{}, fmt.Errorf("%w: name already exists", domain.ErrValidation)
		}
	}
	c.ID = uuid.New()
	m.categories[c.ID] = c
	return c, nil
}

func (m *memStore) CategoryByID(_ context.Context, id domain.CategoryID) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListCategories(_ context.Context, f domain.CategoryFilter) ([]domain.Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memStore) UpdateCategory(_ context.Context, id domain.CategoryID, u domain.CategoryUpdate) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	m.categories[id] = c
	return c, nil
}

func (m *memStore) DeleteCategory(_ context.Context, id domain.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// fakeGateway записывает вызовы; failUploadAt это номер загрузки (с 1), которая упадёт.
type fakeGateway struct {
	mu           sync.Mutex
	uploads      []domain.UploadRequest
	failUploadAt int
	downloads    []domain.DownloadRequest
	downloadErr  error

	deletes   []domain.AssetTarget
	deleteErr func(attempt int, t domain.AssetTarget) error
	block     chan struct{}
}

var errGatewayDown = fmt.Errorf("%w: connection refused", domain.ErrStorageUnavailable)

func (g *fakeGateway) Upload(_ context.Context, req domain.UploadRequest) (domain.StoredObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploads = append(g.uploads, req)
	if g.failUploadAt > 0 && len(g.uploads) == g.failUploadAt {
		return domain.StoredObject{}, errGatewayDown
	}
	kind := domain.KindFromContentType(req.ContentType)
	ext := strings.TrimPrefix(path.Ext(req.Filename), ".")
	ref := fmt.Sprintf("https://cdn.test/%s/upload/v1/%s/%d-abc123.%s", kind, req.Folder, len(g.uploads), ext)
	return domain.StoredObject{Reference: ref, Kind: kind}, nil
}

func (g *fakeGateway) Delete(_ context.Context, objectID string, kind domain.ResourceKind) error {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t := domain.AssetTarget{ObjectID: objectID, Kind: kind}
	g.deletes = append(g.deletes, t)
	if g.deleteErr != nil {
		return g.deleteErr(len(g.deletes), t)
	}
	return nil
}

func (g *fakeGateway) DownloadURL(_ context.Context, req domain.DownloadRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.downloads = append(g.downloads, req)
	if g.downloadErr != nil {
		return "", g.downloadErr
	}
	return "https://signed.test/" + req.ObjectID + "?filename=" + req.Filename, nil
}

func (g *fakeGateway) deleteCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.deletes)
}

// recordingReclaimer копит ссылки синхронно
type recordingReclaimer struct {
	mu   sync.Mutex
	refs []string
}

func (r *recordingReclaimer) Reclaim(_ context.Context, refs ...string) {
	r.mu.Lock()
	r.refs = append(r.refs, refs...)
	r.mu.Unlock()
}

func (r *recordingReclaimer) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.refs...)
}

var errDB = errors.New("db is down")
