package catalog

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

type fixture struct {
	svc   *Service
	store *memStore
	gw    *fakeGateway
	rec   *recordingReclaimer
	cat   domain.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	gw := &fakeGateway{}
	rec := &recordingReclaimer{}
	svc := &Service{Products: store, Categories: store, Gateway: gw, Reclaimer: rec, Log: discard}
	cat, err := store.CreateCategory(context.Background(), domain.Category{Name: "Icons"})
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, gw: gw, rec: rec, cat: cat}
}

func payload(name, ct string) Payload {
	return Payload{Filename: name, ContentType: ct, Size: 3, Body: strings.NewReader("abc")}
}

func fullPayloads() Payloads {
	return Payloads{
		Thumbnail: []Payload{payload("thumb.png", "image/png")},
		Media:     []Payload{payload("m1.png", "image/png"), payload("m2.mp4", "video/mp4")},
		File:      []Payload{payload("pack.zip", "application/zip")},
	}
}

func (f *fixture) create(t *testing.T) domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Name: "Pack", CategoryID: f.cat.ID, FileSize: 2.5,
	}, fullPayloads())
	require.NoError(t, err)
	return p
}

func filenames(reqs []domain.UploadRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Filename)
	}
	return out
}

func TestCreateProductUploadsInOrder(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Name: "  Pack  ", CategoryID: f.cat.ID, FileSize: 2.5,
	}, fullPayloads())
	require.NoError(t, err)

	assert.Equal(t, []string{"thumb.png", "m1.png", "m2.mp4", "pack.zip"}, filenames(f.gw.uploads))
	for _, u := range f.gw.uploads {
		assert.Equal(t, domain.ProductsFolder, u.Folder)
	}

	assert.Equal(t, "Pack", p.Name)
	assert.Equal(t, "https://cdn.test/image/upload/v1/products/1-abc123.png", p.Thumbnail)
	assert.Equal(t, []string{
		"https://cdn.test/image/upload/v1/products/2-abc123.png",
		"https://cdn.test/video/upload/v1/products/3-abc123.mp4",
	}, p.Media)
	assert.Equal(t, "https://cdn.test/raw/upload/v1/products/4-abc123.zip", p.File)
	assert.Equal(t, domain.DefaultFileType, p.FileType)
	assert.Equal(t, int64(0), p.DownloadCount)
	assert.Equal(t, domain.CategorySummary{ID: f.cat.ID, Name: "Icons"}, p.Category)
	assert.Empty(t, f.rec.got())
}

func TestCreateProductUnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Name: "Pack", CategoryID: uuid.New(),
	}, fullPayloads())
	require.ErrorIs(t, err, domain.ErrInvalidReference)
	assert.Empty(t, f.gw.uploads, "nothing uploaded before the category check")
}

func TestCreateProductAssetCardinality(t *testing.T) {
	many := func(n int) []Payload {
		out := make([]Payload, n)
		for i := range out {
			out[i] = payload("m.png", "image/png")
		}
		return out
	}
	tests := []struct {
		name  string
		files Payloads
	}{
		{"no thumbnail", Payloads{Media: many(1)}},
		{"two thumbnails", Payloads{Thumbnail: many(2), Media: many(1)}},
		{"no media", Payloads{Thumbnail: many(1)}},
		{"too many media", Payloads{Thumbnail: many(1), Media: many(5)}},
		{"two files", Payloads{Thumbnail: many(1), Media: many(1), File: many(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "Pack", CategoryID: f.cat.ID}, tt.files)
			require.ErrorIs(t, err, domain.ErrMissingAsset)
			assert.Empty(t, f.gw.uploads)
		})
	}
}

func TestCreateProductFieldValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateProductInput
	}{
		{"blank name", CreateProductInput{Name: "   "}},
		{"long name", CreateProductInput{Name: strings.Repeat("x", domain.MaxProductNameLen+1)}},
		{"negative size", CreateProductInput{Name: "Pack", FileSize: -1}},
		{"NaN size", CreateProductInput{Name: "Pack", FileSize: math.NaN()}},
		{"infinite size", CreateProductInput{Name: "Pack", FileSize: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.in.CategoryID = f.cat.ID
			_, err := f.svc.CreateProduct(context.Background(), tt.in, fullPayloads())
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, domain.ErrCreateFailed)
			assert.Empty(t, f.gw.uploads)
		})
	}
}

func TestCreateProductUploadFailureReclaimsUploaded(t *testing.T) {
	f := newFixture(t)
	f.gw.failUploadAt = 3 // вторая media

	_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "Pack", CategoryID: f.cat.ID}, fullPayloads())
	require.ErrorIs(t, err, domain.ErrCreateFailed)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.Empty(t, f.store.products)
	assert.Equal(t, []string{
		"https://cdn.test/image/upload/v1/products/1-abc123.png",
		"https://cdn.test/image/upload/v1/products/2-abc123.png",
	}, f.rec.got())
}

func TestCreateProductPersistFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate = errDB

	_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "Pack", CategoryID: f.cat.ID}, fullPayloads())
	require.ErrorIs(t, err, domain.ErrCreateFailed)
	assert.ErrorIs(t, err, errDB)
	assert.Len(t, f.rec.got(), 4)
}

func TestUpdateProductReplacesThumbnail(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	got, err := f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{}, Payloads{
		Thumbnail: []Payload{payload("new.png", "image/png")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, p.Thumbnail, got.Thumbnail)
	assert.Equal(t, p.Media, got.Media)
	assert.Equal(t, p.File, got.File)
	assert.Equal(t, []string{p.Thumbnail}, f.rec.got())
}

func TestUpdateProductReplacesMediaAndClearsFile(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	name := "Renamed"
	got, err := f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Name: &name, ClearFile: true}, Payloads{
		Media: []Payload{payload("n1.webm", "video/webm")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Len(t, got.Media, 1)
	assert.Empty(t, got.File)
	assert.Equal(t, p.Thumbnail, got.Thumbnail)
	assert.ElementsMatch(t, append(append([]string{}, p.Media...), p.File), f.rec.got())
}

func TestUpdateProductScalarOnly(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)
	uploads := len(f.gw.uploads)

	size := 9.0
	ft := "zip"
	got, err := f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{FileSize: &size, FileType: &ft}, Payloads{})
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.FileSize)
	assert.Equal(t, "zip", got.FileType)
	assert.Len(t, f.gw.uploads, uploads)
	assert.Empty(t, f.rec.got())
}

func TestUpdateProductNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateProduct(context.Background(), uuid.New(), ProductPatch{}, Payloads{
		Thumbnail: []Payload{payload("new.png", "image/png")},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.gw.uploads)

	name := "x"
	_, err = f.svc.UpdateProduct(context.Background(), uuid.New(), ProductPatch{Name: &name}, Payloads{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProductRecordFailureReclaimsNewUploads(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)
	f.store.failUpdate = errDB

	_, err := f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{}, Payloads{
		File: []Payload{payload("v2.zip", "application/zip")},
	})
	require.ErrorIs(t, err, errDB)

	got := f.rec.got()
	require.Len(t, got, 1)
	assert.NotEqual(t, p.File, got[0], "old file stays referenced")
}

func TestUpdateProductRejects(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	missing := uuid.New()
	_, err := f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{CategoryID: &missing}, Payloads{})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	media := make([]Payload, domain.MaxMediaPerProduct+1)
	for i := range media {
		media[i] = payload("m.png", "image/png")
	}
	_, err = f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{}, Payloads{Media: media})
	assert.ErrorIs(t, err, domain.ErrMissingAsset)

	blank := " "
	_, err = f.svc.UpdateProduct(context.Background(), p.ID, ProductPatch{Name: &blank}, Payloads{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteProductReclaimsAllAssets(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), p.ID))
	assert.Equal(t, p.AssetRefs(), f.rec.got())

	_, err := f.svc.ProductByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteProduct(context.Background(), p.ID), domain.ErrNotFound)
}

func TestListProductsPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.create(t)
	}

	page, err := f.svc.ListProducts(context.Background(), domain.ProductFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Items, 2)

	page, err = f.svc.ListProducts(context.Background(), domain.ProductFilter{Page: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 5, page.CurrentPage)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
