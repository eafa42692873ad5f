package gormdb

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open("sqlite://:memory:", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func seedCategory(t *testing.T, r *Repo, name string) domain.Category {
	t.Helper()
	c, err := r.CreateCategory(context.Background(), domain.Category{Name: name, Description: name + " things"})
	require.NoError(t, err)
	return c
}

func seedProduct(t *testing.T, r *Repo, cat domain.CategoryID, name string, created time.Time) domain.Product {
	t.Helper()
	p, err := r.CreateProduct(context.Background(), domain.Product{
		Name:      name,
		Thumbnail: "https://cdn.test/image/upload/v1/products/" + name + "-thumb.png",
		Media:     []string{"https://cdn.test/image/upload/v1/products/" + name + "-1.png"},
		FileType:  domain.DefaultFileType,
		Category:  domain.CategorySummary{ID: cat},
		FileSize:  1.5,
		CreatedAt: created,
	})
	require.NoError(t, err)
	return p
}

func TestOpenRejectsUnknownURL(t *testing.T) {
	_, err := Open("mysql://localhost/db", log.New(io.Discard, "", 0))
	require.Error(t, err)
}

func TestProductRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "Icons")

	p, err := r.CreateProduct(ctx, domain.Product{
		Name:      "Pack",
		Thumbnail: "https://cdn.test/image/upload/v1/products/t.png",
		Media:     []string{"https://cdn.test/image/upload/v1/products/m1.png", "https://cdn.test/video/upload/v1/products/m2.mp4"},
		File:      "https://cdn.test/raw/upload/v1/products/f.zip",
		FileType:  "zip",
		Category:  domain.CategorySummary{ID: cat.ID},
		FileSize:  12.5,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Icons", p.Category.Name)

	got, err := r.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Media, got.Media)
	assert.Equal(t, "https://cdn.test/raw/upload/v1/products/f.zip", got.File)
	assert.Equal(t, int64(0), got.DownloadCount)

	_, err = r.ProductByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	icons := seedCategory(t, r, "Icons")
	fonts := seedCategory(t, r, "Fonts")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedProduct(t, r, icons.ID, "alpha", base)
	seedProduct(t, r, icons.ID, "beta", base.Add(time.Hour))
	seedProduct(t, r, fonts.ID, "Alphabet", base.Add(2*time.Hour))

	items, total, err := r.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "Alphabet", items[0].Name, "newest first")
	assert.Equal(t, "alpha", items[2].Name)

	items, total, err = r.ListProducts(ctx, domain.ProductFilter{Search: "ALPHA"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = r.ListProducts(ctx, domain.ProductFilter{CategoryID: &icons.ID, Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "alpha", items[0].Name)

	_, total, err = r.ListProducts(ctx, domain.ProductFilter{Search: "%"})
	require.NoError(t, err)
	assert.Zero(t, total, "wildcards are matched literally")
}

func TestUpdateProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	icons := seedCategory(t, r, "Icons")
	fonts := seedCategory(t, r, "Fonts")
	p := seedProduct(t, r, icons.ID, "alpha", time.Time{})

	file := "https://cdn.test/raw/upload/v2/products/f.zip"
	_, err := r.UpdateProduct(ctx, p.ID, domain.ProductUpdate{File: &file})
	require.NoError(t, err)

	name := "renamed"
	empty := ""
	media := []string{"https://cdn.test/image/upload/v2/products/n.png"}
	got, err := r.UpdateProduct(ctx, p.ID, domain.ProductUpdate{
		Name:       &name,
		CategoryID: &fonts.ID,
		Media:      media,
		File:       &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "Fonts", got.Category.Name)
	assert.Equal(t, media, got.Media)
	assert.Empty(t, got.File)
	assert.Equal(t, p.Thumbnail, got.Thumbnail, "untouched field kept")

	_, err = r.UpdateProduct(ctx, uuid.New(), domain.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProductWritesOnlyPatchedColumns(t *testing.T) {
	r := newTestRepo(t)
	dry := r.db.Session(&gorm.Session{DryRun: true})

	name := "renamed"
	size := 2.5
	empty := ""
	sql := updateQuery(dry, uuid.New(), domain.ProductUpdate{Name: &name, FileSize: &size, File: &empty}).Statement.SQL.String()
	assert.Contains(t, sql, "name")
	assert.Contains(t, sql, "file_size")
	assert.Contains(t, sql, "updated_at")
	assert.NotContains(t, sql, "download_count")
	assert.NotContains(t, sql, "thumbnail")
	assert.NotContains(t, sql, "media")

	sql = incrementQuery(dry, uuid.New()).Statement.SQL.String()
	assert.Contains(t, sql, "download_count + ")
}

func TestUpdateProductKeepsDownloadCount(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "Icons")
	p := seedProduct(t, r, cat.ID, "alpha", time.Time{})

	for i := 0; i < 3; i++ {
		_, err := r.IncrementDownloadCount(ctx, p.ID)
		require.NoError(t, err)
	}
	name := "renamed"
	got, err := r.UpdateProduct(ctx, p.ID, domain.ProductUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.DownloadCount)
	assert.Equal(t, p.FileSize, got.FileSize)
	assert.Equal(t, p.Media, got.Media)
}

func TestDeleteProductReturnsRecord(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "Icons")
	p := seedProduct(t, r, cat.ID, "alpha", time.Time{})

	deleted, err := r.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Thumbnail, deleted.Thumbnail)
	assert.Equal(t, p.Media, deleted.Media)

	_, err = r.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrementDownloadCountConcurrent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "Icons")
	p := seedProduct(t, r, cat.ID, "alpha", time.Time{})

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.IncrementDownloadCount(ctx, p.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := r.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.DownloadCount)

	_, err = r.IncrementDownloadCount(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	icons := seedCategory(t, r, "Icons")
	seedCategory(t, r, "Fonts")

	_, err := r.CreateCategory(ctx, domain.Category{Name: "Icons"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	descr := "vector icons"
	upd, err := r.UpdateCategory(ctx, icons.ID, domain.CategoryUpdate{Description: &descr})
	require.NoError(t, err)
	assert.Equal(t, "Icons", upd.Name)
	assert.Equal(t, descr, upd.Description)

	list, total, err := r.ListCategories(ctx, domain.CategoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Fonts", list[0].Name)

	p := seedProduct(t, r, icons.ID, "alpha", time.Time{})
	n, err := r.CountProductsByCategory(ctx, icons.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, r.DeleteCategory(ctx, icons.ID), domain.ErrConflict)

	_, err = r.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, r.DeleteCategory(ctx, icons.ID))
	assert.ErrorIs(t, r.DeleteCategory(ctx, icons.ID), domain.ErrNotFound)

	_, err = r.CategoryByID(ctx, icons.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
