package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

const fallbackExt = "jpg"

// Redirect: куда отправить клиента за файлом
type Redirect struct {
	URL        string
	StatusCode int
}

// ResolveDownload находит файл продукта, засчитывает скачивание и строит ссылку
// на принудительное скачивание под именем "<имя продукта>.<ext>".
// Счётчик увеличивается только после успешного разбора ссылки; если затем не
// удалось построить URL, инкремент не откатывается.
func (s *Service) ResolveDownload(ctx context.Context, id domain.ProductID) (Redirect, error) {
	p, err := s.Products.ProductByID(ctx, id)
	if err != nil {
		return Redirect{}, err
	}
	if p.File == "" {
		return Redirect{}, fmt.Errorf("%w: product %s has no file", domain.ErrNotFound, id)
	}

	ref, err := domain.ParseAssetRef(p.File)
	if err != nil {
		s.Log.Printf("download id=%s: %v", id, err)
		return Redirect{}, err
	}

	if _, err := s.Products.IncrementDownloadCount(ctx, id); err != nil {
		return Redirect{}, err
	}

	ext := ref.Extension
	if ext == "" {
		ext = p.FileType
	}
	if ext == "" {
		ext = fallbackExt
	}

	u, err := s.Gateway.DownloadURL(ctx, domain.DownloadRequest{
		ObjectID:  ref.ObjectID,
		Kind:      ref.Kind,
		Extension: ext,
		Filename:  p.Name + "." + ext,
	})
	if err != nil {
		s.Log.Printf("download id=%s: build url: %v", id, err)
		return Redirect{}, err
	}
	return Redirect{URL: u, StatusCode: http.StatusMovedPermanently}, nil
}

// IncrementDownloadCount — атомарный инкремент, возвращает обновлённый продукт.
func (s *Service) IncrementDownloadCount(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	return s.Products.IncrementDownloadCount(ctx, id)
}
