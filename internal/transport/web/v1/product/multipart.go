package product

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

const (
	fieldThumbnail = "thumbnail"
	fieldMedia     = "media"
	fieldFile      = "file"

	multipartMemory = 32 << 20
)

// открытые файлы запроса; после обработки нужен close
type fileSet struct {
	payloads catalog.Payloads
	open     []multipart.File
}

func (fs *fileSet) close() {
	for _, f := range fs.open {
		_ = f.Close()
	}
}

// parseForm читает multipart или обычную форму. Для не-multipart файлов нет.
func parseForm(r *http.Request) (bool, error) {
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return false, fmt.Errorf("%w: %v", domain.ErrBadParams, err)
		}
		return false, nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return false, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, tooLarge.Limit)
		}
		return false, fmt.Errorf("%w: %v", domain.ErrBadParams, err)
	}
}

// collectFiles открывает файлы полей thumbnail/media/file с проверкой лимитов.
func collectFiles(form *multipart.Form, maxBytes int64) (*fileSet, error) {
	fs := &fileSet{}
	if form == nil {
		return fs, nil
	}

	total := len(form.File[fieldThumbnail]) + len(form.File[fieldMedia]) + len(form.File[fieldFile])
	if total > domain.MaxFilesPerProduct {
		return fs, fmt.Errorf("%w: at most %d files per request", domain.ErrValidation, domain.MaxFilesPerProduct)
	}

	open := func(field string) ([]catalog.Payload, error) {
		hdrs := form.File[field]
		out := make([]catalog.Payload, 0, len(hdrs))
		for _, hdr := range hdrs {
			if maxBytes > 0 && hdr.Size > maxBytes {
				return nil, fmt.Errorf("%w: %s %q exceeds %d bytes", domain.ErrValidation, field, hdr.Filename, maxBytes)
			}
			f, err := hdr.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: open %s: %v", domain.ErrBadParams, field, err)
			}
			fs.open = append(fs.open, f)
			ct := hdr.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			out = append(out, catalog.Payload{Filename: hdr.Filename, ContentType: ct, Size: hdr.Size, Body: f})
		}
		return out, nil
	}

	var err error
	if fs.payloads.Thumbnail, err = open(fieldThumbnail); err != nil {
		return fs, err
	}
	if fs.payloads.Media, err = open(fieldMedia); err != nil {
		return fs, err
	}
	if fs.payloads.File, err = open(fieldFile); err != nil {
		return fs, err
	}
	return fs, nil
}

func formCategory(r *http.Request) (*domain.CategoryID, error) {
	s := strings.TrimSpace(r.FormValue("category"))
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid category", domain.ErrBadParams)
	}
	return &id, nil
}

func formFloat(r *http.Request, key string) (*float64, error) {
	s := strings.TrimSpace(r.FormValue(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", domain.ErrBadParams, key)
	}
	// ParseFloat принимает "NaN" и "Inf", JSON их не кодирует
	if err := domain.ValidateFileSize(v); err != nil {
		return nil, err
	}
	return &v, nil
}

// formString: nil если поля нет в форме вовсе (ParseMultipartForm копирует значения в r.Form)
func formString(r *http.Request, key string) *string {
	if _, ok := r.Form[key]; !ok {
		return nil
	}
	v := r.FormValue(key)
	return &v
}
