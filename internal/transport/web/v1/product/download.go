package product

import (
	"fmt"
	"net/http"

	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/logx"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	v1 "github.com/EgorLis/asset-catalog/internal/transport/web/v1"
)

// Download: GET /products/{id}/download: засчитывает скачивание и редиректит на файл
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "products.download"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	rd, err := h.Service.ResolveDownload(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "resolve failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	h.forget(r.Context(), id)
	logx.Info(h.Log, reqID, op, "redirect", "id", id, "status", rd.StatusCode)
	http.Redirect(w, r, rd.URL, rd.StatusCode)
}

// IncrementDownload: PATCH /products/{id}/download
func (h *Handler) IncrementDownload(w http.ResponseWriter, r *http.Request) {
	const op = "products.increment_download"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	p, err := h.Service.IncrementDownloadCount(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "increment failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	h.forget(r.Context(), id)
	logx.Info(h.Log, reqID, op, "ok", "id", id, "count", p.DownloadCount)
	v1.WriteOKData(w, r, p)
}

func errRequired(field string) error { return fmt.Errorf("%w: %s is required", domain.ErrValidation, field) }
func errBad(field string) error      { return fmt.Errorf("%w: invalid %s", domain.ErrBadParams, field) }
