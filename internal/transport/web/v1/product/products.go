package product

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/logx"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	v1 "github.com/EgorLis/asset-catalog/internal/transport/web/v1"
)

// Create: POST /products (admin), multipart: thumbnail, media[], file + name/fileType/category/fileSize
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "products.create"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	if _, err := parseForm(r); err != nil {
		logx.Error(h.Log, reqID, op, "parse form failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	files, err := collectFiles(r.MultipartForm, h.MaxFileBytes)
	defer files.close()
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad files", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	cat, err := formCategory(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	in := catalog.CreateProductInput{
		Name:     r.FormValue("name"),
		FileType: r.FormValue("fileType"),
	}
	if cat == nil {
		logx.Error(h.Log, reqID, op, "missing category", domain.ErrInvalidReference)
		v1.WriteDomainError(w, r, domain.ErrInvalidReference)
		return
	}
	in.CategoryID = *cat

	size, err := formFloat(r, "fileSize")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if size == nil {
		v1.WriteDomainError(w, r, errRequired("fileSize"))
		return
	}
	in.FileSize = *size

	p, err := h.Service.CreateProduct(r.Context(), in, files.payloads)
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", p.ID)
	v1.WriteCreated(w, r, p)
}

// List: GET /products?page=&limit=&search=&category=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "products.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	page, limit, err := v1.Paging(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	f := domain.ProductFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   page,
		Limit:  limit,
	}
	if f.CategoryID, err = formCategory(r); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	res, err := h.Service.ListProducts(r.Context(), f)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "items", len(res.Items), "page", res.CurrentPage)
	v1.WriteOKData(w, r, productList{Products: res.Items, TotalPages: res.TotalPages, CurrentPage: res.CurrentPage})
}

// GetOne: GET /products/{id}; ответ кешируется в Redis до изменения продукта
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "products.get_one"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if p, ok := h.cached(r.Context(), id); ok {
		logx.Info(h.Log, reqID, op, "ok", "id", id, "cached", true)
		v1.WriteOKData(w, r, p)
		return
	}

	p, err := h.Service.ProductByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "get failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	h.remember(r.Context(), p)
	logx.Info(h.Log, reqID, op, "ok", "id", id, "cached", false)
	v1.WriteOKData(w, r, p)
}

// Update: PUT /products/{id} (admin); все поля и файлы необязательны, clearFile=true убирает file
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "products.update"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if _, err := parseForm(r); err != nil {
		logx.Error(h.Log, reqID, op, "parse form failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	files, err := collectFiles(r.MultipartForm, h.MaxFileBytes)
	defer files.close()
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad files", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	patch := catalog.ProductPatch{
		Name:     formString(r, "name"),
		FileType: formString(r, "fileType"),
	}
	if patch.CategoryID, err = formCategory(r); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if patch.FileSize, err = formFloat(r, "fileSize"); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if s := r.FormValue("clearFile"); s != "" {
		if patch.ClearFile, err = strconv.ParseBool(s); err != nil {
			v1.WriteDomainError(w, r, errBad("clearFile"))
			return
		}
	}

	p, err := h.Service.UpdateProduct(r.Context(), id, patch, files.payloads)
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	h.forget(r.Context(), id)
	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKData(w, r, p)
}

// Delete: DELETE /products/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "products.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := v1.PathUUID(r, "id")
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	h.forget(r.Context(), id)
	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKResponse(w, r, deletedResponse{Deleted: id})
}
