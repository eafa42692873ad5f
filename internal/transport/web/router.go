package web

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/auth"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/category"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/health"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/product"
)

// запас под текстовые поля формы
const formSlack = 1 << 20

type handlers struct {
	health   *health.Handler
	products *product.Handler
	cats     *category.Handler
	logout   *auth.HandlerLogout
}

func newRouter(h handlers, authDeps AuthDeps, metrics *mw.HTTPMetrics, m Metrics, maxFileBytes int64, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	admin := func(fn http.HandlerFunc) http.Handler {
		return mw.RequireRole(authDeps, domain.RoleAdmin, fn)
	}
	uploadLimit := 6*maxFileBytes + formSlack

	// health
	mux.HandleFunc("GET /healthz", h.health.Liveness)
	mux.HandleFunc("GET /readyz", h.health.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{}))

	// products
	mux.Handle("POST /products", admin(limitBody(uploadLimit, h.products.Create)))
	mux.HandleFunc("GET /products", h.products.List)
	mux.HandleFunc("GET /products/{id}", h.products.GetOne)
	mux.Handle("PUT /products/{id}", admin(limitBody(uploadLimit, h.products.Update)))
	mux.Handle("DELETE /products/{id}", admin(h.products.Delete))
	mux.HandleFunc("GET /products/{id}/download", h.products.Download)
	mux.HandleFunc("PATCH /products/{id}/download", h.products.IncrementDownload)

	// categories
	mux.Handle("POST /categories", admin(h.cats.Create))
	mux.HandleFunc("GET /categories", h.cats.List)
	mux.HandleFunc("GET /categories/{id}", h.cats.GetOne)
	mux.Handle("PUT /categories/{id}", admin(h.cats.Update))
	mux.Handle("DELETE /categories/{id}", admin(h.cats.Delete))

	// auth
	mux.HandleFunc("DELETE /auth/{token}", h.logout.Logout)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(metrics.Middleware(mux)))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
