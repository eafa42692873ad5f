package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/asset-catalog/internal/config"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/auth"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/category"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/health"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/product"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, svc Services, infra Infra, authDeps AuthDeps, m Metrics) *Server {
	sub := func(name string) *log.Logger {
		return log.New(logger.Writer(), logger.Prefix()+"["+name+"] ", logger.Flags())
	}

	h := handlers{
		health: &health.Handler{
			Log:     sub("health"),
			DB:      infra.DB,
			Cache:   infra.Cache,
			Storage: infra.Storage,
			Timeout: 2 * time.Second,
		},
		products: &product.Handler{
			Log:          sub("products"),
			Service:      svc.Products,
			Cache:        infra.Cache,
			CacheTTL:     cfg.ProductCacheTTL,
			MaxFileBytes: cfg.UploadMaxFileBytes,
		},
		cats: &category.Handler{
			Log:      sub("categories"),
			Service:  svc.Categories,
			Products: svc.Products,
			Cache:    infra.Cache,
		},
		logout: &auth.HandlerLogout{Log: sub("auth"), Tokens: authDeps.Tokens, Blacklist: authDeps.Blacklist},
	}
	metrics := mw.NewHTTPMetrics(m.Registerer)

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(h, authDeps, metrics, m, cfg.UploadMaxFileBytes, logger),
		ReadTimeout:       5 * time.Minute, // multipart до 6 файлов
		WriteTimeout:      5 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

// Run блокируется до Close; http.ErrServerClosed ошибкой не считается.
func (ws *Server) Run() error {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}

// Handler отдаёт собранный роутер (для тестов и встраивания).
func (ws *Server) Handler() http.Handler { return ws.server.Handler }
