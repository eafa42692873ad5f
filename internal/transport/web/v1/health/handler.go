package health

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/logx"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	v1 "github.com/EgorLis/asset-catalog/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type Handler struct {
	Log     *log.Logger
	DB      Pinger
	Cache   Pinger
	Storage Pinger

	Timeout time.Duration
}

// Liveness: GET /healthz, не зависит от внешних систем
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	v1.WriteOKData(w, r, "ok")
}

// Readiness: GET /readyz: БД, Redis и бакет пингуются параллельно
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for name, p := range map[string]Pinger{"db": h.DB, "cache": h.Cache, "storage": h.Storage} {
		if p == nil {
			continue
		}
		g.Go(func() error {
			if err := p.Ping(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logx.Error(h.Log, reqID, op, "not ready", err)
		v1.WriteEnvelope(w, r, http.StatusServiceUnavailable, domain.Fail(domain.ErrCodeUnexpected, "not ready"))
		return
	}

	logx.Info(h.Log, reqID, op, "ready")
	v1.WriteOKData(w, r, "ready")
}
