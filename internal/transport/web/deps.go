package web

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/category"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/health"
	"github.com/EgorLis/asset-catalog/internal/transport/web/v1/product"
)

// прикладной слой под HTTP
type Services struct {
	Products   product.Service
	Categories category.Service
}

type Infra struct {
	DB      health.Pinger
	Storage health.Pinger
	Cache   domain.Cache
}

type AuthDeps = mw.AuthDeps

// Metrics: Registerer для HTTP-метрик, Gatherer для /metrics.
type Metrics struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}
