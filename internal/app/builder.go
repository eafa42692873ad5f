package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/asset-catalog/internal/auth/blacklist"
	"github.com/EgorLis/asset-catalog/internal/auth/token"
	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/config"
	"github.com/EgorLis/asset-catalog/internal/domain"
	redisx "github.com/EgorLis/asset-catalog/internal/infra/cache/redis"
	"github.com/EgorLis/asset-catalog/internal/infra/database/gormdb"
	"github.com/EgorLis/asset-catalog/internal/infra/database/postgres"
	s3storage "github.com/EgorLis/asset-catalog/internal/infra/storage/s3"
	"github.com/EgorLis/asset-catalog/internal/transport/web"
)

type App struct {
	config    *config.Config
	server    *web.Server
	log       *log.Logger
	reclaimer *catalog.AsyncReclaimer
	cache     domain.Cache
	repo      domain.Store
}

func NewLogger(name string) *log.Logger {
	return log.New(os.Stdout, "["+name+"] ", log.LstdFlags)
}

func sub(base *log.Logger, name string) *log.Logger {
	return log.New(base.Writer(), base.Prefix()+"["+name+"] ", base.Flags())
}

// OpenStore открывает хранилище метаданных по DB_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, base *log.Logger) (domain.Store, error) {
	switch cfg.DBDriver {
	case config.DriverGORM:
		base.Println("init GORM store")
		return gormdb.Open(cfg.DatabaseURL, sub(base, "gorm"))
	default:
		base.Println("init PostgreSQL")
		return postgres.NewPGRepo(ctx, sub(base, "postgres"), cfg.GetDSN(), cfg.DBScheme)
	}
}

// OpenStorage поднимает шлюз S3; obs == nil отключает метрики.
func OpenStorage(ctx context.Context, cfg *config.Config, base *log.Logger, obs s3storage.Observer) (*s3storage.Storage, error) {
	base.Println("init S3 storage")
	return s3storage.New(ctx, s3storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		UseSSL:        cfg.S3UseSSL,
		PathStyle:     cfg.S3PathStyle,
		PublicBaseURL: cfg.S3PublicBaseURL,
		DownloadTTL:   cfg.S3DownloadTTL,
	}, sub(base, "s3"), obs)
}

func Build(ctx context.Context) (*App, error) {
	base := NewLogger("app")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := OpenStore(ctx, cfg, base)
	if err != nil {
		return nil, fmt.Errorf("failed init store: %w", err)
	}
	base.Println("store is initialized")

	obs, err := s3storage.NewPrometheusObserver("asset_catalog", reg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed init storage metrics: %w", err)
	}
	s3, err := OpenStorage(ctx, cfg, base, obs)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed init s3: %w", err)
	}

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, sub(base, "redis"))
	if err := rc.Ping(ctx); err != nil {
		store.Close()
		rc.Close()
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthTokenTTL)
	bl := blacklist.NewStore(rc)

	reclaimer := catalog.NewReclaimer(s3, sub(base, "reclaim"), catalog.ReclaimConfig{
		Workers:    cfg.ReclaimWorkers,
		MaxElapsed: cfg.ReclaimMaxElapsed,
	})
	svc := &catalog.Service{
		Products:   store,
		Categories: store,
		Gateway:    s3,
		Reclaimer:  reclaimer,
		Log:        sub(base, "catalog"),
	}

	base.Println("init Server")
	server := web.New(sub(base, "server"), cfg,
		web.Services{Products: svc, Categories: svc},
		web.Infra{DB: store, Storage: s3, Cache: rc},
		web.AuthDeps{Tokens: tm, Blacklist: bl},
		web.Metrics{Registerer: reg, Gatherer: reg},
	)
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:    cfg,
		server:    server,
		log:       base,
		reclaimer: reclaimer,
		repo:      store,
		cache:     rc,
	}, nil
}

// Run держит сервер и воркеры очистки до отмены ctx, затем гасит всё по порядку.
func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")

	// воркеры очистки останавливаются после сервера
	reclaimCtx, stopReclaim := context.WithCancel(context.Background())
	defer stopReclaim()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.reclaimer.Run(reclaimCtx) })
	g.Go(a.server.Run)
	g.Go(func() error {
		<-gctx.Done()
		a.log.Println("stop application...")

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.server.Close(stopCtx)

		drainReclaim(stopCtx, a.reclaimer)
		stopReclaim()
		return nil
	})
	err := g.Wait()

	a.repo.Close()
	a.cache.Close()
	return err
}

func drainReclaim(ctx context.Context, r *catalog.AsyncReclaimer) {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for r.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
