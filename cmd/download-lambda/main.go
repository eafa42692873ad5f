package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/EgorLis/asset-catalog/internal/app"
	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/config"
	redisx "github.com/EgorLis/asset-catalog/internal/infra/cache/redis"
	"github.com/EgorLis/asset-catalog/internal/transport/serverless"
)

var handler *serverless.DownloadHandler

// Соединения поднимаются один раз на контейнер и переживают вызовы.
func init() {
	ctx := context.Background()
	logger := app.NewLogger("download-lambda")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed load config: %v", err)
	}
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed init store: %v", err)
	}
	s3, err := app.OpenStorage(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("failed init s3: %v", err)
	}

	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, log.New(logger.Writer(), logger.Prefix()+"[redis] ", logger.Flags()))

	svc := &catalog.Service{Products: store, Categories: store, Gateway: s3, Log: logger}
	handler = &serverless.DownloadHandler{Log: logger, Service: svc, Cache: rc}
}

func main() {
	lambda.Start(handler.Handle)
}
