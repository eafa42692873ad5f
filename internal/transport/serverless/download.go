// Package serverless адаптирует редирект на скачивание к API Gateway proxy-событиям.
package serverless

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/EgorLis/asset-catalog/internal/catalog"
	"github.com/EgorLis/asset-catalog/internal/domain"
	v1 "github.com/EgorLis/asset-catalog/internal/transport/web/v1"
)

type Downloader interface {
	ResolveDownload(ctx context.Context, id domain.ProductID) (catalog.Redirect, error)
}

type DownloadHandler struct {
	Log     *log.Logger
	Service Downloader
	// Cache: карточка продукта в кеше HTTP API, после скачивания её счётчик устарел
	Cache domain.Cache
}

// Handle: GET /products/{id}/download: 301 на подписанную ссылку.
func (h *DownloadHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	raw := req.PathParameters["id"]
	h.Log.Printf("download request id=%s request_id=%s", raw, req.RequestContext.RequestID)

	id, err := uuid.Parse(raw)
	if err != nil {
		return failure(domain.ErrBadParams), nil
	}
	redirect, err := h.Service.ResolveDownload(ctx, id)
	if err != nil {
		h.Log.Printf("resolve download id=%s: %v", id, err)
		return failure(err), nil
	}
	if h.Cache != nil {
		if err := h.Cache.Del(ctx, domain.CacheKeyProduct(id)); err != nil {
			h.Log.Printf("evict cached product id=%s: %v", id, err)
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: redirect.StatusCode,
		Headers: map[string]string{
			"Location":      redirect.URL,
			"Cache-Control": "no-store",
		},
	}, nil
}

// тот же конверт и коды, что и у HTTP API
func failure(err error) events.APIGatewayProxyResponse {
	status, env := v1.MapDomainError(err)
	body, mErr := json.Marshal(env)
	if mErr != nil {
		status, body = http.StatusInternalServerError, []byte(`{"error":{"code":1500}}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
