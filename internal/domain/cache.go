package domain

import "context"

// Ключи кеша
func CacheKeyProduct(id ProductID) string { return "product:" + id.String() }
func CacheKeyTokenJTI(jti string) string  { return "jti:" + jti }

// Простой k/v интерфейс, реализация в Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}
