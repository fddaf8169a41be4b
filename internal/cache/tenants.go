// Package cache хранит в Redis копии записей тенантов.
// Тенанты не изменяются после создания, поэтому записи кэша не инвалидируются, а только истекают.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

const (
	keyPrefix  = "loyalty:tenant:"
	DefaultTTL = 10 * time.Minute
)

// TenantCache — read-through кэш тенантов поверх Redis.
type TenantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создаёт клиента Redis с настройками пула по умолчанию.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewTenantCache создаёт кэш. Нулевой ttl заменяется на DefaultTTL.
func NewTenantCache(client *redis.Client, ttl time.Duration) *TenantCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TenantCache{client: client, ttl: ttl}
}

func tenantKey(id string) string {
	return keyPrefix + id
}

// Get возвращает тенанта из кэша. Второй результат false означает промах.
func (c *TenantCache) Get(ctx context.Context, id string) (*model.Tenant, bool, error) {
	raw, err := c.client.Get(ctx, tenantKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var t model.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("decode cached tenant: %w", err)
	}
	return &t, true, nil
}

// Set сохраняет тенанта в кэше.
func (c *TenantCache) Set(ctx context.Context, t *model.Tenant) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tenant: %w", err)
	}
	if err := c.client.Set(ctx, tenantKey(t.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis.
func (c *TenantCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает клиента Redis.
func (c *TenantCache) Close() error {
	return c.client.Close()
}
