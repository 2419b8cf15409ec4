//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"kycdesk/internal/platform/config"
	"kycdesk/internal/platform/redis"
)

// RedisContainer is a disposable Redis reached through the same client the
// server uses.
type RedisContainer struct {
	*redis.Client
	URL string
}

// NewRedisContainer starts Redis for the lifetime of t.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}

	client, err := redis.Open(ctx, config.RedisConfig{
		URL:          url,
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "kyc:",
	})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return &RedisContainer{Client: client, URL: url}
}

// Flush empties the database between subtests.
func (r *RedisContainer) Flush(ctx context.Context) error {
	return r.FlushDB(ctx).Err()
}
