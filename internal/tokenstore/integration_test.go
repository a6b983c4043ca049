package tokenstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"storefront-client/pkg/utils"

	"github.com/google/uuid"
)

// Integration tests are opt-in: STOREFRONT_REDIS_ADDR and STOREFRONT_DATABASE_URL.

func TestRedisBackend(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_ADDR"))
	if addr == "" {
		t.Skip("integration test skipped: STOREFRONT_REDIS_ADDR is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("integration test skipped: redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseStore(t, func(t *testing.T) Backend {
		return NewRedisBackend(rdb, "test-"+uuid.NewString())
	})
}

func TestPostgresBackend(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("STOREFRONT_DATABASE_URL"))
	if dsn == "" {
		t.Skip("integration test skipped: STOREFRONT_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := utils.OpenPostgres(ctx, "", dsn, utils.PostgresPoolConfig{})
	if err != nil {
		t.Skipf("integration test skipped: postgres unreachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := NewPostgresBackend(db, "schema").EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	exerciseStore(t, func(t *testing.T) Backend {
		ns := "test-" + uuid.NewString()
		t.Cleanup(func() {
			_, _ = db.Exec(`DELETE FROM session_kv WHERE namespace = $1`, ns)
		})
		return NewPostgresBackend(db, ns)
	})
}
