package utils

import (
	"context"
	"testing"
)

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379", MinIdleConns: -1}.withDefaults()
	if c.PoolSize != 4 {
		t.Fatalf("expected pool size 4, got %d", c.PoolSize)
	}
	if c.MinIdleConns != 0 {
		t.Fatalf("expected negative min idle conns clamped, got %d", c.MinIdleConns)
	}
}
