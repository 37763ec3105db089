package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestNewPostgres(t *testing.T) {
	t.Setenv("STORAGE", StoragePostgres)
	t.Setenv("POSTGRES_USER", "showbook")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "showbook")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "postgres://showbook:secret@db:6543/showbook?sslmode=disable", cfg.Postgres.DSN())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "eighty"}},
		{"bad storage", map[string]string{"STORAGE": "sqlite"}},
		{"postgres without user", map[string]string{"STORAGE": StoragePostgres, "POSTGRES_USER": ""}},
		{"bad payment timeout", map[string]string{"PAYMENT_TIMEOUT": "10"}},
		{"bad idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "soon"}},
		{"zero rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "0"}},
		{"negative rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New()
			require.Error(t, err)
		})
	}
}
