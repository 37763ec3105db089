package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirinyoku/showbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemory(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "localhost", Port: 0},
		Storage: config.StorageMemory,
		Payment: config.PaymentConfig{Method: "wallet", WalletInitialBalance: 100},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { a.close(context.Background()) })

	assert.Nil(t, a.pool)
	assert.Nil(t, a.rdb)
	assert.Nil(t, a.pubsub)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsUnknownPaymentMethod(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageMemory,
		Payment: config.PaymentConfig{Method: "barter"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(context.Background(), cfg, logger)
	require.Error(t, err)
}
