package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit_NoEndpointIsNoop(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := Init(context.Background(), Config{}, log)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	shutdown(context.Background())
}
