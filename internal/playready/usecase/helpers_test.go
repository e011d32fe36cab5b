package usecase_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/playready-proxy/internal/metrics"
	"github.com/allisson/playready-proxy/internal/playready/domain"
	"github.com/allisson/playready-proxy/internal/playready/enginetest"
	"github.com/allisson/playready-proxy/internal/playready/repository"
	"github.com/allisson/playready-proxy/internal/playready/usecase"
)

const sampleWRMHeader = `<WRMHEADER xmlns="http://schemas.microsoft.com/DRM/2007/03/PlayReadyHeader" version="4.0.0.0">` +
	`<DATA><KID>4Rplb+TbNES8tGkNFWTEHA==</KID></DATA></WRMHEADER>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalogue(t *testing.T, names ...string) *repository.DeviceCatalogue {
	t.Helper()
	devices := make([]domain.Device, 0, len(names))
	for _, n := range names {
		devices = append(devices, domain.Device{Name: n, Path: "device/" + n + ".prd"})
	}
	catalogue, err := repository.NewDeviceCatalogue(devices)
	require.NoError(t, err)
	return catalogue
}

func newRegistry(t *testing.T, engine usecase.Engine, names ...string) usecase.SessionRegistry {
	t.Helper()
	return usecase.NewSessionRegistry(
		newCatalogue(t, names...),
		engine,
		metrics.NewNoOpBusinessMetrics(),
		discardLogger(),
	)
}

func newFakeEngine() *enginetest.FakeEngine {
	return enginetest.New()
}
