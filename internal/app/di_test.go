package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playready-proxy/internal/config"
	apphttp "github.com/allisson/playready-proxy/internal/http"
	"github.com/allisson/playready-proxy/internal/metrics"
)

func newFileStoreConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:          "error",
		ServerHost:        "127.0.0.1",
		ServerPort:        0,
		APIPrefix:         "/api",
		APIKeyStoreDriver: "file",
		APIKeyFile:        filepath.Join(t.TempDir(), "APIKEY.json"),
		CDMDevicesFile:    filepath.Join(t.TempDir(), "missing.yaml"),
		CDMDeviceName:     "sl2000",
		CDMDeviceFile:     "device/sl2000.prd",
		CDMEngineTimeout:  time.Second,
		MetricsNamespace:  "playready",
	}
}

func TestNewContainer(t *testing.T) {
	cfg := &config.Config{LogLevel: "info"}

	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainerLogger(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "debug"})

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestContainerLoggerDefaultLevel(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "invalid"})

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), -4))
	assert.True(t, logger.Enabled(context.Background(), 0))
}

func TestContainerLazyInitialization(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "info"})

	assert.Nil(t, container.logger)
	container.Logger()
	assert.NotNil(t, container.logger)
}

func TestContainerDB(t *testing.T) {
	t.Run("file store has no database", func(t *testing.T) {
		container := NewContainer(newFileStoreConfig(t))

		_, err := container.DB()
		require.Error(t, err)

		// The error is remembered.
		_, err2 := container.DB()
		assert.Equal(t, err, err2)
	})

	t.Run("invalid connection string", func(t *testing.T) {
		container := NewContainer(&config.Config{
			APIKeyStoreDriver:  "postgres",
			DBConnectionString: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		})

		_, err := container.DB()
		assert.Error(t, err)
	})
}

func TestContainerTxManagerWithoutDatabase(t *testing.T) {
	container := NewContainer(newFileStoreConfig(t))

	txManager, err := container.TxManager()
	require.NoError(t, err)

	called := false
	err = txManager.WithTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestContainerBusinessMetrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		container := NewContainer(newFileStoreConfig(t))

		bm, err := container.BusinessMetrics()
		require.NoError(t, err)
		assert.IsType(t, &metrics.NoOpBusinessMetrics{}, bm)

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		assert.Nil(t, provider)

		server, err := container.MetricsServer()
		require.NoError(t, err)
		assert.Nil(t, server)
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := newFileStoreConfig(t)
		cfg.MetricsEnabled = true
		container := NewContainer(cfg)

		bm, err := container.BusinessMetrics()
		require.NoError(t, err)
		assert.NotNil(t, bm)

		server, err := container.MetricsServer()
		require.NoError(t, err)
		require.NotNil(t, server)

		require.NoError(t, container.Shutdown(context.Background()))
	})
}

func TestContainerAPIKeyUseCase(t *testing.T) {
	container := NewContainer(newFileStoreConfig(t))

	useCase, err := container.APIKeyUseCase()
	require.NoError(t, err)

	issued, err := useCase.Issue(context.Background(), "alice")
	require.NoError(t, err)

	owner, err := useCase.Validate(context.Background(), issued.Key)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner.Username)
}

func TestContainerAPIKeyRepositoryUnsupportedDriver(t *testing.T) {
	cfg := newFileStoreConfig(t)
	cfg.APIKeyStoreDriver = "redis"
	container := NewContainer(cfg)

	_, err := container.APIKeyRepository()
	assert.ErrorContains(t, err, "unsupported api key store driver")

	_, err = container.APIKeyUseCase()
	assert.Error(t, err)
}

func TestContainerStartAPIKeyWatcher(t *testing.T) {
	cfg := newFileStoreConfig(t)
	cfg.APIKeyFileWatch = true
	container := NewContainer(cfg)

	require.NoError(t, container.StartAPIKeyWatcher())
	require.NoError(t, container.StartAPIKeyWatcher())
	require.NoError(t, container.Shutdown(context.Background()))
}

func TestContainerEngineRequiresURL(t *testing.T) {
	container := NewContainer(newFileStoreConfig(t))

	_, err := container.Engine()
	assert.ErrorIs(t, err, ErrEngineURLRequired)

	_, err = container.HTTPServer()
	assert.ErrorIs(t, err, ErrEngineURLRequired)
}

func TestContainerDeviceCatalogueFallback(t *testing.T) {
	container := NewContainer(newFileStoreConfig(t))

	catalogue, err := container.DeviceCatalogue()
	require.NoError(t, err)

	device, err := catalogue.Get("sl2000")
	require.NoError(t, err)
	assert.Equal(t, "device/sl2000.prd", device.Path)
}

func TestContainerHTTPServer(t *testing.T) {
	engine := httptest.NewServer(http.NotFoundHandler())
	defer engine.Close()

	cfg := newFileStoreConfig(t)
	cfg.CDMEngineURL = engine.URL
	container := NewContainer(cfg)

	server, err := container.HTTPServer()
	require.NoError(t, err)

	again, err := container.HTTPServer()
	require.NoError(t, err)
	assert.Same(t, server, again)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apphttp.PingMessage, body["responseData"]["message"])

	registry, err := container.SessionRegistry()
	require.NoError(t, err)
	assert.Len(t, registry.Devices(), 1)

	require.NoError(t, container.Shutdown(context.Background()))
}

func TestContainerShutdown(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "info"})

	assert.NoError(t, container.Shutdown(context.Background()))
}
