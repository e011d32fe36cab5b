package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "/api", cfg.APIPrefix)
				assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "file", cfg.APIKeyStoreDriver)
				assert.Equal(t, "APIKEY.json", cfg.APIKeyFile)
				assert.True(t, cfg.APIKeyFileWatch)
				assert.Equal(t, "devices.yaml", cfg.CDMDevicesFile)
				assert.Empty(t, cfg.CDMEngineURL)
				assert.Equal(t, 10*time.Second, cfg.CDMEngineTimeout)
				assert.True(t, cfg.CORSEnabled)
				assert.Equal(t, "*", cfg.CORSAllowOrigins)
				assert.Equal(t, "playready", cfg.MetricsNamespace)
				assert.False(t, cfg.UsesSQLStore())
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST": "localhost",
				"SERVER_PORT": "9090",
				"API_PREFIX":  "/proxy",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
				assert.Equal(t, "/proxy", cfg.APIPrefix)
			},
		},
		{
			name: "load sql api key store",
			envVars: map[string]string{
				"APIKEY_STORE_DRIVER":     "mysql",
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.UsesSQLStore())
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load single device and remote engine",
			envVars: map[string]string{
				"CDM_DEVICE_NAME":            "sl2000",
				"CDM_DEVICE_FILE":            "device/sl2000.prd",
				"CDM_ENGINE_URL":             "http://cdm.internal:7723",
				"CDM_ENGINE_SECRET":          "s3cr3t",
				"CDM_ENGINE_TIMEOUT_SECONDS": "3",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sl2000", cfg.CDMDeviceName)
				assert.Equal(t, "device/sl2000.prd", cfg.CDMDeviceFile)
				assert.Equal(t, "http://cdm.internal:7723", cfg.CDMEngineURL)
				assert.Equal(t, "s3cr3t", cfg.CDMEngineSecret)
				assert.Equal(t, 3*time.Second, cfg.CDMEngineTimeout)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	for level, mode := range map[string]string{
		"debug":   "debug",
		"info":    "release",
		"warn":    "release",
		"error":   "release",
		"unknown": "release",
	} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, mode, cfg.GetGinMode(), level)
	}
}
