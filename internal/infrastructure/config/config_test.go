package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every CRM_ variable used below for the duration of a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CRM_APP_NAME", "CRM_APP_ENV", "CRM_APP_PORT",
		"CRM_DATABASE_DRIVER", "CRM_DATABASE_HOST", "CRM_DATABASE_PORT", "CRM_DATABASE_USER",
		"CRM_DATABASE_PASSWORD", "CRM_DATABASE_DBNAME", "CRM_DATABASE_SSLMODE",
		"CRM_DATABASE_MAX_OPEN_CONNS", "CRM_DATABASE_MAX_IDLE_CONNS",
		"CRM_REDIS_ENABLED", "CRM_PRINTING_BACKEND", "CRM_PRINTING_LOCALE",
		"CRM_PRINTING_CHROME_ENABLED", "CRM_PRINTING_ASSET_TIMEOUT",
		"CRM_STORAGE_DRIVER", "CRM_STORAGE_BUCKET", "CRM_HTTP_CORS_ALLOW_ORIGINS",
		"CRM_HTTP_RENDER_RATE_LIMIT", "CRM_TELEMETRY_ENABLED", "CRM_TELEMETRY_SAMPLING_RATIO",
		"CRM_TELEMETRY_COLLECTOR_ENDPOINT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "crm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "crm", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "LAYOUT", cfg.Printing.Backend)
		assert.Equal(t, "da-DK", cfg.Printing.Locale)
		assert.Equal(t, "DKK", cfg.Printing.Currency)
		assert.Equal(t, 5*time.Second, cfg.Printing.AssetTimeout)
		assert.Equal(t, int64(4<<20), cfg.Printing.AssetMaxBytes)
		assert.Equal(t, "none", cfg.Storage.Driver)
		assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	})

	t.Run("loads values from environment variables with CRM prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_APP_NAME", "test-app")
		t.Setenv("CRM_APP_PORT", "9000")
		t.Setenv("CRM_DATABASE_DRIVER", "sqlite")
		t.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CRM_REDIS_ENABLED", "true")
		t.Setenv("CRM_PRINTING_BACKEND", "COMPONENT")
		t.Setenv("CRM_PRINTING_ASSET_TIMEOUT", "2s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "COMPONENT", cfg.Printing.Backend)
		assert.Equal(t, 2*time.Second, cfg.Printing.AssetTimeout)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_Telemetry(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 60*time.Second, cfg.Telemetry.MetricsInterval)
	})

	t.Run("env overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_TELEMETRY_ENABLED", "true")
		t.Setenv("CRM_TELEMETRY_COLLECTOR_ENDPOINT", "otel:4317")
		t.Setenv("CRM_TELEMETRY_SAMPLING_RATIO", "0.25")
		t.Setenv("CRM_HTTP_RENDER_RATE_LIMIT", "30")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otel:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 30, cfg.HTTP.RenderRateLimit)
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_PrintingAndStorageValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"CRM_PRINTING_BACKEND": "WORD"},
			wantErr: "printing.backend",
		},
		{
			name:    "html backend without chrome",
			env:     map[string]string{"CRM_PRINTING_BACKEND": "HTML"},
			wantErr: "chrome_enabled",
		},
		{
			name: "html backend with chrome",
			env:  map[string]string{"CRM_PRINTING_BACKEND": "HTML", "CRM_PRINTING_CHROME_ENABLED": "true"},
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"CRM_STORAGE_DRIVER": "s3"},
			wantErr: "storage.bucket",
		},
		{
			name: "s3 with bucket",
			env:  map[string]string{"CRM_STORAGE_DRIVER": "s3", "CRM_STORAGE_BUCKET": "documents"},
		},
		{
			name:    "unknown storage driver",
			env:     map[string]string{"CRM_STORAGE_DRIVER": "ftp"},
			wantErr: "storage.driver",
		},
		{
			name:    "unknown database driver",
			env:     map[string]string{"CRM_DATABASE_DRIVER": "mysql"},
			wantErr: "database.driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CRM_APP_ENV", "production")
		t.Setenv("CRM_DATABASE_PASSWORD", "secure-password")
		t.Setenv("CRM_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CRM_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CRM_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CRM_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be postgres in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "crm.toml")
	content := `
[app]
name = "file-app"

[printing]
backend = "COMPONENT"
locale = "en-US"
currency = "USD"

[storage]
driver = "fs"
base_path = "/tmp/archive"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-app", cfg.App.Name)
	assert.Equal(t, "COMPONENT", cfg.Printing.Backend)
	assert.Equal(t, "en-US", cfg.Printing.Locale)
	assert.Equal(t, "USD", cfg.Printing.Currency)
	assert.Equal(t, "fs", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/archive", cfg.Storage.BasePath)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
