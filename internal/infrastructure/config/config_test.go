package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "fatoora-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "fatoora", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "", cfg.Redis.Host)
		assert.Equal(t, "Asia/Riyadh", cfg.Invoicing.FiscalTimezone)
		assert.Equal(t, 15, cfg.Invoicing.VATRate)
		assert.Equal(t, 10*time.Second, cfg.Invoicing.LockTTL)
		assert.Equal(t, 10, cfg.Entitlement.FreeTrialDays)
		assert.Equal(t, 5, cfg.Entitlement.RenewalWindowDays)
		assert.True(t, cfg.Idempotency.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	})

	t.Run("loads values from environment variables with FATOORA prefix", func(t *testing.T) {
		t.Setenv("FATOORA_APP_NAME", "test-app")
		t.Setenv("FATOORA_DATABASE_HOST", "testdb.local")
		t.Setenv("FATOORA_DATABASE_PORT", "5433")
		t.Setenv("FATOORA_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("FATOORA_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("FATOORA_REDIS_HOST", "cache.local")
		t.Setenv("FATOORA_INVOICING_FISCAL_TIMEZONE", "UTC")
		t.Setenv("FATOORA_INVOICING_LOCK_TTL", "3s")
		t.Setenv("FATOORA_ENTITLEMENT_FREE_TRIAL_DAYS", "14")
		t.Setenv("FATOORA_IDEMPOTENCY_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, "UTC", cfg.Invoicing.FiscalTimezone)
		assert.Equal(t, 3*time.Second, cfg.Invoicing.LockTTL)
		assert.Equal(t, 14, cfg.Entitlement.FreeTrialDays)
		assert.False(t, cfg.Idempotency.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("FATOORA_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("FATOORA_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown fiscal timezone", func(t *testing.T) {
		t.Setenv("FATOORA_INVOICING_FISCAL_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoicing.fiscal_timezone")
	})

	t.Run("rejects VAT rates other than 0 and 15", func(t *testing.T) {
		t.Setenv("FATOORA_INVOICING_VAT_RATE", "5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vat_rate")
	})

	t.Run("accepts an exempt VAT rate", func(t *testing.T) {
		t.Setenv("FATOORA_INVOICING_VAT_RATE", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Invoicing.VATRate)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("FATOORA_APP_ENV", "production")
		t.Setenv("FATOORA_DATABASE_PASSWORD", "secure-password")
		t.Setenv("FATOORA_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("FATOORA_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("FATOORA_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("forbids full SQL in traces", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("FATOORA_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
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
