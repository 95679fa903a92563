package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Ledger.MaxConflictRetries)
	assert.NotEmpty(t, cfg.Auth.SigningKey())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL", "30m")
	t.Setenv("HOSPITAL_TIMEZONE", "UTC")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.ipdnow.in, https://ops.ipdnow.in,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []byte("s3cret"), cfg.Auth.SigningKey())
	assert.Equal(t, time.UTC, cfg.Hospital.Location())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://admin.ipdnow.in", "https://ops.ipdnow.in"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "firestore")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_URLs(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "ipd", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ipd sslmode=disable", c.DatabaseDSN())
	assert.Equal(t, "postgres://u:p@db:5432/ipd?sslmode=disable", c.MigrationURL())
}
