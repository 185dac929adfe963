package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables a test relies on; viper ignores empty values.
func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "PORT", "STORE_DRIVER", "JWT_TTL", "KAFKA_BROKERS", "CORS_ORIGINS", "SMTP_PORT", "STORE_NAME", "ORDERS_STRICT_TRANSITIONS")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverScylla, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "Crown Mega Store", cfg.StoreName)
	assert.False(t, cfg.OrdersStrictTransitions)
	assert.Empty(t, cfg.EnvFile)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ORDERS_STRICT_TRANSITIONS", "true")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("API_RATE_LIMIT", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.OrdersStrictTransitions)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.APIRateLimit)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t, "BUSINESS_EMAIL")
	os.Unsetenv("BUSINESS_EMAIL")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUSINESS_EMAIL=orders@example.com\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BUSINESS_EMAIL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.EnvFile)
	assert.Equal(t, "orders@example.com", cfg.BusinessEmail)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, cfg.EnvFile)
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWTSecret: "s", StoreDriver: DriverMemory}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{StoreDriver: "mongo", APIRateLimit: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "mongo")
	assert.Contains(t, err.Error(), "API_RATE_LIMIT")

	cfg = &Config{JWTSecret: "s", StoreDriver: DriverScylla}
	assert.ErrorContains(t, cfg.Validate(), "SCYLLA_HOSTS")
}
