package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "kyc.submissions", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Wizard.SessionTTL)
}

func TestLoadFromEnvAndDotenv(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendRedis)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KYC_ADDR=:9999\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("KYC_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadMissingDotenvIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
