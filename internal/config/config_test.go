package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "events.domain", cfg.Kafka.Topic)
	require.True(t, cfg.Kafka.CreateTopic)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	require.Empty(t, cfg.Redis.Addr)
	require.Len(t, cfg.CORSOrigins, 2)
	require.Empty(t, cfg.EnvFile)
}

func TestLoadFrom_EnvFileAndEnvironment(t *testing.T) {
	clearEnv(t)

	root := t.TempDir()
	nested := filepath.Join(root, "cmd", "events")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	envFile := filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# local overrides\n"+
			"PORT=9090\n"+
			"KAFKA_BROKERS=\"k1:9092, k2:9092\"\n"+
			"REDIS_ADDR=localhost:6379\n"+
			"CACHE_TTL=30s\n"+
			"LOG_LEVEL=debug\n",
	), 0o600))

	t.Setenv("PORT", "7070")

	cfg, err := LoadFrom(nested)
	require.NoError(t, err)
	require.Equal(t, envFile, cfg.EnvFile)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 30*time.Second, cfg.Redis.TTL)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Port:            "8080",
		DatabaseURL:     "postgres://localhost/events",
		ShutdownTimeout: time.Second,
		Kafka:           KafkaConfig{Brokers: []string{"b:9092"}, Topic: "events"},
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Port = "http"
	bad.DatabaseURL = " "
	bad.Kafka.Brokers = nil
	err := bad.Validate()
	require.ErrorContains(t, err, "PORT")
	require.ErrorContains(t, err, "DATABASE_URL")
	require.ErrorContains(t, err, "KAFKA_BROKERS")
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	require.Nil(t, parseCSV(""))
	require.Equal(t, []string{"a", "b"}, parseCSV(" a, ,b ,"))
}
