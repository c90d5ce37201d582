package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "wager-service")

	cfg := Load()
	require.Equal(t, "local", cfg.Env)
	require.Equal(t, "postgres", cfg.StoreDriver)
	require.Equal(t, "wager_events", cfg.TopicWagerEvents)
	require.Equal(t, "wager_events_dlq", cfg.TopicWagerEventsDLQ)
	require.Equal(t, "8084", cfg.HTTPPort)
	require.Equal(t, "9100", cfg.MetricsPort)
	require.Equal(t, 3, cfg.MaxRetries)
	require.True(t, cfg.StrictTerminal)
	require.True(t, cfg.DedupTransactions)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, "wagers", cfg.MongoCollection)
	// brokers sempre têm default; publicar no seeder exige SEED_PUBLISH explícito
	require.Equal(t, "localhost:9092", cfg.KafkaBrokers)
	require.False(t, cfg.SeedPublish)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "wager-seeder")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("STRICT_TERMINAL", "false")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SEED_COUNT", "25")
	t.Setenv("SEED_PREFIX", "DEMO")
	t.Setenv("SEED_PUBLISH", "true")

	cfg := Load()
	require.Equal(t, "mongo", cfg.StoreDriver)
	require.Equal(t, 7, cfg.MaxRetries)
	require.False(t, cfg.StrictTerminal)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
	require.Equal(t, 25, cfg.SeedCount)
	require.Equal(t, "DEMO", cfg.SeedPrefix)
	require.True(t, cfg.SeedPublish)
	require.Empty(t, cfg.HTTPPort)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "many")
	t.Setenv("DEDUP_TRANSACTIONS", "perhaps")

	cfg := Load()
	require.Equal(t, 3, cfg.MaxRetries)
	require.True(t, cfg.DedupTransactions)
}
