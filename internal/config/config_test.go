package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/phivolcs_earthquakes.csv", cfg.DataFile)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2000, cfg.SampleSize)
	assert.Equal(t, "stratified", cfg.SampleStrategy)
	assert.Equal(t, 5, cfg.SampleMinPerGroup)
	assert.Equal(t, uint64(42), cfg.SampleSeed)
	assert.Equal(t, 256, cfg.ViewCacheSize)
	assert.Equal(t, 50*time.Millisecond, cfg.PlaybackInterval)
	assert.Equal(t, 10, cfg.PlaybackWindow)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.ExportEnabled())
	assert.Equal(t, "earthquake-links", cfg.KafkaTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_FILE", "/srv/quakes.csv")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SAMPLE_SIZE", "500")
	t.Setenv("SAMPLE_STRATEGY", "uniform")
	t.Setenv("SAMPLE_MIN_PER_GROUP", "3")
	t.Setenv("SAMPLE_SEED", "7")
	t.Setenv("VIEW_CACHE_SIZE", "16")
	t.Setenv("PLAYBACK_INTERVAL", "1s")
	t.Setenv("PLAYBACK_WINDOW", "25")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "links")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/quakes.csv", cfg.DataFile)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 500, cfg.SampleSize)
	assert.Equal(t, "uniform", cfg.SampleStrategy)
	assert.Equal(t, 3, cfg.SampleMinPerGroup)
	assert.Equal(t, uint64(7), cfg.SampleSeed)
	assert.Equal(t, 16, cfg.ViewCacheSize)
	assert.Equal(t, time.Second, cfg.PlaybackInterval)
	assert.Equal(t, 25, cfg.PlaybackWindow)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.ExportEnabled())
	assert.Equal(t, "links", cfg.KafkaTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_SampleSizeZeroDisablesSampling(t *testing.T) {
	t.Setenv("SAMPLE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.SampleSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"BATCH_SIZE", "0", "BATCH_SIZE"},
		{"BATCH_SIZE", "9999", "BATCH_SIZE"},
		{"MAPBOX_TIMEOUT", "bad", "MAPBOX_TIMEOUT"},
		{"PLAYBACK_INTERVAL", "soon", "PLAYBACK_INTERVAL"},
		{"SAMPLE_SIZE", "-5", "SAMPLE_SIZE"},
		{"SAMPLE_SIZE", "lots", "SAMPLE_SIZE"},
		{"SAMPLE_MIN_PER_GROUP", "0", "SAMPLE_MIN_PER_GROUP"},
		{"SAMPLE_SEED", "-1", "SAMPLE_SEED"},
		{"SAMPLE_STRATEGY", "systematic", "SAMPLE_STRATEGY"},
		{"VIEW_CACHE_SIZE", "0", "VIEW_CACHE_SIZE"},
		{"PLAYBACK_WINDOW", "0", "PLAYBACK_WINDOW"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
