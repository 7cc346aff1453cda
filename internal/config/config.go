package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataFile        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Sampling defaults applied when a request does not override them.
	SampleSize        int
	SampleStrategy    string
	SampleMinPerGroup int
	SampleSeed        uint64

	ViewCacheSize int

	PlaybackInterval time.Duration
	PlaybackWindow   int

	// Linked-event export.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	// Mapbox region backfill.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", time.Millisecond)
	if err != nil {
		return nil, err
	}
	playbackInterval, err := parseDuration("PLAYBACK_INTERVAL", "50ms", 0)
	if err != nil {
		return nil, err
	}

	sampleSize, err := parseInt("SAMPLE_SIZE", 2000, 0)
	if err != nil {
		return nil, err
	}
	minPerGroup, err := parseInt("SAMPLE_MIN_PER_GROUP", 5, 1)
	if err != nil {
		return nil, err
	}
	viewCacheSize, err := parseInt("VIEW_CACHE_SIZE", 256, 1)
	if err != nil {
		return nil, err
	}
	playbackWindow, err := parseInt("PLAYBACK_WINDOW", 10, 1)
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SAMPLE_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SAMPLE_SEED")
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DataFile:        sharedcfg.EnvOrDefault("DATA_FILE", "data/phivolcs_earthquakes.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SampleSize:        sampleSize,
		SampleStrategy:    sharedcfg.EnvOrDefault("SAMPLE_STRATEGY", "stratified"),
		SampleMinPerGroup: minPerGroup,
		SampleSeed:        seed,

		ViewCacheSize: viewCacheSize,

		PlaybackInterval: playbackInterval,
		PlaybackWindow:   playbackWindow,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "earthquake-links"),
		BatchSize:    batchSize,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.DataFile == "" {
		return nil, errors.New("DATA_FILE is required")
	}
	if cfg.SampleStrategy != "uniform" && cfg.SampleStrategy != "stratified" {
		return nil, fmt.Errorf("invalid SAMPLE_STRATEGY %q", cfg.SampleStrategy)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// ExportEnabled reports whether linked events can be published to Kafka.
func (c *Config) ExportEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string, minimum time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < minimum {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
