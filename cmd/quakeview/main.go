// Command quakeview loads an earthquake bulletin and serves, prints, replays,
// or exports the derived views.
//
// Usage:
//
//	quakeview serve
//	quakeview summary --group area --period year
//	quakeview links --province "Davao Oriental" --recent-months 6
//	quakeview replay --year 2023
//	quakeview export --min-mag 4
//	quakeview validate -f data/phivolcs_earthquakes.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/quake-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/quake-explorer/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/config"
	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/observability"
	"github.com/couchcryptid/quake-explorer/internal/pipeline"
)

type cli struct {
	EnvFile   string `name:"env-file" default:".env" help:"Dotenv file read before the environment. Ignored when missing."`
	DataFile  string `name:"data-file" short:"f" help:"Bulletin CSV. Overrides DATA_FILE."`
	LogLevel  string `name:"log-level" help:"debug, info, warn or error. Overrides LOG_LEVEL."`
	LogFormat string `name:"log-format" help:"json or text. Overrides LOG_FORMAT."`

	Serve    serveCmd    `cmd:"" help:"Serve the JSON views over HTTP."`
	Summary  summaryCmd  `cmd:"" help:"Print per-group statistics or period changes."`
	Links    linksCmd    `cmd:"" help:"Print sequential links between events."`
	Replay   replayCmd   `cmd:"" help:"Replay events in time order as JSON frames."`
	Export   exportCmd   `cmd:"" help:"Publish linked events to Kafka."`
	Validate validateCmd `cmd:"" help:"Check a bulletin file and report what loading did."`
}

// apply copies flag overrides onto the environment configuration.
func (c *cli) apply(cfg *config.Config) {
	if c.DataFile != "" {
		cfg.DataFile = c.DataFile
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
}

// env is bound into every command's Run method.
type env struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	out     io.Writer
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("quakeview"),
		kong.Description("Explore earthquake bulletins: sequences, summaries and replays."),
		kong.UsageOnError(),
	)

	if err := loadEnvFile(c.EnvFile); err != nil {
		kctx.Fatalf("load %s: %v", c.EnvFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	c.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	e := &env{
		ctx:     ctx,
		cfg:     cfg,
		logger:  observability.NewLogger(cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
		out:     os.Stdout,
	}
	err = kctx.Run(e)
	stop()
	kctx.FatalIfErrorf(err)
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// service wires the loader, the optional Mapbox resolver and the view service.
func (e *env) service() *pipeline.Service {
	var resolver domain.RegionResolver
	if e.cfg.MapboxEnabled {
		client := mapbox.NewClient(e.cfg.MapboxToken, e.cfg.MapboxTimeout, e.metrics, e.logger)
		resolver = mapbox.NewCachedResolver(client, e.cfg.MapboxCacheSize, e.metrics)
		e.metrics.GeocodeEnabled.Set(1)
		e.logger.Info("mapbox region backfill enabled", "cache_size", e.cfg.MapboxCacheSize, "timeout", e.cfg.MapboxTimeout)
	} else {
		e.metrics.GeocodeEnabled.Set(0)
		e.logger.Info("mapbox region backfill disabled")
	}

	opts := pipeline.Options{
		DataFile: e.cfg.DataFile,
		Sample: analysis.SampleOptions{
			Target:      e.cfg.SampleSize,
			Strategy:    analysis.Strategy(e.cfg.SampleStrategy),
			Seed:        e.cfg.SampleSeed,
			MinPerGroup: e.cfg.SampleMinPerGroup,
			Group:       analysis.GroupProvince,
		},
		CacheSize: e.cfg.ViewCacheSize,
	}
	return pipeline.New(csvfile.NewLoader(e.logger), resolver, opts, e.logger, e.metrics)
}

// printWarnings reports recoverable conditions on stderr so stdout stays
// machine readable.
func printWarnings(ws []domain.Warning) {
	for _, w := range ws {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
}
