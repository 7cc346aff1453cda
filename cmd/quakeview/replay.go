package main

import (
	"encoding/json"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/playback"
)

type replayCmd struct {
	filterFlags   `embed:""`
	samplingFlags `embed:""`

	Interval   time.Duration `help:"Pause between frames. Overrides PLAYBACK_INTERVAL."`
	Window     int           `help:"Events kept visible. Overrides PLAYBACK_WINDOW."`
	PulseSteps int           `name:"pulse-steps" default:"15" help:"Frames per event."`
}

func (c *replayCmd) Run(e *env) error {
	q, err := c.query()
	if err != nil {
		return err
	}
	if err := c.samplingFlags.apply(&q); err != nil {
		return err
	}

	res, err := e.service().Events(e.ctx, q)
	if err != nil {
		return err
	}
	printWarnings(res.Warnings)

	events := make([]domain.Event, len(res.Data))
	for i := range res.Data {
		events[i] = res.Data[i].Event
	}

	player := playback.NewPlayer(c.options(e), e.logger, e.metrics)
	enc := json.NewEncoder(e.out)
	return player.Run(e.ctx, events, func(f playback.Frame) error {
		return enc.Encode(f)
	})
}

func (c *replayCmd) options(e *env) playback.Options {
	opts := playback.Options{
		Interval:   e.cfg.PlaybackInterval,
		Window:     e.cfg.PlaybackWindow,
		PulseSteps: c.PulseSteps,
	}
	if c.Interval > 0 {
		opts.Interval = c.Interval
	}
	if c.Window > 0 {
		opts.Window = c.Window
	}
	if opts.PulseSteps < 1 {
		opts.PulseSteps = playback.DefaultOptions().PulseSteps
	}
	return opts
}
