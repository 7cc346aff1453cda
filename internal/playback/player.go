// Package playback replays events in time order as pulsing ripple frames.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/observability"
)

// Options configures a Player.
type Options struct {
	Interval   time.Duration // pause between frames; 0 emits as fast as possible
	Window     int           // most recent events kept on screen
	PulseSteps int           // frames per event
}

// DefaultOptions keeps ten events visible and pulses each over 15 frames.
func DefaultOptions() Options {
	return Options{Interval: 80 * time.Millisecond, Window: 10, PulseSteps: 15}
}

// Ripple is one visible event in a frame.
type Ripple struct {
	EventID   string       `json:"event_id"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Magnitude float64      `json:"magnitude"`
	Label     string       `json:"label,omitempty"`
	Radius    float64      `json:"radius"` // metres
	Color     domain.Color `json:"color"`
}

// Frame is one render of the animation. Center is the event that was just
// added; Ripples lists every visible event, oldest first.
type Frame struct {
	Event    int          `json:"event"` // index of Center in time order
	Step     int          `json:"step"`
	Progress float64      `json:"progress"` // fraction of events shown
	Center   domain.Event `json:"center"`
	Ripples  []Ripple     `json:"ripples"`
}

// PulseRadius is the ripple radius for magnitude at pulse phase s in [0, 1].
// It grows from 3000 m per unit of magnitude to 8000 m at mid-pulse and back.
func PulseRadius(magnitude, s float64) float64 {
	return magnitude * (3000 + math.Sin(s*math.Pi)*5000)
}

// Player drives the animation loop.
type Player struct {
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPlayer creates a Player on the real clock.
func NewPlayer(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Player {
	return NewPlayerWithClock(opts, clockwork.NewRealClock(), logger, metrics)
}

// NewPlayerWithClock creates a Player that waits on clock.
func NewPlayerWithClock(opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Player {
	if opts.Window < 1 {
		opts.Window = 1
	}
	if opts.PulseSteps < 1 {
		opts.PulseSteps = 1
	}
	return &Player{opts: opts, clock: clock, logger: logger, metrics: metrics}
}

// Run emits PulseSteps frames per event in timestamp order. It returns nil
// when every frame was emitted or ctx was cancelled, and the emit error if
// emit fails.
func (p *Player) Run(ctx context.Context, events []domain.Event, emit func(Frame) error) error {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b domain.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	p.logger.Info("playback started",
		"events", len(ordered),
		"window", p.opts.Window,
		"pulse_steps", p.opts.PulseSteps,
		"interval", p.opts.Interval,
	)

	first := true
	for i := range ordered {
		visible := ordered[max(0, i+1-p.opts.Window) : i+1]
		for step := 0; step < p.opts.PulseSteps; step++ {
			if !first && !p.wait(ctx) {
				p.logger.Info("playback stopping", "reason", ctx.Err(), "event", i)
				return nil
			}
			first = false

			frame := Frame{
				Event:    i,
				Step:     step,
				Progress: float64(i+1) / float64(len(ordered)),
				Center:   ordered[i],
				Ripples:  ripples(visible, p.phase(step)),
			}
			if err := emit(frame); err != nil {
				return fmt.Errorf("emit frame %d/%d: %w", i, step, err)
			}
			p.metrics.PlaybackFrames.Inc()
		}
	}
	p.logger.Info("playback completed", "events", len(ordered))
	return nil
}

// phase spreads steps evenly over [0, 1], both ends included.
func (p *Player) phase(step int) float64 {
	if p.opts.PulseSteps == 1 {
		return 0
	}
	return float64(step) / float64(p.opts.PulseSteps-1)
}

func (p *Player) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if p.opts.Interval <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(p.opts.Interval):
		return true
	}
}

func ripples(events []domain.Event, s float64) []Ripple {
	out := make([]Ripple, len(events))
	for i, e := range events {
		out[i] = Ripple{
			EventID:   e.ID,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			Magnitude: e.Magnitude,
			Label:     e.Area,
			Radius:    PulseRadius(e.Magnitude, s),
			Color:     domain.CategoryColor(e.Category),
		}
	}
	return out
}
