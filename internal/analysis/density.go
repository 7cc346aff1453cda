package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// Grid limits for Density and Histogram.
const (
	MaxDensityPoints = 10000
	MaxHistogramBins = 1000
)

// DensityOptions configures Density.
type DensityOptions struct {
	Points  int // evaluation grid size
	MinRows int // groups with fewer rows are skipped
}

// DefaultDensityOptions returns a 1000-point grid and a five-row minimum.
func DefaultDensityOptions() DensityOptions {
	return DensityOptions{Points: 1000, MinRows: 5}
}

// DensityCurve is a Gaussian kernel density estimate of magnitude.
type DensityCurve struct {
	Group     string    `json:"group"`
	Rows      int       `json:"rows"`
	Bandwidth float64   `json:"bandwidth"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

// Density estimates the magnitude distribution of each group with Scott's
// rule bandwidth (n^-1/5 · σ). Undersized or zero-spread groups are skipped
// with a warning.
func Density(events []domain.Event, key GroupKey, opts DensityOptions) ([]DensityCurve, []domain.Warning) {
	opts.Points = min(max(opts.Points, 2), MaxDensityPoints)
	if opts.MinRows < 2 {
		opts.MinRows = 2
	}

	var (
		curves   []DensityCurve
		warnings []domain.Warning
	)
	for _, grp := range partition(events, key) {
		g, label := grp.events, grp.label
		if len(g) < opts.MinRows {
			warnings = append(warnings, domain.InsufficientGroup(label, len(g), opts.MinRows, "density estimate"))
			continue
		}

		mags := magnitudes(g)
		std := stat.StdDev(mags, nil)
		if std == 0 || math.IsNaN(std) {
			w := domain.InsufficientGroup(label, len(g), opts.MinRows, "density estimate")
			w.Message = fmt.Sprintf("density estimate skipped for group %q: magnitudes have no spread", label)
			warnings = append(warnings, w)
			continue
		}

		bw := std * math.Pow(float64(len(mags)), -0.2)
		x := floats.Span(make([]float64, opts.Points), floats.Min(mags), floats.Max(mags))
		y := make([]float64, len(x))
		kernels := make([]distuv.Normal, len(mags))
		for i, m := range mags {
			kernels[i] = distuv.Normal{Mu: m, Sigma: bw}
		}
		for i, xi := range x {
			var sum float64
			for _, k := range kernels {
				sum += k.Prob(xi)
			}
			y[i] = sum / float64(len(kernels))
		}

		curves = append(curves, DensityCurve{
			Group:     label,
			Rows:      len(g),
			Bandwidth: bw,
			X:         x,
			Y:         y,
		})
	}
	return curves, warnings
}

// HistogramSeries counts magnitudes into equal-width bins. Edges has one more
// entry than Counts.
type HistogramSeries struct {
	Group  string    `json:"group"`
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// Histogram bins each group's magnitudes. bins is clamped to
// [1, MaxHistogramBins].
func Histogram(events []domain.Event, key GroupKey, bins int) []HistogramSeries {
	bins = min(max(bins, 1), MaxHistogramBins)
	groups := partition(events, key)

	out := make([]HistogramSeries, 0, len(groups))
	for _, grp := range groups {
		label := grp.label
		mags := magnitudes(grp.events)
		slices.Sort(mags)

		lo, hi := mags[0], mags[len(mags)-1]
		if hi == lo {
			hi = lo + 1
		}
		// The last divider is exclusive, so nudge it past the maximum.
		edges := floats.Span(make([]float64, bins+1), lo, hi)
		edges[bins] = math.Nextafter(hi, math.Inf(1))

		out = append(out, HistogramSeries{
			Group:  label,
			Edges:  edges,
			Counts: stat.Histogram(nil, edges, mags, nil),
		})
	}
	return out
}

func magnitudes(events []domain.Event) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Magnitude
	}
	return out
}
