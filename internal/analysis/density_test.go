package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

func group(province string, mags ...float64) []domain.Event {
	out := make([]domain.Event, len(mags))
	for i, m := range mags {
		out[i] = quake(province+string(rune('0'+i)), province, "", "2020-01-01 00:00", m)
	}
	return out
}

func TestDensity(t *testing.T) {
	var events []domain.Event
	events = append(events, group("Ok", 3, 4, 5, 6, 7)...)
	events = append(events, group("Small", 3, 4, 5, 6)...)
	events = append(events, group("Flat", 5, 5, 5, 5, 5)...)

	curves, warnings := Density(events, GroupProvince, DensityOptions{Points: 51, MinRows: 5})

	require.Len(t, curves, 1)
	c := curves[0]
	assert.Equal(t, "Ok", c.Group)
	assert.Equal(t, 5, c.Rows)
	require.Len(t, c.X, 51)
	require.Len(t, c.Y, 51)
	assert.Equal(t, 3.0, c.X[0])
	assert.InDelta(t, 7.0, c.X[50], 1e-12)
	assert.InDelta(t, math.Sqrt(2.5)*math.Pow(5, -0.2), c.Bandwidth, 1e-12)
	assert.InDelta(t, c.Y[0], c.Y[50], 1e-12, "symmetric data gives a symmetric curve")
	for _, y := range c.Y {
		assert.Greater(t, y, 0.0)
	}
	assert.Greater(t, c.Y[25], c.Y[0], "peak in the middle")

	require.Len(t, warnings, 2)
	groups := []string{warnings[0].Group, warnings[1].Group}
	assert.ElementsMatch(t, []string{"Small", "Flat"}, groups)
	for _, w := range warnings {
		assert.Equal(t, domain.WarnInsufficientGroupSize, w.Kind)
	}
}

func TestDensity_Defaults(t *testing.T) {
	opts := DefaultDensityOptions()
	assert.Equal(t, 1000, opts.Points)
	assert.Equal(t, 5, opts.MinRows)
}

func TestHistogram(t *testing.T) {
	var events []domain.Event
	events = append(events, group("A", 1, 1.5, 2, 3)...)
	events = append(events, group("B", 5)...)

	got := Histogram(events, GroupProvince, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Group)
	require.Len(t, got[0].Edges, 3)
	assert.Equal(t, []float64{2, 2}, got[0].Counts)

	assert.Equal(t, "B", got[1].Group)
	assert.Equal(t, 5.0, got[1].Edges[0])
	total := 0.0
	for _, c := range got[1].Counts {
		total += c
	}
	assert.Equal(t, 1.0, total)
}

func TestGridSizesAreClamped(t *testing.T) {
	events := group("A", 1, 2, 3, 4, 5)

	curves, _ := Density(events, GroupProvince, DensityOptions{Points: math.MaxInt, MinRows: 5})
	require.Len(t, curves, 1)
	assert.Len(t, curves[0].X, MaxDensityPoints)

	curves, _ = Density(events, GroupProvince, DensityOptions{Points: -3, MinRows: 5})
	require.Len(t, curves, 1)
	assert.Len(t, curves[0].X, 2)

	hist := Histogram(events, GroupProvince, math.MaxInt)
	require.Len(t, hist, 1)
	assert.Len(t, hist[0].Edges, MaxHistogramBins+1)
	assert.Len(t, hist[0].Counts, MaxHistogramBins)
}
