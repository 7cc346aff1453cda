package domain

import (
	"math"
	"sort"
	"strings"
)

// Color is an RGBA quadruple in the order the map layers expect.
type Color [4]uint8

// Bucket is one ordered band of a Scheme.
type Bucket struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Color Color  `json:"color"`
}

// Scheme partitions a continuous axis into len(Thresholds)+1 ordered buckets.
// Thresholds are ascending; each bucket is closed on its lower bound.
type Scheme struct {
	Name       string
	Thresholds []float64
	Buckets    []Bucket
}

// Index returns the number of thresholds ≤ v. NaN and -Inf clamp to the
// first bucket, +Inf to the last.
func (s Scheme) Index(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return sort.Search(len(s.Thresholds), func(i int) bool { return s.Thresholds[i] > v })
}

// Bucket maps v to its band. It is total over float64.
func (s Scheme) Bucket(v float64) Bucket {
	return s.Buckets[s.Index(v)]
}

// BucketFor is the free-function form of Scheme.Bucket.
func BucketFor(v float64, s Scheme) Bucket {
	return s.Bucket(v)
}

// LegendEntry describes a bucket's bounds. Open ends are nil.
type LegendEntry struct {
	Bucket
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Legend lists every bucket with its [min, max) range.
func (s Scheme) Legend() []LegendEntry {
	out := make([]LegendEntry, len(s.Buckets))
	for i, b := range s.Buckets {
		e := LegendEntry{Bucket: b}
		if i > 0 {
			lo := s.Thresholds[i-1]
			e.Min = &lo
		}
		if i < len(s.Thresholds) {
			hi := s.Thresholds[i]
			e.Max = &hi
		}
		out[i] = e
	}
	return out
}

func newScheme(name string, thresholds []float64, labels []string, colors []Color) Scheme {
	buckets := make([]Bucket, len(labels))
	for i := range labels {
		buckets[i] = Bucket{ID: i, Label: labels[i], Color: colors[i]}
	}
	return Scheme{Name: name, Thresholds: thresholds, Buckets: buckets}
}

// MagnitudeScheme is the ten-level magnitude intensity scale.
var MagnitudeScheme = newScheme("magnitude",
	[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
	[]string{
		"barely perceptible",
		"scarcely perceptible",
		"weak",
		"moderately strong",
		"strong",
		"very strong",
		"destructive",
		"very destructive",
		"devastating",
		"completely devastating",
	},
	[]Color{
		{255, 255, 255, 180},
		{200, 200, 200, 180},
		{173, 216, 230, 180},
		{0, 255, 255, 180},
		{0, 255, 0, 180},
		{255, 255, 0, 180},
		{255, 165, 0, 180},
		{255, 69, 0, 180},
		{255, 0, 0, 180},
		{139, 0, 0, 180},
	},
)

// TimeDeltaScheme encodes how soon the next event in a chain followed, in hours.
var TimeDeltaScheme = newScheme("time_delta",
	[]float64{1, 24},
	[]string{"immediate", "same day", "delayed"},
	[]Color{
		{255, 0, 0, 200},
		{255, 165, 0, 200},
		{0, 191, 255, 200},
	},
)

// Schemes indexes the built-in schemes by name.
var Schemes = map[string]Scheme{
	MagnitudeScheme.Name: MagnitudeScheme,
	TimeDeltaScheme.Name: TimeDeltaScheme,
}

var categoryColors = map[string]Color{
	"SCARCELY PERCEPTIBLE":   {255, 255, 255, 150},
	"SLIGHTLY FELT":          {160, 230, 255, 150},
	"WEAK":                   {0, 255, 255, 150},
	"MODERATELY STRONG":      {0, 255, 0, 150},
	"STRONG":                 {176, 255, 0, 150},
	"VERY STRONG":            {255, 255, 0, 150},
	"DESTRUCTIVE":            {255, 165, 0, 150},
	"VERY DESTRUCTIVE":       {255, 102, 0, 150},
	"DEVASTATING":            {255, 0, 0, 150},
	"COMPLETELY DEVASTATING": {153, 0, 0, 150},
}

// CategoryColor returns the colour for a reported intensity label.
// Unknown labels are white.
func CategoryColor(label string) Color {
	if c, ok := categoryColors[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return c
	}
	return Color{255, 255, 255, 150}
}

// ArcColor shades sequential arcs from red toward white as magnitude grows.
func ArcColor(magnitude float64) Color {
	g := magnitude * 30
	switch {
	case math.IsNaN(g) || g < 0:
		g = 0
	case g > 255:
		g = 255
	}
	return Color{255, uint8(g), uint8(g), 200}
}
