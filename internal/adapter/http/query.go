package http

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/pipeline"
)

// parseQuery turns URL parameters into a pipeline.Query. Unknown parameters
// are ignored; malformed ones are an error.
func parseQuery(v url.Values) (pipeline.Query, error) {
	var (
		q   pipeline.Query
		err error
	)

	if q.Start, err = parseDay(v, "start"); err != nil {
		return q, err
	}
	if q.End, err = parseDay(v, "end"); err != nil {
		return q, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, fmt.Errorf("end %s is before start %s", v.Get("end"), v.Get("start"))
	}
	if q.Year, err = parseInt(v, "year", 1, math.MaxInt); err != nil {
		return q, err
	}
	if q.RecentMonths, err = parseInt(v, "recent_months", 1, math.MaxInt); err != nil {
		return q, err
	}
	if q.MinMagnitude, err = parseFloat(v, "min_mag"); err != nil {
		return q, err
	}
	if q.MaxMagnitude, err = parseFloat(v, "max_mag"); err != nil {
		return q, err
	}
	if q.MinMagnitude != nil && q.MaxMagnitude != nil && *q.MaxMagnitude < *q.MinMagnitude {
		return q, fmt.Errorf("max_mag %g is below min_mag %g", *q.MaxMagnitude, *q.MinMagnitude)
	}
	q.Provinces = parseList(v, "province")
	q.Areas = parseList(v, "area")
	q.Categories = parseList(v, "category")
	if q.Bounds, err = parseBBox(v.Get("bbox")); err != nil {
		return q, err
	}

	if v.Has("sample") {
		n, err := parseInt(v, "sample", 0, math.MaxInt)
		if err != nil {
			return q, err
		}
		q.Sample = &n
	}
	if s := v.Get("strategy"); s != "" {
		if q.Strategy, err = analysis.ParseStrategy(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("group"); s != "" {
		if q.Group, err = analysis.ParseGroupKey(s); err != nil {
			return q, err
		}
	}
	if q.Period, err = analysis.ParsePeriod(v.Get("period")); err != nil {
		return q, err
	}
	if q.Metric, err = analysis.ParseMetric(v.Get("metric")); err != nil {
		return q, err
	}
	if s := v.Get("window"); s != "" {
		days, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(days) || days <= 0 || days > maxWindowDays {
			return q, fmt.Errorf("invalid window %q: want a positive number of days", s)
		}
		q.Window = time.Duration(days * float64(24*time.Hour))
	}
	if q.Points, err = parseInt(v, "points", 2, analysis.MaxDensityPoints); err != nil {
		return q, err
	}
	if q.Bins, err = parseInt(v, "bins", 1, analysis.MaxHistogramBins); err != nil {
		return q, err
	}
	return q, nil
}

func parseDay(v url.Values, key string) (time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, s)
	}
	return t, nil
}

// maxWindowDays keeps the rolling window within time.Duration range.
const maxWindowDays = 36500

// parseInt returns 0 for an absent key.
func parseInt(v url.Values, key string, minimum, maximum int) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s %q: want an integer >= %d", key, s, minimum)
	}
	if n > maximum {
		return 0, fmt.Errorf("invalid %s %q: want an integer <= %d", key, s, maximum)
	}
	return n, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func parseFloat(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return nil, fmt.Errorf("invalid %s %q: want a finite number", key, s)
	}
	return &f, nil
}

// parseList accepts repeated and comma-separated values.
func parseList(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBBox(s string) (*analysis.BoundingBox, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: want minLat,minLon,maxLat,maxLon", s)
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		if !finite(f) {
			return nil, fmt.Errorf("invalid bbox %q: coordinates must be finite", s)
		}
		vals[i] = f
	}
	b := &analysis.BoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return nil, fmt.Errorf("invalid bbox %q: minimum exceeds maximum", s)
	}
	return b, nil
}
