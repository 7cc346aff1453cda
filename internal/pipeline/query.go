package pipeline

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// Query is one user selection: the filter, the sampling override, and the
// view parameters. The zero value selects everything.
type Query struct {
	Start        time.Time
	End          time.Time
	Year         int // overrides Start/End when set
	RecentMonths int // overrides Start/End when set, relative to the latest event
	MinMagnitude *float64
	MaxMagnitude *float64
	Provinces    []string
	Areas        []string
	Categories   []string
	Bounds       *analysis.BoundingBox

	Sample   *int // nil uses the service default; 0 disables sampling
	Strategy analysis.Strategy

	Group  analysis.GroupKey
	Period analysis.Period
	Metric analysis.Metric
	Window time.Duration
	Points int
	Bins   int
}

// predicate resolves the date modes against events and builds the filter.
func (q Query) predicate(events []domain.Event) analysis.Predicate {
	p := analysis.Predicate{
		Start:        q.Start,
		End:          q.End,
		MinMagnitude: q.MinMagnitude,
		MaxMagnitude: q.MaxMagnitude,
		Provinces:    q.Provinces,
		Areas:        q.Areas,
		Categories:   q.Categories,
		Bounds:       q.Bounds,
	}
	switch {
	case q.Year != 0:
		p.Start, p.End = analysis.YearRange(q.Year)
	case q.RecentMonths > 0:
		if start, end, ok := analysis.RecentMonths(events, q.RecentMonths); ok {
			p.Start, p.End = start, end
		}
	}
	return p
}

func (q Query) groupKey() analysis.GroupKey {
	if q.Group == "" {
		return analysis.GroupProvince
	}
	return q.Group
}

func (q Query) sampleOptions(def analysis.SampleOptions) analysis.SampleOptions {
	opts := def
	if q.Sample != nil {
		opts.Target = *q.Sample
	}
	if q.Strategy != "" {
		opts.Strategy = q.Strategy
	}
	opts.Group = q.groupKey()
	return opts
}

// Key renders q canonically so equal selections share a cache entry. List
// filters are compared case-insensitively and without regard to order.
func (q Query) Key() string {
	var b strings.Builder
	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s=%s;", name, value)
	}
	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.DateOnly)
	}
	num := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	list := func(vs []string) string {
		norm := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				norm = append(norm, v)
			}
		}
		slices.Sort(norm)
		return strings.Join(slices.Compact(norm), ",")
	}
	intval := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}

	field("start", day(q.Start))
	field("end", day(q.End))
	field("year", intval(q.Year))
	field("recent", intval(q.RecentMonths))
	field("min", num(q.MinMagnitude))
	field("max", num(q.MaxMagnitude))
	field("province", list(q.Provinces))
	field("area", list(q.Areas))
	field("category", list(q.Categories))
	if q.Bounds != nil {
		field("bbox", fmt.Sprintf("%g,%g,%g,%g", q.Bounds.MinLat, q.Bounds.MinLon, q.Bounds.MaxLat, q.Bounds.MaxLon))
	}
	if q.Sample != nil {
		field("sample", strconv.Itoa(*q.Sample))
	}
	field("strategy", string(q.Strategy))
	field("group", string(q.groupKey()))
	field("period", string(q.Period))
	field("metric", string(q.Metric))
	if q.Window != 0 {
		field("window", q.Window.String())
	}
	field("points", intval(q.Points))
	field("bins", intval(q.Bins))
	return b.String()
}
