// Package analysis holds the pure transforms applied to a loaded event table:
// filtering, sampling, sequential linking, and aggregation. Every function
// returns freshly allocated slices and never mutates its input.
package analysis

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// BoundingBox is an inclusive lat/lon rectangle.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Predicate is a conjunction of optional restrictions. Zero fields do not
// restrict.
type Predicate struct {
	Start        time.Time // inclusive calendar day
	End          time.Time // inclusive calendar day
	MinMagnitude *float64
	MaxMagnitude *float64
	Provinces    []string
	Areas        []string
	Categories   []string
	Bounds       *BoundingBox
}

// Filter returns the events matching every restriction in p.
func Filter(events []domain.Event, p Predicate) []domain.Event {
	m := p.matcher()
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if m.match(e) {
			out = append(out, e)
		}
	}
	return out
}

type matcher struct {
	p          Predicate
	start, end time.Time
	provinces  map[string]bool
	areas      map[string]bool
	categories map[string]bool
}

func (p Predicate) matcher() matcher {
	m := matcher{
		p:          p,
		provinces:  foldSet(p.Provinces),
		areas:      foldSet(p.Areas),
		categories: foldSet(p.Categories),
	}
	if !p.Start.IsZero() {
		m.start = truncateDay(p.Start)
	}
	if !p.End.IsZero() {
		m.end = truncateDay(p.End)
	}
	return m
}

func (m matcher) match(e domain.Event) bool {
	if !m.start.IsZero() || !m.end.IsZero() {
		day := e.Day()
		if !m.start.IsZero() && day.Before(m.start) {
			return false
		}
		if !m.end.IsZero() && day.After(m.end) {
			return false
		}
	}
	if m.p.MinMagnitude != nil && e.Magnitude < *m.p.MinMagnitude {
		return false
	}
	if m.p.MaxMagnitude != nil && e.Magnitude > *m.p.MaxMagnitude {
		return false
	}
	if m.provinces != nil && !m.provinces[strings.ToUpper(e.Province)] {
		return false
	}
	if m.areas != nil && !m.areas[strings.ToUpper(e.Area)] {
		return false
	}
	if m.categories != nil && !m.categories[strings.ToUpper(e.Category)] {
		return false
	}
	if m.p.Bounds != nil && !m.p.Bounds.Contains(e.Latitude, e.Longitude) {
		return false
	}
	return true
}

// foldSet builds a case-insensitive membership set. Blank entries are
// ignored; an empty result means no restriction.
func foldSet(values []string) map[string]bool {
	var set map[string]bool
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if set == nil {
			set = make(map[string]bool, len(values))
		}
		set[v] = true
	}
	return set
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearRange returns the first and last calendar day of year.
func YearRange(year int) (start, end time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// RecentMonths returns the window covering the last months months up to the
// latest event. ok is false for an empty input or non-positive months.
func RecentMonths(events []domain.Event, months int) (start, end time.Time, ok bool) {
	if months <= 0 {
		return time.Time{}, time.Time{}, false
	}
	_, last, ok := Extent(events)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end = truncateDay(last)
	return end.AddDate(0, -months, 0), end, true
}

// Extent returns the earliest and latest timestamps.
func Extent(events []domain.Event) (first, last time.Time, ok bool) {
	if len(events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = events[0].Timestamp, events[0].Timestamp
	for _, e := range events[1:] {
		if e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	return first, last, true
}

// Strongest keeps the highest-magnitude event of each group, in input order.
// Ties go to the first occurrence.
func Strongest(events []domain.Event, key GroupKey) []domain.Event {
	best := make(map[string]int)
	for i, e := range events {
		id := key.ID(e)
		j, ok := best[id]
		if !ok || e.Magnitude > events[j].Magnitude {
			best[id] = i
		}
	}
	idx := make([]int, 0, len(best))
	for _, i := range best {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]domain.Event, len(idx))
	for n, i := range idx {
		out[n] = events[i]
	}
	return out
}

// Facets lists the selectable filter values present in events.
type Facets struct {
	Years      []int               `json:"years"`
	Provinces  []string            `json:"provinces"`
	Areas      map[string][]string `json:"areas"` // province → areas
	Categories []string            `json:"categories"`
}

// CollectFacets builds the cascading province → area options.
func CollectFacets(events []domain.Event) Facets {
	years := map[int]bool{}
	provinces := map[string]bool{}
	areas := map[string]map[string]bool{}
	categories := map[string]bool{}
	for _, e := range events {
		years[e.Year()] = true
		if e.Province != "" {
			provinces[e.Province] = true
			if e.Area != "" {
				if areas[e.Province] == nil {
					areas[e.Province] = map[string]bool{}
				}
				areas[e.Province][e.Area] = true
			}
		}
		if e.Category != "" {
			categories[e.Category] = true
		}
	}

	f := Facets{
		Years:      sortedKeys(years),
		Provinces:  sortedKeys(provinces),
		Areas:      make(map[string][]string, len(areas)),
		Categories: sortedKeys(categories),
	}
	for p, set := range areas {
		f.Areas[p] = sortedKeys(set)
	}
	return f
}

func sortedKeys[K int | string](m map[K]bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
