package domain

import (
	"fmt"
	"time"
)

// Event is one earthquake record after loading and normalisation.
type Event struct {
	ID        string    `json:"id"`
	Row       int       `json:"row"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Magnitude float64   `json:"magnitude"`
	DepthKM   *float64  `json:"depth_km,omitempty"`
	Province  string    `json:"province,omitempty"`
	Area      string    `json:"area,omitempty"`
	Category  string    `json:"category,omitempty"`

	// CategoryDerived is true when Category came from the magnitude scheme
	// rather than the source file.
	CategoryDerived bool `json:"category_derived,omitempty"`
}

// Elevation returns the depth as a negative number for elevation-based layers.
// Returns false when the depth is unknown.
func (e Event) Elevation() (float64, bool) {
	if e.DepthKM == nil {
		return 0, false
	}
	return -*e.DepthKM, true
}

// RegionLabel renders "Area, Province", or whichever part is present.
func (e Event) RegionLabel() string {
	switch {
	case e.Area != "" && e.Province != "":
		return e.Area + ", " + e.Province
	case e.Area != "":
		return e.Area
	default:
		return e.Province
	}
}

func (e Event) Year() int { return e.Timestamp.Year() }

func (e Event) Month() time.Month { return e.Timestamp.Month() }

// YearMonth returns the calendar period key, e.g. "2023-01".
func (e Event) YearMonth() string { return e.Timestamp.Format("2006-01") }

// Day truncates the timestamp to its calendar day in UTC.
func (e Event) Day() time.Time {
	y, m, d := e.Timestamp.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LoadReport describes what happened to each source row during loading.
type LoadReport struct {
	TotalRows          int            `json:"total_rows"`
	KeptRows           int            `json:"kept_rows"`
	Dropped            map[string]int `json:"dropped,omitempty"` // reason → rows
	DerivedCategories  int            `json:"derived_categories"`
	MissingDepth       int            `json:"missing_depth"`
	HierarchyConflicts []string       `json:"hierarchy_conflicts,omitempty"`
}

// Drop reasons recorded in LoadReport.Dropped.
const (
	DropTimestamp   = "timestamp"
	DropCoordinates = "coordinates"
	DropMagnitude   = "magnitude"
)

// DroppedTotal sums every drop reason.
func (r LoadReport) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Table is the canonical, immutable dataset loaded from one file.
// Callers must treat Events as read-only; every derived view is a new slice.
type Table struct {
	Source   string     `json:"source"`
	Checksum string     `json:"checksum"`
	Encoding string     `json:"encoding"`
	LoadedAt time.Time  `json:"loaded_at"`
	Events   []Event    `json:"-"`
	Report   LoadReport `json:"report"`
}

// Regions returns the area → province index. The first province an area is
// seen under wins, so the parent is stable across the dataset.
func (t *Table) Regions() map[string]string {
	idx := make(map[string]string)
	for i := range t.Events {
		e := &t.Events[i]
		if e.Area == "" {
			continue
		}
		if _, ok := idx[e.Area]; !ok {
			idx[e.Area] = e.Province
		}
	}
	return idx
}

// NextEvent is the chronologically next event in the same group.
type NextEvent struct {
	ID          string    `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	Magnitude   float64   `json:"magnitude"`
	Province    string    `json:"province,omitempty"`
	Area        string    `json:"area,omitempty"`
	RegionLabel string    `json:"region_label,omitempty"`
}

// LinkedEvent is an event joined to its successor within a group.
type LinkedEvent struct {
	Event
	Group          string    `json:"group"`
	Next           NextEvent `json:"next"`
	TimeDeltaHours float64   `json:"time_delta_hours"`
}

// GroupSummary aggregates one metric over a group and/or calendar period.
type GroupSummary struct {
	Group     string    `json:"group,omitempty"`
	Key       string    `json:"-"` // partition key; distinct groups may share a Group label
	Period    string    `json:"period,omitempty"`
	Count     int       `json:"count"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Std       float64   `json:"std"` // 0 for single-element groups
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
	SpanHours float64   `json:"span_hours"`
}

// Change is a percent change that may not apply (first period, zero base).
type Change struct {
	Percent    float64
	Applicable bool
}

// NotApplicable is the explicit marker for a change with no defined value.
var NotApplicable = Change{}

// String renders "+50.0%" or "N/A".
func (c Change) String() string {
	if !c.Applicable {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", c.Percent)
}

// MarshalJSON encodes an inapplicable change as null.
func (c Change) MarshalJSON() ([]byte, error) {
	if !c.Applicable {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%g", c.Percent)), nil
}

// PeriodChange compares a period with the previous one in the same group.
type PeriodChange struct {
	Group       string  `json:"group,omitempty"`
	Period      string  `json:"period"`
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	CountChange Change  `json:"count_change_pct"`
	MeanChange  Change  `json:"mean_change_pct"`
}
