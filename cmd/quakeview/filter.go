package main

import (
	"fmt"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/pipeline"
)

// filterFlags is the selection shared by every command that reads views.
type filterFlags struct {
	Start        time.Time `format:"2006-01-02" help:"First day included (YYYY-MM-DD)."`
	End          time.Time `format:"2006-01-02" help:"Last day included (YYYY-MM-DD)."`
	Year         int       `help:"Calendar year. Overrides --start/--end."`
	RecentMonths int       `name:"recent-months" help:"Months back from the latest event. Overrides --start/--end."`
	MinMag       *float64  `name:"min-mag" help:"Minimum magnitude."`
	MaxMag       *float64  `name:"max-mag" help:"Maximum magnitude."`
	Province     []string  `sep:"," help:"Provinces to keep."`
	Area         []string  `sep:"," help:"Areas to keep."`
	Category     []string  `sep:"," help:"Categories to keep."`
	BBox         []float64 `name:"bbox" sep:"," placeholder:"MINLAT,MINLON,MAXLAT,MAXLON" help:"Geographic bounding box."`
	Group        string    `help:"all, province, area, category, category_province or none."`
}

// samplingFlags override the configured sampling defaults.
type samplingFlags struct {
	Sample   *int   `help:"Maximum rows after sampling. 0 disables sampling."`
	Strategy string `help:"uniform or stratified."`
}

func (f filterFlags) query() (pipeline.Query, error) {
	q := pipeline.Query{
		Start:        f.Start,
		End:          f.End,
		Year:         f.Year,
		RecentMonths: f.RecentMonths,
		MinMagnitude: f.MinMag,
		MaxMagnitude: f.MaxMag,
		Provinces:    f.Province,
		Areas:        f.Area,
		Categories:   f.Category,
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, fmt.Errorf("--end %s is before --start %s", q.End.Format(time.DateOnly), q.Start.Format(time.DateOnly))
	}
	if f.Year < 0 || f.RecentMonths < 0 {
		return q, fmt.Errorf("--year and --recent-months must be positive")
	}
	if q.MinMagnitude != nil && q.MaxMagnitude != nil && *q.MaxMagnitude < *q.MinMagnitude {
		return q, fmt.Errorf("--max-mag %g is below --min-mag %g", *q.MaxMagnitude, *q.MinMagnitude)
	}
	if len(f.BBox) > 0 {
		if len(f.BBox) != 4 {
			return q, fmt.Errorf("--bbox wants 4 values, got %d", len(f.BBox))
		}
		b := analysis.BoundingBox{MinLat: f.BBox[0], MinLon: f.BBox[1], MaxLat: f.BBox[2], MaxLon: f.BBox[3]}
		if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
			return q, fmt.Errorf("--bbox minimum exceeds maximum")
		}
		q.Bounds = &b
	}
	if f.Group != "" {
		g, err := analysis.ParseGroupKey(f.Group)
		if err != nil {
			return q, err
		}
		q.Group = g
	}
	return q, nil
}

func (s samplingFlags) apply(q *pipeline.Query) error {
	if s.Sample != nil {
		if *s.Sample < 0 {
			return fmt.Errorf("--sample must not be negative")
		}
		q.Sample = s.Sample
	}
	if s.Strategy != "" {
		st, err := analysis.ParseStrategy(s.Strategy)
		if err != nil {
			return err
		}
		q.Strategy = st
	}
	return nil
}
