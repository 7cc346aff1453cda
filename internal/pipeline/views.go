package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// View defaults applied when the query leaves the parameter unset.
const (
	DefaultTrendWindow    = 7 * 24 * time.Hour
	DefaultHistogramBins  = 20
	DefaultChangesPeriod  = analysis.PeriodYear
	DefaultEpicenterGroup = analysis.GroupArea
)

// EventView is an event with its map encodings.
type EventView struct {
	domain.Event
	Elevation     *float64     `json:"elevation,omitempty"`
	IntensityID   int          `json:"intensity_id"`
	Intensity     string       `json:"intensity"`
	Color         domain.Color `json:"color"`
	CategoryColor domain.Color `json:"category_color"`
}

func newEventView(e domain.Event) EventView {
	b := domain.MagnitudeScheme.Bucket(e.Magnitude)
	v := EventView{
		Event:         e,
		IntensityID:   b.ID,
		Intensity:     b.Label,
		Color:         b.Color,
		CategoryColor: domain.CategoryColor(e.Category),
	}
	if elev, ok := e.Elevation(); ok {
		v.Elevation = &elev
	}
	return v
}

func eventViews(events []domain.Event) []EventView {
	out := make([]EventView, len(events))
	for i, e := range events {
		out[i] = newEventView(e)
	}
	return out
}

// ArcView is a sequential link with its arc and urgency encodings.
type ArcView struct {
	domain.LinkedEvent
	SourceColor  domain.Color `json:"source_color"`
	TargetColor  domain.Color `json:"target_color"`
	Urgency      string       `json:"urgency"`
	UrgencyColor domain.Color `json:"urgency_color"`
}

func newArcView(l domain.LinkedEvent) ArcView {
	u := domain.TimeDeltaScheme.Bucket(l.TimeDeltaHours)
	return ArcView{
		LinkedEvent:  l,
		SourceColor:  domain.ArcColor(l.Magnitude),
		TargetColor:  domain.ArcColor(l.Next.Magnitude),
		Urgency:      u.Label,
		UrgencyColor: u.Color,
	}
}

// Events returns the filtered, sampled events for point and column layers.
func (s *Service) Events(ctx context.Context, q Query) (Result[[]EventView], error) {
	return runView(ctx, s, "events", q, true, func(sel selection) ([]EventView, []domain.Warning) {
		return eventViews(sel.events), nil
	})
}

// Links sequences the filtered, sampled events within each group.
func (s *Service) Links(ctx context.Context, q Query) (Result[[]ArcView], error) {
	return runView(ctx, s, "links", q, true, func(sel selection) ([]ArcView, []domain.Warning) {
		links, warnings := analysis.LinkSequential(sel.events, q.groupKey())
		out := make([]ArcView, len(links))
		for i, l := range links {
			out[i] = newArcView(l)
		}
		return out, warnings
	})
}

// LinkedEvents returns the raw linked rows without encodings, for export.
func (s *Service) LinkedEvents(ctx context.Context, q Query) (Result[[]domain.LinkedEvent], error) {
	return runView(ctx, s, "linked", q, true, func(sel selection) ([]domain.LinkedEvent, []domain.Warning) {
		return analysis.LinkSequential(sel.events, q.groupKey())
	})
}

// Summary aggregates the filtered events by group and period.
func (s *Service) Summary(ctx context.Context, q Query) (Result[[]domain.GroupSummary], error) {
	return runView(ctx, s, "summary", q, false, func(sel selection) ([]domain.GroupSummary, []domain.Warning) {
		return analysis.Summarize(sel.events, q.summarySpec()), nil
	})
}

// Changes compares each period with the previous one in its group. The
// period defaults to year.
func (s *Service) Changes(ctx context.Context, q Query) (Result[[]domain.PeriodChange], error) {
	if q.Period == "" {
		q.Period = DefaultChangesPeriod
	}
	return runView(ctx, s, "changes", q, false, func(sel selection) ([]domain.PeriodChange, []domain.Warning) {
		return analysis.PeriodChanges(analysis.Summarize(sel.events, q.summarySpec())), nil
	})
}

// Trend computes trailing means per group. The window defaults to a week.
func (s *Service) Trend(ctx context.Context, q Query) (Result[[]analysis.TrendPoint], error) {
	if q.Window == 0 {
		q.Window = DefaultTrendWindow
	}
	return runView(ctx, s, "trend", q, false, func(sel selection) ([]analysis.TrendPoint, []domain.Warning) {
		return analysis.RollingMean(sel.events, q.groupKey(), q.Window, q.Metric), nil
	})
}

// Density estimates the magnitude distribution of each group.
func (s *Service) Density(ctx context.Context, q Query) (Result[[]analysis.DensityCurve], error) {
	opts := s.opts.Density
	if q.Points > 0 {
		opts.Points = q.Points
	}
	q.Points = opts.Points
	return runView(ctx, s, "density", q, false, func(sel selection) ([]analysis.DensityCurve, []domain.Warning) {
		return analysis.Density(sel.events, q.groupKey(), opts)
	})
}

// Histogram bins magnitudes per group. Bins default to 20.
func (s *Service) Histogram(ctx context.Context, q Query) (Result[[]analysis.HistogramSeries], error) {
	if q.Bins <= 0 {
		q.Bins = DefaultHistogramBins
	}
	return runView(ctx, s, "histogram", q, false, func(sel selection) ([]analysis.HistogramSeries, []domain.Warning) {
		return analysis.Histogram(sel.events, q.groupKey(), q.Bins), nil
	})
}

// Epicenters keeps the strongest event of each group. The group defaults to
// area.
func (s *Service) Epicenters(ctx context.Context, q Query) (Result[[]EventView], error) {
	if q.Group == "" {
		q.Group = DefaultEpicenterGroup
	}
	return runView(ctx, s, "epicenters", q, false, func(sel selection) ([]EventView, []domain.Warning) {
		return eventViews(analysis.Strongest(sel.events, q.groupKey())), nil
	})
}

func (q Query) summarySpec() analysis.SummarySpec {
	return analysis.SummarySpec{Group: q.groupKey(), Period: q.Period, Metric: q.Metric}
}

// Legend returns the bucket legend for a named colour scheme.
func Legend(scheme string) ([]domain.LegendEntry, bool) {
	if scheme == "" {
		scheme = domain.MagnitudeScheme.Name
	}
	sc, ok := domain.Schemes[scheme]
	if !ok {
		return nil, false
	}
	return sc.Legend(), true
}

// Report describes the loaded table and the selectable filter values.
type Report struct {
	*domain.Table
	Rows    int               `json:"rows"`
	First   time.Time         `json:"first"`
	Last    time.Time         `json:"last"`
	Facets  analysis.Facets   `json:"facets"`
	Regions map[string]string `json:"regions"` // area → province
}

// Report summarises the loaded table.
func (s *Service) Report(ctx context.Context) (Report, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		Table:   t,
		Rows:    len(t.Events),
		Facets:  analysis.CollectFacets(t.Events),
		Regions: t.Regions(),
	}
	r.First, r.Last, _ = analysis.Extent(t.Events)
	return r, nil
}
