package analysis

import (
	"fmt"
	"slices"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// Period is a calendar bucket for summaries.
type Period string

const (
	PeriodNone  Period = ""
	PeriodYear  Period = "year"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodNone, PeriodYear, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (want year or month)", s)
	}
}

func (p Period) key(e domain.Event) string {
	switch p {
	case PeriodYear:
		return e.Timestamp.Format("2006")
	case PeriodMonth:
		return e.YearMonth()
	default:
		return ""
	}
}

// Metric is the numeric column being aggregated.
type Metric string

const (
	MetricMagnitude Metric = "magnitude"
	MetricDepth     Metric = "depth"
)

// ParseMetric validates a metric name. Empty means magnitude.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case "":
		return MetricMagnitude, nil
	case MetricMagnitude, MetricDepth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want magnitude or depth)", s)
	}
}

// value returns the metric for e; false when e has no value for it.
func (m Metric) value(e domain.Event) (float64, bool) {
	if m == MetricDepth {
		if e.DepthKM == nil {
			return 0, false
		}
		return *e.DepthKM, true
	}
	return e.Magnitude, true
}

// SummarySpec selects the grouping of Summarize. An empty Group and Period
// summarise the whole input as one row.
type SummarySpec struct {
	Group  GroupKey
	Period Period
	Metric Metric
}

type bucketKey struct{ group, period string }

type bucket struct {
	label       string
	values      []float64
	first, last time.Time
}

// Summarize aggregates the metric per group and period, ordered by group
// then period. Events lacking the metric are skipped.
func Summarize(events []domain.Event, spec SummarySpec) []domain.GroupSummary {
	buckets := make(map[bucketKey]*bucket)
	for _, e := range events {
		v, ok := spec.Metric.value(e)
		if !ok {
			continue
		}
		k := bucketKey{period: spec.Period.key(e)}
		var label string
		if spec.Group != "" {
			k.group, label = spec.Group.ID(e), spec.Group.Label(e)
		}
		b := buckets[k]
		if b == nil {
			b = &bucket{label: label, first: e.Timestamp, last: e.Timestamp}
			buckets[k] = b
		}
		b.values = append(b.values, v)
		if e.Timestamp.Before(b.first) {
			b.first = e.Timestamp
		}
		if e.Timestamp.After(b.last) {
			b.last = e.Timestamp
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b bucketKey) int {
		if a.group != b.group {
			if a.group < b.group {
				return -1
			}
			return 1
		}
		switch {
		case a.period < b.period:
			return -1
		case a.period > b.period:
			return 1
		}
		return 0
	})

	out := make([]domain.GroupSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, summarizeBucket(k, buckets[k]))
	}
	return out
}

func summarizeBucket(k bucketKey, b *bucket) domain.GroupSummary {
	mean, std := stat.MeanStdDev(b.values, nil)
	if len(b.values) < 2 {
		std = 0
	}
	median, _ := stats.Median(stats.Float64Data(b.values))
	return domain.GroupSummary{
		Group:     b.label,
		Key:       k.group,
		Period:    k.period,
		Count:     len(b.values),
		Mean:      mean,
		Median:    median,
		Min:       floats.Min(b.values),
		Max:       floats.Max(b.values),
		Std:       std,
		First:     b.first,
		Last:      b.last,
		SpanHours: b.last.Sub(b.first).Hours(),
	}
}

// PeriodChanges compares each period with the previous one in the same
// group. Input must be ordered by group then period, as Summarize returns.
// The first period of a group, and any period whose base is zero, has no
// defined change.
func PeriodChanges(summaries []domain.GroupSummary) []domain.PeriodChange {
	out := make([]domain.PeriodChange, 0, len(summaries))
	for i, s := range summaries {
		if s.Period == "" {
			continue
		}
		pc := domain.PeriodChange{
			Group:       s.Group,
			Period:      s.Period,
			Count:       s.Count,
			Mean:        s.Mean,
			CountChange: domain.NotApplicable,
			MeanChange:  domain.NotApplicable,
		}
		if i > 0 && summaries[i-1].Key == s.Key && summaries[i-1].Group == s.Group && summaries[i-1].Period != "" {
			prev := summaries[i-1]
			pc.CountChange = percentChange(float64(prev.Count), float64(s.Count))
			pc.MeanChange = percentChange(prev.Mean, s.Mean)
		}
		out = append(out, pc)
	}
	return out
}

func percentChange(prev, cur float64) domain.Change {
	if prev == 0 {
		return domain.NotApplicable
	}
	return domain.Change{Percent: (cur - prev) / prev * 100, Applicable: true}
}
