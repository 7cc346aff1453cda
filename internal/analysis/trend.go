package analysis

import (
	"time"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// TrendPoint is one event with the trailing mean of its group.
type TrendPoint struct {
	Group     string    `json:"group"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Rolling   float64   `json:"rolling"`
	Count     int       `json:"count"` // events inside the window
}

// RollingMean computes, for every event, the mean metric of its group over
// the trailing window (t-window, t]. A non-positive window yields the value
// itself.
func RollingMean(events []domain.Event, key GroupKey, window time.Duration, metric Metric) []TrendPoint {
	out := make([]TrendPoint, 0, len(events))
	for _, grp := range partition(events, key) {
		g, label := grp.events, grp.label
		sortByTime(g)

		var (
			times  []time.Time
			values []float64
			ids    []string
		)
		for _, e := range g {
			if v, ok := metric.value(e); ok {
				times = append(times, e.Timestamp)
				values = append(values, v)
				ids = append(ids, e.ID)
			}
		}

		left, sum := 0, 0.0
		for right := range values {
			sum += values[right]
			if window > 0 {
				cutoff := times[right].Add(-window)
				for !times[left].After(cutoff) {
					sum -= values[left]
					left++
				}
			} else {
				for left < right {
					sum -= values[left]
					left++
				}
			}
			n := right - left + 1
			out = append(out, TrendPoint{
				Group:     label,
				EventID:   ids[right],
				Timestamp: times[right],
				Value:     values[right],
				Rolling:   sum / float64(n),
				Count:     n,
			})
		}
	}
	return out
}
