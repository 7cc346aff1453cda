package domain

import (
	"context"
	"log/slog"
)

// RegionResult is the administrative region a provider reports for a point.
type RegionResult struct {
	Province   string
	Area       string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// RegionResolver looks up administrative regions for coordinates.
type RegionResolver interface {
	ResolveRegion(ctx context.Context, lat, lon float64) (RegionResult, error)
}

// BackfillRegions fills blank province or area labels from resolver. Existing
// labels are never overwritten. Lookup failures are logged and the event is
// kept as is. It returns a new slice and the number of events changed.
func BackfillRegions(ctx context.Context, events []Event, resolver RegionResolver, logger *slog.Logger) ([]Event, int) {
	out := make([]Event, len(events))
	copy(out, events)
	if resolver == nil {
		return out, 0
	}

	filled := 0
	for i := range out {
		e := &out[i]
		if e.Province != "" && e.Area != "" {
			continue
		}
		if ctx.Err() != nil {
			logger.Warn("region backfill interrupted", "remaining", len(out)-i, "error", ctx.Err())
			break
		}

		result, err := resolver.ResolveRegion(ctx, e.Latitude, e.Longitude)
		if err != nil {
			logger.Warn("region lookup failed",
				"event_id", e.ID,
				"lat", e.Latitude,
				"lon", e.Longitude,
				"error", err,
			)
			continue
		}

		changed := false
		if e.Province == "" && result.Province != "" {
			e.Province = cleanLabel(result.Province)
			changed = true
		}
		if e.Area == "" && result.Area != "" {
			e.Area = cleanLabel(result.Area)
			changed = true
		}
		if changed {
			filled++
		}
	}
	return out, filled
}
