package analysis

import (
	"fmt"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func f64(v float64) *float64 { return &v }

func quake(id, province, area, ts string, mag float64) domain.Event {
	return domain.Event{
		ID:        id,
		Province:  province,
		Area:      area,
		Timestamp: at(ts),
		Magnitude: mag,
		Latitude:  10,
		Longitude: 125,
		Category:  domain.MagnitudeScheme.Bucket(mag).Label,
	}
}

// syntheticEvents spreads n events over provinces round-robin, one hour apart.
func syntheticEvents(n int, provinces ...string) []domain.Event {
	base := at("2020-01-01 00:00")
	out := make([]domain.Event, n)
	for i := range out {
		p := provinces[i%len(provinces)]
		out[i] = domain.Event{
			ID:        fmt.Sprintf("e%04d", i),
			Province:  p,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Magnitude: float64(i%7) + 1,
			Latitude:  float64(i%10) + 5,
			Longitude: 120 + float64(i%5),
		}
	}
	return out
}
