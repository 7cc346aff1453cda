package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

func filterFixture() []domain.Event {
	return []domain.Event{
		quake("a", "Davao Oriental", "Manay", "2023-01-01 00:30", 4.0),
		quake("b", "Davao Oriental", "Tarragona", "2023-01-02 23:59", 5.5),
		quake("c", "Surigao del Sur", "Hinatuan", "2023-01-03 12:00", 6.4),
		quake("d", "Abra", "Tineg", "2023-02-10 08:00", 2.1),
	}
}

func ids(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	events := filterFixture()

	tests := []struct {
		name string
		p    Predicate
		want []string
	}{
		{"no restriction", Predicate{}, []string{"a", "b", "c", "d"}},
		{
			"inclusive calendar days",
			Predicate{Start: at("2023-01-02 18:00"), End: at("2023-01-03 00:00")},
			[]string{"b", "c"},
		},
		{"open start", Predicate{End: at("2023-01-01 00:00")}, []string{"a"}},
		{"magnitude range inclusive", Predicate{MinMagnitude: f64(4.0), MaxMagnitude: f64(5.5)}, []string{"a", "b"}},
		{"province case-insensitive", Predicate{Provinces: []string{"davao oriental"}}, []string{"a", "b"}},
		{"blank membership ignored", Predicate{Provinces: []string{" "}}, []string{"a", "b", "c", "d"}},
		{"area", Predicate{Areas: []string{"Hinatuan", "Tineg"}}, []string{"c", "d"}},
		{"category", Predicate{Categories: []string{"STRONG", "Weak"}}, []string{"a", "d"}},
		{
			"bounding box",
			Predicate{Bounds: &BoundingBox{MinLat: 9, MinLon: 124, MaxLat: 10, MaxLon: 125}},
			[]string{"a", "b", "c", "d"},
		},
		{
			"bounding box excludes",
			Predicate{Bounds: &BoundingBox{MinLat: 11, MinLon: 124, MaxLat: 12, MaxLon: 125}},
			[]string{},
		},
		{
			"and composition",
			Predicate{Provinces: []string{"Davao Oriental"}, MinMagnitude: f64(5)},
			[]string{"b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(events, tt.p)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	events := syntheticEvents(200, "A", "B", "C")
	preds := []Predicate{
		{},
		{MinMagnitude: f64(3)},
		{Provinces: []string{"a", "c"}, MaxMagnitude: f64(5)},
		{Start: at("2020-01-03 00:00"), End: at("2020-01-05 00:00")},
	}
	for _, p := range preds {
		once := Filter(events, p)
		twice := Filter(once, p)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("filter not idempotent (-once +twice):\n%s", diff)
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	events := filterFixture()
	before := append([]domain.Event(nil), events...)

	out := Filter(events, Predicate{})
	out[0].Magnitude = 99

	assert.Equal(t, before, events)
}

func TestYearRange(t *testing.T) {
	start, end := YearRange(2023)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestRecentMonths(t *testing.T) {
	start, end, ok := RecentMonths(filterFixture(), 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC), start)

	_, _, ok = RecentMonths(nil, 3)
	assert.False(t, ok)
	_, _, ok = RecentMonths(filterFixture(), 0)
	assert.False(t, ok)
}

func TestExtent(t *testing.T) {
	first, last, ok := Extent(filterFixture())
	require.True(t, ok)
	assert.Equal(t, at("2023-01-01 00:30"), first)
	assert.Equal(t, at("2023-02-10 08:00"), last)
}

func TestStrongest(t *testing.T) {
	events := []domain.Event{
		quake("a", "P1", "", "2023-01-01 00:00", 5.0),
		quake("b", "P2", "", "2023-01-01 00:00", 3.0),
		quake("c", "P1", "", "2023-01-02 00:00", 6.0),
		quake("d", "P2", "", "2023-01-02 00:00", 3.0), // tie, b wins
	}
	assert.Equal(t, []string{"b", "c"}, ids(Strongest(events, GroupProvince)))
	assert.Equal(t, []string{"c"}, ids(Strongest(events, GroupAll)))
}

func TestStrongest_AreaKeyKeepsFieldsApart(t *testing.T) {
	events := []domain.Event{
		quake("a", "Baganga", "", "2023-01-01 00:00", 5.0),
		quake("b", "", "Baganga", "2023-01-01 00:00", 3.0),
		quake("c", "Davao", "Mati, City", "2023-01-02 00:00", 6.0),
		quake("d", "City, Davao", "Mati", "2023-01-02 00:00", 2.0),
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(Strongest(events, GroupArea)))
}

func TestCollectFacets(t *testing.T) {
	f := CollectFacets(filterFixture())
	assert.Equal(t, []int{2023}, f.Years)
	assert.Equal(t, []string{"Abra", "Davao Oriental", "Surigao del Sur"}, f.Provinces)
	assert.Equal(t, []string{"Manay", "Tarragona"}, f.Areas["Davao Oriental"])
	assert.Contains(t, f.Categories, "strong")
}
