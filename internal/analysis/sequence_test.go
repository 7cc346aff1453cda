package analysis

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

func TestParseGroupKey(t *testing.T) {
	k, err := ParseGroupKey("")
	require.NoError(t, err)
	assert.Equal(t, GroupProvince, k)

	for _, s := range []string{"all", "province", "area", "category", "category_province", "none"} {
		k, err := ParseGroupKey(s)
		require.NoError(t, err)
		assert.Equal(t, GroupKey(s), k)
	}

	_, err = ParseGroupKey("country")
	assert.Error(t, err)
}

func TestLinkSequential_RegionScenario(t *testing.T) {
	events := []domain.Event{
		quake("a1", "A", "", "2020-01-01 00:00", 5.0),
		quake("a2", "A", "", "2020-01-02 00:00", 6.0),
		quake("b1", "B", "", "2020-01-01 00:00", 3.0),
	}

	links, warnings := LinkSequential(events, GroupProvince)

	require.Len(t, links, 1)
	assert.Equal(t, "a1", links[0].ID)
	assert.Equal(t, "a2", links[0].Next.ID)
	assert.Equal(t, 6.0, links[0].Next.Magnitude)
	assert.Equal(t, "A", links[0].Group)
	assert.Equal(t, 24.0, links[0].TimeDeltaHours)

	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnInsufficientGroupSize, warnings[0].Kind)
	assert.Equal(t, "B", warnings[0].Group)
}

func shuffled(events []domain.Event) []domain.Event {
	out := append([]domain.Event(nil), events...)
	r := rand.New(rand.NewPCG(1, 2))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestLinkSequential_Properties(t *testing.T) {
	events := shuffled(syntheticEvents(120, "A", "B", "C", "D"))
	before := append([]domain.Event(nil), events...)

	links, warnings := LinkSequential(events, GroupProvince)

	assert.Empty(t, warnings)
	assert.Equal(t, before, events, "input must not be reordered")

	perGroup := map[string]int{}
	for _, l := range links {
		perGroup[l.Group]++
		assert.Equal(t, l.Province, l.Next.Province, "link crossed group boundary")
		assert.False(t, l.Next.Timestamp.Before(l.Timestamp))
		assert.Equal(t, l.Next.Timestamp.Sub(l.Timestamp).Seconds()/3600, l.TimeDeltaHours)
		assert.GreaterOrEqual(t, l.TimeDeltaHours, 0.0)
	}
	for _, g := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 29, perGroup[g], "group %s should have N-1 links", g)
	}
}

func TestLinkSequential_Deterministic(t *testing.T) {
	events := shuffled(syntheticEvents(60, "A", "B", "C"))
	first, _ := LinkSequential(events, GroupArea)
	second, _ := LinkSequential(events, GroupArea)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("non-deterministic output (-first +second):\n%s", diff)
	}
}

func TestLinkSequential_StableTies(t *testing.T) {
	events := []domain.Event{
		quake("x", "A", "", "2020-01-01 00:00", 1),
		quake("y", "A", "", "2020-01-01 00:00", 2),
		quake("z", "A", "", "2020-01-01 00:00", 3),
	}
	links, _ := LinkSequential(events, GroupProvince)
	require.Len(t, links, 2)
	assert.Equal(t, "x", links[0].ID)
	assert.Equal(t, "y", links[0].Next.ID)
	assert.Equal(t, "z", links[1].Next.ID)
	assert.Zero(t, links[0].TimeDeltaHours)
}

func TestLinkSequential_AllCrossesRegions(t *testing.T) {
	events := []domain.Event{
		quake("a", "A", "", "2020-01-01 00:00", 4),
		quake("b", "B", "", "2020-01-01 06:00", 4),
	}
	links, warnings := LinkSequential(events, GroupAll)
	require.Len(t, links, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, "all", links[0].Group)
	assert.Equal(t, "B", links[0].Next.RegionLabel)
	assert.Equal(t, 6.0, links[0].TimeDeltaHours)
}

func TestLinkSequential_AreaGroups(t *testing.T) {
	events := []domain.Event{
		quake("a", "P", "X", "2020-01-01 00:00", 4),
		quake("b", "P", "Y", "2020-01-01 01:00", 4),
		quake("c", "P", "X", "2020-01-01 02:00", 4),
	}
	links, warnings := LinkSequential(events, GroupArea)
	require.Len(t, links, 1)
	assert.Equal(t, "X, P", links[0].Group)
	assert.Equal(t, "c", links[0].Next.ID)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Y, P", warnings[0].Group)
}

func TestLinkSequential_Empty(t *testing.T) {
	links, warnings := LinkSequential(nil, GroupProvince)
	assert.Empty(t, links)
	assert.Empty(t, warnings)
}

func TestLinkSequential_AreaKeyKeepsFieldsApart(t *testing.T) {
	// Each pair renders the same "Area, Province" label.
	events := []domain.Event{
		quake("a", "Baganga", "", "2020-01-01 00:00", 4),
		quake("b", "", "Baganga", "2020-01-01 01:00", 4),
		quake("c", "Davao", "Mati, City", "2020-01-01 02:00", 4),
		quake("d", "City, Davao", "Mati", "2020-01-01 03:00", 4),
	}
	links, warnings := LinkSequential(events, GroupArea)
	assert.Empty(t, links)
	require.Len(t, warnings, 4)

	labels := make([]string, len(warnings))
	for i, w := range warnings {
		labels[i] = w.Group
	}
	assert.ElementsMatch(t, []string{"Baganga", "Baganga", "Mati, City, Davao", "Mati, City, Davao"}, labels)
}

func TestGroupKey_CategoryProvince(t *testing.T) {
	e := domain.Event{Province: "Abra", Area: "Tineg", Category: "MODERATE"}
	assert.Equal(t, "MODERATE, Abra", GroupCategoryProvince.Label(e))
	assert.Equal(t, "Abra", GroupCategoryProvince.Label(domain.Event{Province: "Abra"}))
	assert.Equal(t, "MODERATE", GroupCategoryProvince.Label(domain.Event{Category: "MODERATE"}))

	a := domain.Event{Province: "Abra", Category: "LIGHT"}
	b := domain.Event{Province: "Abra", Category: "STRONG"}
	c := domain.Event{Province: "Batangas", Category: "LIGHT"}
	assert.NotEqual(t, GroupCategoryProvince.ID(a), GroupCategoryProvince.ID(b))
	assert.NotEqual(t, GroupCategoryProvince.ID(a), GroupCategoryProvince.ID(c))
	assert.Equal(t, GroupCategoryProvince.ID(a), GroupCategoryProvince.ID(domain.Event{Province: "Abra", Area: "Tineg", Category: "LIGHT"}))
}

func TestLinkSequential_CategoryProvince(t *testing.T) {
	events := []domain.Event{
		{ID: "a", Province: "Abra", Category: "LIGHT", Timestamp: at("2020-01-01 00:00")},
		{ID: "b", Province: "Abra", Category: "STRONG", Timestamp: at("2020-01-01 01:00")},
		{ID: "c", Province: "Abra", Category: "LIGHT", Timestamp: at("2020-01-01 02:00")},
		{ID: "d", Province: "Batangas", Category: "LIGHT", Timestamp: at("2020-01-01 03:00")},
	}
	links, warnings := LinkSequential(events, GroupCategoryProvince)
	require.Len(t, links, 1)
	assert.Equal(t, "a", links[0].ID)
	assert.Equal(t, "c", links[0].Next.ID)
	assert.Equal(t, "LIGHT, Abra", links[0].Group)
	assert.Len(t, warnings, 2)
}
