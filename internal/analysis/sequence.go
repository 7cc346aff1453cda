package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// GroupKey selects how events are partitioned.
type GroupKey string

const (
	// GroupAll puts every event in one chain, ignoring region.
	GroupAll      GroupKey = "all"
	GroupProvince GroupKey = "province"
	// GroupArea partitions by province and area together.
	GroupArea     GroupKey = "area"
	GroupCategory GroupKey = "category"
	// GroupNone labels every event with the empty group.
	GroupNone GroupKey = "none"

	// GroupCategoryProvince partitions by category within each province.
	GroupCategoryProvince GroupKey = "category_province"
)

// groupSep joins the fields of a composite group ID. Labels are
// whitespace-collapsed text and never contain it.
const groupSep = "\x00"

// ParseGroupKey validates a group key. Empty means province.
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(s); k {
	case "":
		return GroupProvince, nil
	case GroupAll, GroupProvince, GroupArea, GroupCategory, GroupCategoryProvince, GroupNone:
		return k, nil
	default:
		return "", fmt.Errorf("unknown group %q (want all, province, area, category, category_province, or none)", s)
	}
}

// Label returns the display name of the group an event belongs to under k.
// Distinct groups may share a label; partition on ID.
func (k GroupKey) Label(e domain.Event) string {
	switch k {
	case GroupAll:
		return string(GroupAll)
	case GroupArea:
		return e.RegionLabel()
	case GroupCategory:
		return e.Category
	case GroupCategoryProvince:
		switch {
		case e.Category == "":
			return e.Province
		case e.Province == "":
			return e.Category
		}
		return e.Category + ", " + e.Province
	case GroupNone:
		return ""
	default:
		return e.Province
	}
}

// ID returns the partition key of the group an event belongs to under k.
// Two events share an ID only when every grouping field matches.
func (k GroupKey) ID(e domain.Event) string {
	switch k {
	case GroupArea:
		return e.Province + groupSep + e.Area
	case GroupCategoryProvince:
		return e.Province + groupSep + e.Category
	default:
		return k.Label(e)
	}
}

// cohort is one partition of the input, in input order.
type cohort struct {
	id     string
	label  string
	events []domain.Event
}

// partition splits events by group ID, ordered by ID.
func partition(events []domain.Event, key GroupKey) []cohort {
	index := make(map[string]int)
	var groups []cohort
	for _, e := range events {
		id := key.ID(e)
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, cohort{id: id, label: key.Label(e)})
		}
		groups[i].events = append(groups[i].events, e)
	}
	slices.SortFunc(groups, func(a, b cohort) int { return strings.Compare(a.id, b.id) })
	return groups
}

// sortByTime orders events by timestamp, keeping ties in input order.
func sortByTime(events []domain.Event) {
	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// LinkSequential joins each event to the next one in its group. The last
// event of every group has no successor and is left out. Groups with fewer
// than two events produce a warning and no links.
func LinkSequential(events []domain.Event, key GroupKey) ([]domain.LinkedEvent, []domain.Warning) {
	var (
		out      = make([]domain.LinkedEvent, 0, len(events))
		warnings []domain.Warning
	)
	for _, grp := range partition(events, key) {
		g, label := grp.events, grp.label
		if len(g) < 2 {
			warnings = append(warnings, domain.InsufficientGroup(label, len(g), 2, "sequencing"))
			continue
		}
		sortByTime(g)
		for i := 0; i < len(g)-1; i++ {
			cur, next := g[i], g[i+1]
			out = append(out, domain.LinkedEvent{
				Event: cur,
				Group: label,
				Next: domain.NextEvent{
					ID:          next.ID,
					Latitude:    next.Latitude,
					Longitude:   next.Longitude,
					Timestamp:   next.Timestamp,
					Magnitude:   next.Magnitude,
					Province:    next.Province,
					Area:        next.Area,
					RegionLabel: next.RegionLabel(),
				},
				TimeDeltaHours: next.Timestamp.Sub(cur.Timestamp).Seconds() / 3600,
			})
		}
	}
	return out, warnings
}
