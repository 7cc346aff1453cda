package analysis

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

// Strategy selects how Sample draws rows.
type Strategy string

const (
	Uniform    Strategy = "uniform"
	Stratified Strategy = "stratified"
)

// ParseStrategy validates a strategy name. Empty means stratified.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case "":
		return Stratified, nil
	case Uniform, Stratified:
		return st, nil
	default:
		return "", fmt.Errorf("unknown sampling strategy %q (want uniform or stratified)", s)
	}
}

// SampleOptions configures Sample. Target <= 0 disables sampling.
type SampleOptions struct {
	Target      int
	Strategy    Strategy
	Seed        uint64
	MinPerGroup int
	Group       GroupKey
}

// DefaultSampleOptions draws 2000 rows stratified by province.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Target:      2000,
		Strategy:    Stratified,
		Seed:        42,
		MinPerGroup: 5,
		Group:       GroupProvince,
	}
}

// Sample reduces events to at most opts.Target rows. The result is a subset
// of the input in its original relative order, and is deterministic for the
// same input and options.
func Sample(events []domain.Event, opts SampleOptions) []domain.Event {
	if opts.Target <= 0 || opts.Target >= len(events) {
		return slices.Clone(events)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	var idx []int
	if opts.Strategy == Uniform {
		idx = drawUniform(rng, allIndices(len(events)), opts.Target)
	} else {
		idx = drawStratified(rng, events, opts)
	}

	slices.Sort(idx)
	out := make([]domain.Event, len(idx))
	for n, i := range idx {
		out[n] = events[i]
	}
	return out
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// drawUniform picks k of pool without replacement.
func drawUniform(rng *rand.Rand, pool []int, k int) []int {
	if k >= len(pool) {
		return slices.Clone(pool)
	}
	out := make([]int, k)
	for n, p := range rng.Perm(len(pool))[:k] {
		out[n] = pool[p]
	}
	return out
}

// drawStratified allocates max(MinPerGroup, Target/groups) rows to every
// group, takes all rows of groups smaller than that, and trims the union
// back to Target uniformly.
func drawStratified(rng *rand.Rand, events []domain.Event, opts SampleOptions) []int {
	key := opts.Group
	if key == "" {
		key = GroupProvince
	}

	members := make(map[string][]int)
	for i, e := range events {
		id := key.ID(e)
		members[id] = append(members[id], i)
	}
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	quota := max(opts.MinPerGroup, opts.Target/len(keys), 1)

	var idx []int
	for _, k := range keys {
		idx = append(idx, drawUniform(rng, members[k], quota)...)
	}
	if len(idx) > opts.Target {
		idx = drawUniform(rng, idx, opts.Target)
	}
	return idx
}
