package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/couchcryptid/quake-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
)

var errValidationFailed = errors.New("validation failed")

type validateCmd struct {
	Strict bool `help:"Treat dropped rows as failures."`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (c *validateCmd) Run(e *env) error {
	t, err := csvfile.NewLoader(e.logger).Load(e.cfg.DataFile)
	if err != nil {
		return err
	}
	phases := validateTable(t, c.Strict)
	if !report(e.out, t, phases) {
		return errValidationFailed
	}
	return nil
}

func validateTable(t *domain.Table, strict bool) []*phase {
	return []*phase{
		checkRows(t, strict),
		checkEvents(t.Events),
		checkHierarchy(t),
		checkSequencing(t.Events),
	}
}

// report prints the phase table and any errors, and returns true when every
// phase passed.
func report(w io.Writer, t *domain.Table, phases []*phase) bool {
	fmt.Fprintln(w, "=== Earthquake Bulletin Validation ===")
	fmt.Fprintf(w, "File:     %s\n", t.Source)
	fmt.Fprintf(w, "Encoding: %s\n", t.Encoding)
	fmt.Fprintf(w, "Checksum: %s\n", t.Checksum)
	fmt.Fprintf(w, "Rows:     %d read, %d kept, %d dropped, %d derived categories, %d missing depth\n",
		t.Report.TotalRows, t.Report.KeptRows, t.Report.DroppedTotal(),
		t.Report.DerivedCategories, t.Report.MissingDepth)
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}

// ── Phase 1: Row accounting ──

func checkRows(t *domain.Table, strict bool) *phase {
	p := &phase{name: "Phase 1: Row accounting"}
	r := t.Report
	if r.KeptRows+r.DroppedTotal() != r.TotalRows {
		p.errorf("kept %d + dropped %d != read %d", r.KeptRows, r.DroppedTotal(), r.TotalRows)
	}
	if r.KeptRows != len(t.Events) {
		p.errorf("report says %d kept rows, table has %d events", r.KeptRows, len(t.Events))
	}
	if strict {
		reasons := make([]string, 0, len(r.Dropped))
		for reason := range r.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			if n := r.Dropped[reason]; n > 0 {
				p.errorf("%d rows dropped: invalid %s", n, reason)
			}
		}
	}
	return p
}

// ── Phase 2: Event values ──

func checkEvents(events []domain.Event) *phase {
	p := &phase{name: "Phase 2: Event values"}
	seen := make(map[string]int, len(events))
	for i := range events {
		e := &events[i]
		if e.Timestamp.IsZero() {
			p.errorf("row %d: missing timestamp", e.Row)
		}
		if e.Latitude < -90 || e.Latitude > 90 || e.Longitude < -180 || e.Longitude > 180 {
			p.errorf("row %d: coordinates (%g, %g) out of range", e.Row, e.Latitude, e.Longitude)
		}
		if math.IsNaN(e.Magnitude) || math.IsInf(e.Magnitude, 0) {
			p.errorf("row %d: magnitude is not finite", e.Row)
		}
		if e.DepthKM != nil && *e.DepthKM < 0 {
			p.errorf("row %d: negative depth %g", e.Row, *e.DepthKM)
		}
		if prev, ok := seen[e.ID]; ok {
			p.errorf("row %d: duplicate event ID %s (first seen at row %d)", e.Row, e.ID, prev)
		} else {
			seen[e.ID] = e.Row
		}
	}
	return p
}

// ── Phase 3: Region hierarchy ──

func checkHierarchy(t *domain.Table) *phase {
	p := &phase{name: "Phase 3: Region hierarchy"}
	for _, c := range t.Report.HierarchyConflicts {
		p.errorf("area %q appears under more than one province", c)
	}
	return p
}

// ── Phase 4: Sequencing ──
// Every event except the last in each area chain must link forward in time.

func checkSequencing(events []domain.Event) *phase {
	p := &phase{name: "Phase 4: Sequencing"}
	links, _ := analysis.LinkSequential(events, analysis.GroupArea)

	groups := make(map[string]int)
	for _, e := range events {
		groups[analysis.GroupArea.ID(e)]++
	}
	if want := len(events) - len(groups); len(links) != want {
		p.errorf("got %d links, want %d (%d events in %d groups)", len(links), want, len(events), len(groups))
	}
	for _, l := range links {
		if l.TimeDeltaHours < 0 {
			p.errorf("%s → %s: negative time delta %.2fh", l.ID, l.Next.ID, l.TimeDeltaHours)
		}
		if l.Next.Timestamp.Before(l.Timestamp) {
			p.errorf("%s → %s: successor precedes event", l.ID, l.Next.ID)
		}
	}
	return p
}
