// Command genmock writes a synthetic earthquake bulletin CSV in the layout
// the loader reads. Output is deterministic for a given seed, so fixtures can
// be regenerated and diffed.
//
// Usage:
//
//	go run ./cmd/genmock -o data/mock/bulletin.csv --rows 5000 --seed 7
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

const bulletinLayout = "02 January 2006 - 03:04 PM"

var header = []string{"Date & Time", "Latitude", "Longitude", "Depth (km)", "Magnitude", "Province", "Area", "Category"}

// source is a seismic zone events are scattered around.
type source struct {
	province string
	area     string
	lat, lon float64
	weight   int
}

var sources = []source{
	{province: "Davao Oriental", area: "Manay", lat: 7.21, lon: 126.54, weight: 9},
	{province: "Davao Oriental", area: "Tarragona", lat: 7.05, lon: 126.44, weight: 5},
	{province: "Surigao del Sur", area: "Hinatuan", lat: 8.37, lon: 126.34, weight: 7},
	{province: "Surigao del Sur", area: "Lingig", lat: 8.04, lon: 126.41, weight: 4},
	{province: "Surigao del Norte", area: "Claver", lat: 9.57, lon: 125.73, weight: 3},
	{province: "Abra", area: "Tineg", lat: 17.78, lon: 120.93, weight: 3},
	{province: "Batangas", area: "Calatagan", lat: 13.83, lon: 120.63, weight: 4},
	{province: "Occidental Mindoro", area: "Looc", lat: 13.73, lon: 120.25, weight: 3},
	{province: "Cotabato", area: "Tulunan", lat: 6.83, lon: 124.88, weight: 4},
	{province: "Masbate", area: "Uson", lat: 12.23, lon: 123.78, weight: 2},
}

type options struct {
	Output      string    `short:"o" required:"" help:"Output CSV path."`
	Rows        int       `default:"2000" help:"Rows to write."`
	Seed        uint64    `default:"42" help:"Random seed."`
	Start       time.Time `format:"2006-01-02" default:"2022-01-01" help:"First day of the bulletin."`
	Days        int       `default:"730" help:"Days covered."`
	Aftershocks float64   `default:"0.35" help:"Probability that an event triggers a nearby follow-up."`
	BlankRate   float64   `name:"blank-rate" default:"0.2" help:"Share of rows written without a category."`
	BadRate     float64   `name:"bad-rate" default:"0" help:"Share of rows with an unparseable field."`
}

func main() {
	var opts options
	kong.Parse(&opts,
		kong.Name("genmock"),
		kong.Description("Generate a synthetic earthquake bulletin."),
	)
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if opts.Rows < 1 || opts.Days < 1 {
		return fmt.Errorf("rows and days must be positive")
	}

	rows := generate(opts)
	if err := writeCSV(opts.Output, rows); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Output, err)
	}
	log.Printf("wrote %d rows to %s", len(rows), opts.Output)

	printStats(rows)
	return nil
}

// row is one generated bulletin line.
type row struct {
	at        time.Time
	lat, lon  float64
	depth     *float64
	magnitude float64
	src       source
	category  string
	bad       string // column replaced with garbage, if any
}

func (r row) record() []string {
	depth := ""
	if r.depth != nil {
		depth = strconv.FormatFloat(*r.depth, 'f', 0, 64)
	}
	rec := []string{
		r.at.Format(bulletinLayout),
		strconv.FormatFloat(r.lat, 'f', 2, 64),
		strconv.FormatFloat(r.lon, 'f', 2, 64),
		depth,
		strconv.FormatFloat(r.magnitude, 'f', 1, 64),
		r.src.province,
		r.src.area,
		r.category,
	}
	switch r.bad {
	case "timestamp":
		rec[0] = "not a date"
	case "coordinates":
		rec[1] = "north"
	case "magnitude":
		rec[4] = "n/a"
	}
	return rec
}

func generate(opts options) []row {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	total := 0
	for _, s := range sources {
		total += s.weight
	}
	pick := func() source {
		n := rng.IntN(total)
		for _, s := range sources {
			if n < s.weight {
				return s
			}
			n -= s.weight
		}
		return sources[len(sources)-1]
	}

	span := time.Duration(opts.Days) * 24 * time.Hour
	out := make([]row, 0, opts.Rows)
	for len(out) < opts.Rows {
		r := newRow(rng, pick(), opts.Start.Add(time.Duration(rng.Int64N(int64(span)))), opts)
		out = append(out, r)

		// Follow-ups land within two days in the same zone and run weaker.
		for len(out) < opts.Rows && rng.Float64() < opts.Aftershocks {
			lag := time.Duration(rng.ExpFloat64() * float64(6*time.Hour))
			lag = min(lag, 48*time.Hour)
			next := newRow(rng, r.src, r.at.Add(lag), opts)
			next.magnitude = math.Max(1.0, math.Round((r.magnitude-0.5-rng.Float64())*10)/10)
			next.category = category(next.magnitude, rng, opts.BlankRate)
			out = append(out, next)
			r = next
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

func newRow(rng *rand.Rand, s source, at time.Time, opts options) row {
	r := row{
		at:  at.Truncate(time.Minute),
		lat: s.lat + rng.NormFloat64()*0.12,
		lon: s.lon + rng.NormFloat64()*0.12,
		src: s,
	}

	// Gutenberg-Richter with b = 1 above a 1.5 completeness floor.
	r.magnitude = math.Min(7.5, math.Round((1.5+rng.ExpFloat64()/math.Ln10)*10)/10)

	if rng.Float64() >= 0.05 {
		d := math.Round(5 + rng.ExpFloat64()*25)
		r.depth = &d
	}
	r.category = category(r.magnitude, rng, opts.BlankRate)

	if rng.Float64() < opts.BadRate {
		r.bad = []string{"timestamp", "coordinates", "magnitude"}[rng.IntN(3)]
	}
	return r
}

func category(magnitude float64, rng *rand.Rand, blankRate float64) string {
	if rng.Float64() < blankRate {
		return ""
	}
	return strings.ToUpper(domain.MagnitudeScheme.Bucket(magnitude).Label)
}

func writeCSV(path string, rows []row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

type provinceCount struct {
	province string
	count    int
}

func printStats(rows []row) {
	byProvince := map[string]int{}
	byCategory := map[string]int{}
	var strong, bad, blank int
	for _, r := range rows {
		byProvince[r.src.province]++
		if r.category == "" {
			blank++
		} else {
			byCategory[r.category]++
		}
		if r.magnitude >= 5 {
			strong++
		}
		if r.bad != "" {
			bad++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d (unparseable: %d, blank category: %d)\n", len(rows), bad, blank)
	fmt.Printf("Magnitude >= 5.0: %d\n", strong)
	if len(rows) > 0 {
		fmt.Printf("Range: %s .. %s\n", rows[0].at.Format(time.DateOnly), rows[len(rows)-1].at.Format(time.DateOnly))
	}

	pc := make([]provinceCount, 0, len(byProvince))
	for p, c := range byProvince {
		pc = append(pc, provinceCount{p, c})
	}
	sort.Slice(pc, func(i, j int) bool {
		if pc[i].count != pc[j].count {
			return pc[i].count > pc[j].count
		}
		return pc[i].province < pc[j].province
	})
	fmt.Printf("Provinces (%d): ", len(pc))
	for i, p := range pc {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s=%d", p.province, p.count)
	}
	fmt.Println()

	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	fmt.Print("Categories: ")
	for i, c := range cats {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s=%d", c, byCategory[c])
	}
	fmt.Println()
}
