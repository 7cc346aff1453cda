package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical column keys after header normalisation.
const (
	ColLatitude  = "LATITUDE"
	ColLongitude = "LONGITUDE"
	ColMagnitude = "MAGNITUDE"
	ColDepth     = "DEPTH"
	ColDate      = "DATE"
	ColTime      = "TIME"
	ColDateTime  = "DATETIME"
	ColProvince  = "PROVINCE"
	ColArea      = "AREA"
	ColCategory  = "CATEGORY"
)

// columnAliases maps normalised header spellings to canonical keys.
var columnAliases = map[string]string{
	"LAT":                ColLatitude,
	"LATITUDE":           ColLatitude,
	"LON":                ColLongitude,
	"LNG":                ColLongitude,
	"LONG":               ColLongitude,
	"LONGITUDE":          ColLongitude,
	"MAG":                ColMagnitude,
	"MAGNITUDE":          ColMagnitude,
	"DEPTH":              ColDepth,
	"DEPTH (KM)":         ColDepth,
	"DEPTH_KM":           ColDepth,
	"DEPTH KM":           ColDepth,
	"DEPTH(KM)":          ColDepth,
	"DEPTH_IN_KM":        ColDepth,
	"DATE":               ColDate,
	"TIME":               ColTime,
	"DATETIME":           ColDateTime,
	"DATE_TIME":          ColDateTime,
	"DATE TIME":          ColDateTime,
	"DATE & TIME":        ColDateTime,
	"DATE-TIME":          ColDateTime,
	"DATE_TIME_PH":       ColDateTime,
	"DATE & TIME (PST)":  ColDateTime,
	"DATE & TIME (PHT)":  ColDateTime,
	"PROVINCE":           ColProvince,
	"AREA":               ColArea,
	"CATEGORY":           ColCategory,
	"INTENSITY":          ColCategory,
	"INTENSITY CATEGORY": ColCategory,
}

// CanonicalColumn trims and upper-cases a header, then resolves known aliases.
// Unknown headers are returned in their normalised form.
func CanonicalColumn(name string) string {
	n := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	if c, ok := columnAliases[n]; ok {
		return c
	}
	return n
}

// RequiredColumns returns the canonical columns absent from cols, in a fixed
// order. A date source is satisfied by DATETIME, DATE, or TIME.
func RequiredColumns(cols map[string]bool) []string {
	var missing []string
	for _, c := range []string{ColLatitude, ColLongitude, ColMagnitude, ColDepth, ColProvince} {
		if !cols[c] {
			missing = append(missing, c)
		}
	}
	if !cols[ColDateTime] && !cols[ColDate] && !cols[ColTime] {
		missing = append(missing, ColDate)
	}
	return missing
}

var (
	// dateTimeLayouts hold a full date and time in a single field.
	dateTimeLayouts = []string{
		"2 January 2006 - 3:04 PM",
		"2 January 2006 - 15:04",
		"2 Jan 2006 - 3:04 PM",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2/1/2006 3:04 PM",
		"2 January 2006 15:04:05",
		"2 January 2006 3:04 PM",
	}

	// dateLayouts are day-first where the order is ambiguous.
	dateLayouts = []string{
		"2/1/2006",
		"2006-01-02",
		"2-1-2006",
		"2 January 2006",
		"2 Jan 2006",
		"January 2, 2006",
	}

	timeLayouts = []string{
		"15:04:05",
		"15:04",
		"3:04 PM",
		"3:04:05 PM",
		"3:04PM",
	}
)

var errNoTimestamp = errors.New("no date or time value")

// ParseDateTime parses a combined date-time or a bare date (midnight).
func ParseDateTime(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, errNoTimestamp
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}

// CombineDateTime joins separate date and time fields. A blank time is midnight.
func CombineDateTime(date, tod string) (time.Time, error) {
	d, err := ParseDateTime(date)
	if err != nil {
		return time.Time{}, err
	}
	tod = strings.Join(strings.Fields(tod), " ")
	if tod == "" {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, tod); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", tod)
}

// RawRecord holds one source row keyed by canonical column. Absent columns
// are empty strings.
type RawRecord struct {
	Row       int
	DateTime  string
	Date      string
	Time      string
	Latitude  string
	Longitude string
	Magnitude string
	Depth     string
	Province  string
	Area      string
	Category  string
}

// RowError explains why a row was dropped.
type RowError struct {
	Row    int
	Reason string // one of the Drop* constants
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Reason, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseRecord converts a raw row into an Event. Rows with an unparseable
// timestamp, coordinate, or magnitude return a *RowError.
func ParseRecord(rec RawRecord) (Event, error) {
	ts, err := recordTimestamp(rec)
	if err != nil {
		return Event{}, &RowError{Row: rec.Row, Reason: DropTimestamp, Err: err}
	}

	lat, errLat := parseFloat(rec.Latitude)
	lon, errLon := parseFloat(rec.Longitude)
	if err := errors.Join(errLat, errLon); err != nil {
		return Event{}, &RowError{Row: rec.Row, Reason: DropCoordinates, Err: err}
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Event{}, &RowError{Row: rec.Row, Reason: DropCoordinates, Err: fmt.Errorf("out of range %g,%g", lat, lon)}
	}

	mag, err := parseFloat(rec.Magnitude)
	if err != nil {
		return Event{}, &RowError{Row: rec.Row, Reason: DropMagnitude, Err: err}
	}

	ev := Event{
		ID:        generateID(rec.Row, lat, lon, ts, mag),
		Row:       rec.Row,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Magnitude: mag,
		Province:  cleanLabel(rec.Province),
		Area:      cleanLabel(rec.Area),
		Category:  strings.ToUpper(cleanLabel(rec.Category)),
	}
	if d, err := parseFloat(rec.Depth); err == nil {
		d = math.Abs(d)
		ev.DepthKM = &d
	}
	if ev.Category == "" {
		ev.Category = strings.ToUpper(MagnitudeScheme.Bucket(mag).Label)
		ev.CategoryDerived = true
	}
	return ev, nil
}

func recordTimestamp(rec RawRecord) (time.Time, error) {
	switch {
	case strings.TrimSpace(rec.DateTime) != "":
		return ParseDateTime(rec.DateTime)
	case strings.TrimSpace(rec.Date) != "":
		return CombineDateTime(rec.Date, rec.Time)
	case strings.TrimSpace(rec.Time) != "":
		return ParseDateTime(rec.Time)
	default:
		return time.Time{}, errNoTimestamp
	}
}

// parseFloat rejects blanks, NaN, and infinities.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// cleanLabel collapses internal whitespace.
func cleanLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// generateID produces a deterministic ID from the event's key fields and its
// source row, so duplicate rows stay distinct and the same row keeps its
// identity across reloads of unchanged content.
func generateID(row int, lat, lon float64, ts time.Time, magnitude float64) string {
	input := fmt.Sprintf("%d|%.4f|%.4f|%s|%g", row, lat, lon, ts.UTC().Format(time.RFC3339), magnitude)
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}
