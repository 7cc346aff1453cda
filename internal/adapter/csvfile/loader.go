// Package csvfile loads the earthquake bulletin CSV into a domain.Table.
package csvfile

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/quake-explorer/internal/domain"
)

const (
	encodingUTF8   = "utf-8"
	encodingLatin1 = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads bulletin files and memoises the result per path and content
// checksum. It is safe for concurrent use.
type Loader struct {
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*domain.Table // path → last table loaded from it
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		logger: logger,
		cache:  make(map[string]*domain.Table),
	}
}

// Load parses path into a Table. An unchanged file returns the same *Table
// as the previous call. Missing files, unreadable files, and files with no
// usable rows return a *domain.DataSourceError; absent required columns
// return a *domain.SchemaError.
func (l *Loader) Load(path string) (*domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.DataSourceError{Op: "open", Path: path, Err: domain.ErrFileNotFound}
		}
		return nil, &domain.DataSourceError{Op: "read", Path: path, Err: err}
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[path]; ok && t.Checksum == checksum {
		l.logger.Debug("data file unchanged", "path", path, "checksum", checksum[:12])
		return t, nil
	}

	text, encoding, err := decode(data)
	if err != nil {
		return nil, &domain.DataSourceError{Op: "decode", Path: path, Err: err}
	}

	events, report, err := parse(text, l.logger)
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return nil, &domain.DataSourceError{Op: "parse", Path: path, Err: err}
	}
	if len(events) == 0 {
		return nil, &domain.DataSourceError{Op: "parse", Path: path, Err: domain.ErrEmptyResult}
	}

	t := &domain.Table{
		Source:   path,
		Checksum: checksum,
		Encoding: encoding,
		LoadedAt: domain.Now(),
		Events:   events,
		Report:   report,
	}
	l.cache[path] = t

	l.logger.Info("data file loaded",
		"path", path,
		"encoding", encoding,
		"rows", report.TotalRows,
		"kept", report.KeptRows,
		"dropped", report.DroppedTotal(),
		"hierarchy_conflicts", len(report.HierarchyConflicts),
	)
	return t, nil
}

// decode strips a UTF-8 BOM and falls back to ISO-8859-1 when the bytes are
// not valid UTF-8.
func decode(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, encodingUTF8, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("iso-8859-1 fallback: %w", err)
	}
	return out, encodingLatin1, nil
}

// parse reads the header and every row. Dropped rows are counted in the
// report rather than failing the load.
func parse(text []byte, logger *slog.Logger) ([]domain.Event, domain.LoadReport, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	report := domain.LoadReport{Dropped: map[string]int{}}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		c := domain.CanonicalColumn(h)
		if _, dup := cols[c]; !dup {
			cols[c] = i
		}
		present[c] = true
	}
	if missing := domain.RequiredColumns(present); len(missing) > 0 {
		return nil, report, &domain.SchemaError{Missing: missing}
	}

	field := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var events []domain.Event
	for row := 1; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("read row %d: %w", row, err)
		}
		report.TotalRows++

		ev, err := domain.ParseRecord(domain.RawRecord{
			Row:       row,
			DateTime:  field(rec, domain.ColDateTime),
			Date:      field(rec, domain.ColDate),
			Time:      field(rec, domain.ColTime),
			Latitude:  field(rec, domain.ColLatitude),
			Longitude: field(rec, domain.ColLongitude),
			Magnitude: field(rec, domain.ColMagnitude),
			Depth:     field(rec, domain.ColDepth),
			Province:  field(rec, domain.ColProvince),
			Area:      field(rec, domain.ColArea),
			Category:  field(rec, domain.ColCategory),
		})
		if err != nil {
			var rowErr *domain.RowError
			if !errors.As(err, &rowErr) {
				return nil, report, err
			}
			report.Dropped[rowErr.Reason]++
			logger.Debug("row dropped", "row", row, "reason", rowErr.Reason, "error", rowErr.Err)
			continue
		}

		if ev.CategoryDerived {
			report.DerivedCategories++
		}
		if ev.DepthKM == nil {
			report.MissingDepth++
		}
		events = append(events, ev)
	}

	report.KeptRows = len(events)
	report.HierarchyConflicts = hierarchyConflicts(events)
	return events, report, nil
}

// hierarchyConflicts lists areas that appear under more than one province.
func hierarchyConflicts(events []domain.Event) []string {
	parent := make(map[string]string)
	conflicts := make(map[string]bool)
	for _, e := range events {
		if e.Area == "" {
			continue
		}
		p, ok := parent[e.Area]
		if !ok {
			parent[e.Area] = e.Province
			continue
		}
		if p != e.Province {
			conflicts[e.Area] = true
		}
	}
	out := make([]string, 0, len(conflicts))
	for a := range conflicts {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
