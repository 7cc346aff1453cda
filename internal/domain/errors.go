package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound is wrapped by DataSourceError when the input path does not exist.
	ErrFileNotFound = errors.New("data file not found")

	// ErrEmptyResult is wrapped by DataSourceError when every row was dropped.
	ErrEmptyResult = errors.New("no usable rows after parsing")
)

// DataSourceError reports a file that is missing, unreadable, or empty after
// parsing. It is fatal to the current view.
type DataSourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// SchemaError reports required columns that are absent after normalisation.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// WarningKind classifies recoverable conditions returned alongside results.
type WarningKind string

const (
	WarnEmptySelection        WarningKind = "empty_selection"
	WarnInsufficientGroupSize WarningKind = "insufficient_group_size"
)

// Warning is a recoverable condition: the affected view or group renders a
// "no data" state and the rest of the pipeline continues.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Group   string      `json:"group,omitempty"`
	Rows    int         `json:"rows"`
	Need    int         `json:"need,omitempty"`
	Message string      `json:"message"`
}

// EmptySelection builds the warning for a filter combination with no rows.
func EmptySelection() Warning {
	return Warning{
		Kind:    WarnEmptySelection,
		Message: "no events match the current filters",
	}
}

// InsufficientGroup builds the warning for a group skipped for being too small.
func InsufficientGroup(group string, rows, need int, op string) Warning {
	return Warning{
		Kind:    WarnInsufficientGroupSize,
		Group:   group,
		Rows:    rows,
		Need:    need,
		Message: fmt.Sprintf("%s skipped for group %q: %d rows, need at least %d", op, group, rows, need),
	}
}
