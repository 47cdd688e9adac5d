package dataset

import (
	"errors"
	"fmt"
)

// ErrNoSources is returned by a loader configured without any source.
var ErrNoSources = errors.New("no data sources configured")

// DataLoadError indicates a source file is missing, unreadable or malformed.
// Nothing from the failed load is returned alongside it.
type DataLoadError struct {
	Source  string
	Country string
	Err     error
}

func (e *DataLoadError) Error() string {
	if e == nil {
		return "data load failed"
	}
	if e.Country != "" {
		return fmt.Sprintf("load %s data from %s: %v", e.Country, e.Source, e.Err)
	}
	return fmt.Sprintf("load data from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// InvalidColumnError indicates a required column is absent from a table.
type InvalidColumnError struct {
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("column %q not found in table", e.Column)
}

// RequireColumns returns an *InvalidColumnError for the first column in cols
// missing from t.
func RequireColumns(t *Table, cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return &InvalidColumnError{Column: c}
		}
	}
	return nil
}
