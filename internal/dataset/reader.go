package dataset

import (
	"errors"
	"io"
	"strings"
)

// Reader decodes one source format into a header and raw records.
type Reader interface {
	CanRead(filename string) bool
	Read(r io.Reader) (*RawTable, error)
}

// RawTable is a decoded source before rows are typed.
type RawTable struct {
	Header  []string
	Records [][]string
}

var registry []Reader

// Register adds a reader implementation to the registry. Readers registered
// later take precedence so callers can override the defaults.
func Register(r Reader) {
	registry = append([]Reader{r}, registry...)
}

// readerFor selects a reader by file name and falls back to plain CSV.
func readerFor(path string) Reader {
	for _, r := range registry {
		if r.CanRead(path) {
			return r
		}
	}
	return csvReader{comma: ','}
}

// ErrEmptySource indicates a source without a header row.
var ErrEmptySource = errors.New("no columns to parse from file")

func init() {
	// Register default readers; most specific last so it wins
	Register(csvReader{comma: ','})
	Register(tsvReader{})
	Register(xlsxReader{})
	Register(parquetReader{})
	Register(gzipCSVReader{comma: ','})
	Register(gzipCSVReader{comma: '\t'})
}

func hasSuffix(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
