package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type csvReader struct {
	comma rune
}

func (csvReader) CanRead(filename string) bool {
	return hasSuffix(filename, ".csv")
}

func (c csvReader) Read(src io.Reader) (*RawTable, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = c.comma
	if r.Comma == 0 {
		r.Comma = ','
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySource
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := &RawTable{Header: header}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw.Records)+1, err)
		}
		raw.Records = append(raw.Records, rec)
	}
	return raw, nil
}

type tsvReader struct{}

func (tsvReader) CanRead(filename string) bool {
	return hasSuffix(filename, ".tsv")
}

func (tsvReader) Read(src io.Reader) (*RawTable, error) {
	return csvReader{comma: '\t'}.Read(src)
}

// gzipCSVReader reads gzip-compressed CSV or TSV sources.
type gzipCSVReader struct {
	comma rune
}

func (g gzipCSVReader) CanRead(filename string) bool {
	if g.comma == '\t' {
		return hasSuffix(filename, ".tsv.gz")
	}
	return hasSuffix(filename, ".csv.gz")
}

func (g gzipCSVReader) Read(src io.Reader) (*RawTable, error) {
	zr, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()
	return csvReader{comma: g.comma}.Read(zr)
}
