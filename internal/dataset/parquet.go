package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// parquetMeasurement is the fixed schema accepted for parquet sources.
type parquetMeasurement struct {
	Timestamp *string  `parquet:"Timestamp,optional"`
	GHI       *float64 `parquet:"GHI,optional"`
	DNI       *float64 `parquet:"DNI,optional"`
	DHI       *float64 `parquet:"DHI,optional"`
}

type parquetReader struct{}

func (parquetReader) CanRead(filename string) bool {
	return hasSuffix(filename, ".parquet")
}

func (parquetReader) Read(src io.Reader) (*RawTable, error) {
	// parquet needs random access to the footer
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	if len(b) == 0 {
		return nil, ErrEmptySource
	}
	pf, err := parquet.OpenFile(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	raw := &RawTable{Header: []string{ColTimestamp, ColGHI, ColDNI, ColDHI}}

	reader := parquet.NewGenericReader[parquetMeasurement](pf)
	defer reader.Close()
	batch := make([]parquetMeasurement, 1000)
	for {
		n, err := reader.Read(batch)
		for _, m := range batch[:n] {
			ts := ""
			if m.Timestamp != nil {
				ts = *m.Timestamp
			}
			raw.Records = append(raw.Records, []string{ts, optFloat(m.GHI), optFloat(m.DNI), optFloat(m.DHI)})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode parquet: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return raw, nil
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
