package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxReader reads the first worksheet of a workbook; its first row is the header.
type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return hasSuffix(filename, ".xlsx")
}

func (xlsxReader) Read(src io.Reader) (*RawTable, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySource
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptySource
	}
	return &RawTable{Header: rows[0], Records: rows[1:]}, nil
}
