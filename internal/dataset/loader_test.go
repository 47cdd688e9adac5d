package dataset

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const beninCSV = "Timestamp,GHI,DNI,DHI,ModA,Comments\n" +
	"2021-08-09 00:01,1.2,0.0,1.1,0.0,\n" +
	"2021-08-09 00:02,2.4,0.5,2.0,0.1,\n"

const sierraCSV = "Timestamp,GHI,DNI,DHI,Tamb\n" +
	"2021-10-30 00:01,10,4,5,21.9\n"

// a Country column in the file must be overridden by the source label
const togoCSV = "Timestamp,GHI,DNI,DHI,Country\n" +
	"2021-10-25 00:01,100,40,50,Ghana\n" +
	"2021-10-25 00:02,,41,51,Ghana\n" +
	"2021-10-25 00:03,102,42\n"

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func threeCountryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "benin-malanville_clean.csv", beninCSV)
	writeFile(t, dir, "sierraleone-bumbuna_clean.csv", sierraCSV)
	writeFile(t, dir, "togo-bumbuna_clean.csv", togoCSV)
	return dir
}

func TestLoader_ConcatenatesInSourceOrder(t *testing.T) {
	l := NewLoader(threeCountryDir(t), DefaultSources())
	tbl, err := l.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 6, tbl.Len())
	assert.Equal(t, []string{"Timestamp", "GHI", "DNI", "DHI", "ModA", "Comments", "Tamb", "Country"}, tbl.Columns)
	assert.Equal(t, []string{"Benin", "Sierra Leone", "Togo"}, tbl.Countries())

	var countries []string
	for _, r := range tbl.Rows {
		countries = append(countries, r.Country)
	}
	assert.Equal(t, []string{"Benin", "Benin", "Sierra Leone", "Togo", "Togo", "Togo"}, countries)

	first := tbl.Rows[0]
	assert.Equal(t, "2021-08-09 00:01", first.Timestamp)
	assert.Equal(t, 1.2, first.GHI)
	assert.Equal(t, "0.0", first.Cell("ModA"))
	assert.Equal(t, 0.0, first.Value("ModA"))
	assert.Equal(t, "", first.Cell("Tamb"))
	assert.True(t, math.IsNaN(first.Value("Tamb")))

	assert.Equal(t, 21.9, tbl.Rows[2].Value("Tamb"))
}

func TestLoader_CountryOverridesFileColumn(t *testing.T) {
	tbl, err := NewLoader(threeCountryDir(t), DefaultSources()).Load(context.Background())
	require.NoError(t, err)
	togo := tbl.Rows[3:]
	for _, r := range togo {
		assert.Equal(t, "Togo", r.Country)
		assert.Equal(t, "Togo", r.Cell(ColCountry))
	}
	// empty and missing trailing cells become NaN
	assert.True(t, math.IsNaN(togo[1].GHI))
	assert.Equal(t, 42.0, togo[2].DNI)
	assert.True(t, math.IsNaN(togo[2].DHI))
	assert.Equal(t, "", togo[2].Cell(ColDHI))
}

func TestLoader_MissingSource(t *testing.T) {
	dir := threeCountryDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "togo-bumbuna_clean.csv")))

	tbl, err := NewLoader(dir, DefaultSources()).Load(context.Background())
	assert.Nil(t, tbl)
	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "Togo", loadErr.Country)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "load Togo data from")
}

func TestLoader_MalformedSources(t *testing.T) {
	cases := map[string]string{
		"empty file":      "",
		"too many fields": "Timestamp,GHI,DNI,DHI\n2021-01-01,1,2,3,4\n",
		"bad number":      "Timestamp,GHI,DNI,DHI\n2021-01-01,bright,2,3\n",
		"bad quoting":     "Timestamp,GHI,DNI,DHI\n\"2021-01-01,1,2,3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "x.csv", body)
			_, err := NewLoader(dir, []Source{{Path: "x.csv", Country: "X"}}).Load(context.Background())
			var loadErr *DataLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, filepath.Join(dir, "x.csv"), loadErr.Source)
		})
	}
}

func TestLoader_HeaderOnlyAndMissingMeasurementColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Timestamp,GHI\n")
	writeFile(t, dir, "b.csv", "GHI\n5\n")
	tbl, err := NewLoader(dir, []Source{{Path: "a.csv", Country: "A"}, {Path: "b.csv", Country: "B"}}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"Timestamp", "GHI", "Country"}, tbl.Columns)
	assert.False(t, tbl.HasColumn(ColDNI))
	assert.True(t, math.IsNaN(tbl.Rows[0].DNI))
}

func TestLoader_NoSourcesAndCancelledContext(t *testing.T) {
	_, err := NewLoader("", nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSources)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLoader(threeCountryDir(t), DefaultSources()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_ProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoader(threeCountryDir(t), DefaultSources())
	l.Progress = &buf
	tbl, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, tbl.Len())
	assert.NotZero(t, buf.Len())
}

func TestLoader_AlternativeFormats(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(beninCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benin.csv.gz"), gz.Bytes(), 0o644))

	writeFile(t, dir, "sierra.tsv", "Timestamp\tGHI\tDNI\tDHI\n2021-10-30 00:01\t10\t4\t5\n")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"Timestamp", "GHI", "DNI", "DHI"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{"2021-10-25 00:01", 100.5, 40, 50}))
	require.NoError(t, wb.SaveAs(filepath.Join(dir, "togo.xlsx")))
	require.NoError(t, wb.Close())

	ts := "2021-11-01 00:01"
	ghi, dni := 7.5, 3.0
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "niger.parquet"), []parquetMeasurement{
		{Timestamp: &ts, GHI: &ghi, DNI: &dni},
	}))

	tbl, err := NewLoader(dir, []Source{
		{Path: "benin.csv.gz", Country: "Benin"},
		{Path: "sierra.tsv", Country: "Sierra Leone"},
		{Path: "togo.xlsx", Country: "Togo"},
		{Path: "niger.parquet", Country: "Niger"},
	}).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, tbl.Len())
	assert.Equal(t, 2.4, tbl.Rows[1].GHI)
	assert.Equal(t, 10.0, tbl.Rows[2].GHI)
	assert.Equal(t, 100.5, tbl.Rows[3].GHI)
	assert.Equal(t, "Togo", tbl.Rows[3].Country)
	niger := tbl.Rows[4]
	assert.Equal(t, ts, niger.Timestamp)
	assert.Equal(t, 7.5, niger.GHI)
	assert.True(t, math.IsNaN(niger.DHI))
}

func TestTable_HeadAndCountrySet(t *testing.T) {
	tbl := NewTable([]string{ColGHI, ColCountry},
		Row{Country: "A", GHI: 1}, Row{Country: "B", GHI: 2}, Row{Country: "A", GHI: 3})
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 3, tbl.Head(10).Len())
	assert.Equal(t, 0, tbl.Head(-1).Len())
	assert.Equal(t, []string{"A", "B"}, tbl.Countries())
	assert.Equal(t, "1", tbl.Rows[0].Cell(ColGHI))

	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
	assert.False(t, nilTable.HasColumn(ColGHI))

	set := NewCountrySet("A")
	assert.True(t, set.Has("A"))
	assert.False(t, set.Has("B"))
}

func TestRow_Time(t *testing.T) {
	ts, ok := Row{Timestamp: "2021-08-09 00:01:00"}.Time()
	require.True(t, ok)
	assert.Equal(t, 2021, ts.Year())
	_, ok = Row{}.Time()
	assert.False(t, ok)
}

func TestRow_CellRendersParsedMeasurements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "Timestamp,GHI,DNI,DHI,Comments\n2021-08-09 00:01,NA,1.50,NaN,NA\n")
	tbl, err := NewLoader(dir, []Source{{Path: "b.csv", Country: "Benin"}}).Load(context.Background())
	require.NoError(t, err)
	r := tbl.Rows[0]
	assert.True(t, math.IsNaN(r.GHI))
	assert.Equal(t, "", r.Cell(ColGHI))
	assert.Equal(t, "1.5", r.Cell(ColDNI))
	assert.Equal(t, "", r.Cell(ColDHI))
	// non-measurement columns keep their source text
	assert.Equal(t, "NA", r.Cell("Comments"))
}
