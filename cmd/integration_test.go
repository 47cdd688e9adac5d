package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/solardash/internal/server"
)

// resetFlags clears values and Changed state that persist across invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns what it printed to stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// setupData isolates HOME and the working directory and writes the three
// country datasets into a data dir.
func setupData(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	if wd, err := os.Getwd(); err == nil {
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	files := map[string]string{
		"benin-malanville_clean.csv": "Timestamp,GHI,DNI,DHI,Tamb\n" +
			"2021-08-09 00:01,240,160,100,26.2\n" +
			"2021-08-09 00:02,230,170,110,26.4\n",
		"sierraleone-bumbuna_clean.csv": "Timestamp,GHI,DNI,DHI,Tamb\n" +
			"2021-10-30 00:01,180,90,80,21.0\n" +
			"2021-10-30 00:02,190,95,85,21.1\n",
		"togo-bumbuna_clean.csv": "Timestamp,GHI,DNI,DHI,Tamb\n" +
			"2021-10-25 00:01,222,140,90,24.0\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestCLI_SummaryMarkdown(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "summary")
	for _, want := range []string{
		"[SUMMARY STATISTICS]",
		"| Benin | 235.00 | 235.00 | 7.07 | 165.00 | 165.00 | 7.07 | 105.00 | 105.00 | 7.07 |",
		"| Sierra Leone | 185.00 | 185.00 | 7.07 |",
		"| Togo | 222.00 | 222.00 | NaN |",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Benin") > strings.Index(out, "Sierra Leone") || strings.Index(out, "Sierra Leone") > strings.Index(out, "Togo") {
		t.Fatalf("countries not in ascending order:\n%s", out)
	}
}

func TestCLI_SummaryJSONForSelection(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "--country", "Togo", "summary", "--json")
	var got []server.SummaryJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].Country != "Togo" {
		t.Fatalf("expected only Togo, got %+v", got)
	}
	if got[0].Metrics["GHI"].Std != nil {
		t.Fatalf("single-row std should be null")
	}
}

func TestCLI_NoneSelectsNothing(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "--none", "summary")
	if out != "" {
		t.Fatalf("expected no summary output, got:\n%s", out)
	}
	out = runCmd(t, "--data-dir", dir, "-q", "--none", "top", "--csv")
	if out != "Rank,Country,Mean,Count\n" {
		t.Fatalf("unexpected ranking: %q", out)
	}
}

func TestCLI_TopCSV(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "top", "--k", "2", "--csv")
	want := "Rank,Country,Mean,Count\n1,Benin,235,2\n2,Togo,222,1\n"
	if out != want {
		t.Fatalf("top mismatch:\nwant %q\ngot  %q", want, out)
	}
	out = runCmd(t, "--data-dir", dir, "-q", "top", "--column", "DNI", "--k", "1")
	if !strings.Contains(out, "[TOP 1 COUNTRIES BY AVERAGE DNI]") || !strings.Contains(out, "| 1 | Benin | 165.00 |") {
		t.Fatalf("unexpected markdown ranking:\n%s", out)
	}
}

func TestCLI_InvalidColumn(t *testing.T) {
	dir := setupData(t)
	_, err := execCmd(t, "--data-dir", dir, "-q", "top", "--column", "Irradiance")
	if err == nil || !strings.Contains(err.Error(), `"Irradiance"`) {
		t.Fatalf("expected invalid column error, got %v", err)
	}
}

func TestCLI_MissingSourceFails(t *testing.T) {
	dir := setupData(t)
	if err := os.Remove(filepath.Join(dir, "togo-bumbuna_clean.csv")); err != nil {
		t.Fatal(err)
	}
	out, err := execCmd(t, "--data-dir", dir, "-q", "summary")
	if err == nil || !strings.Contains(err.Error(), "load Togo data") {
		t.Fatalf("expected load error, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no partial output, got:\n%s", out)
	}
}

func TestCLI_ExportSelection(t *testing.T) {
	dir := setupData(t)
	path := filepath.Join(t.TempDir(), "benin.csv")
	out := runCmd(t, "--data-dir", dir, "-q", "--country", "Benin", "export", "-o", path)
	if !strings.Contains(out, "✓ Wrote 2 rows to") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "Timestamp,GHI,DNI,DHI,Tamb,Country\n" +
		"2021-08-09 00:01,240,160,100,26.2,Benin\n" +
		"2021-08-09 00:02,230,170,110,26.4,Benin\n"
	if string(b) != want {
		t.Fatalf("export mismatch:\n%s", b)
	}

	// default name lands in the working directory
	runCmd(t, "--data-dir", dir, "-q", "export")
	if _, err := os.Stat("filtered_solar_data.csv"); err != nil {
		t.Fatalf("default export missing: %v", err)
	}
}

func TestCLI_SeriesAndDistribution(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "--country", "Benin", "series", "--limit", "1")
	if out != "Timestamp,GHI\n2021-08-09 00:01:00,240\n" {
		t.Fatalf("unexpected series: %q", out)
	}
	if _, err := execCmd(t, "--data-dir", dir, "-q", "series"); err == nil {
		t.Fatalf("series without a country should fail")
	}
	out = runCmd(t, "--data-dir", dir, "-q", "distribution", "--column", "DHI")
	if !strings.Contains(out, "[DHI DISTRIBUTION]") || !strings.Contains(out, "- Togo (n=1)") {
		t.Fatalf("unexpected distribution:\n%s", out)
	}
}

func TestCLI_Report(t *testing.T) {
	dir := setupData(t)
	out := runCmd(t, "--data-dir", dir, "-q", "report")
	for _, want := range []string{
		"Rows: 5",
		"Countries: Benin (2), Sierra Leone (2), Togo (1)",
		"[TOP 3 COUNTRIES BY AVERAGE GHI]",
		"Highest average GHI: Benin (235.00).",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	path := filepath.Join(t.TempDir(), "report.md")
	runCmd(t, "--data-dir", dir, "-q", "report", "-o", path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	dir := setupData(t)
	runCmd(t, "config", "set", "top_k", "1")
	runCmd(t, "config", "set", "rounding", "away")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_k: 1") || !strings.Contains(out, "rounding: half-away") {
		t.Fatalf("config not persisted:\n%s", out)
	}
	out = runCmd(t, "--data-dir", dir, "-q", "top", "--csv")
	if out != "Rank,Country,Mean,Count\n1,Benin,235,2\n" {
		t.Fatalf("top_k from config not applied: %q", out)
	}
	if _, err := execCmd(t, "config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := execCmd(t, "config", "set", "sources", "Benin"); err == nil {
		t.Fatalf("expected invalid sources error")
	}
}
