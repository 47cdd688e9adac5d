package cmd

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/export"
	"github.com/KaramelBytes/solardash/internal/server"
	"github.com/KaramelBytes/solardash/internal/utils"
)

var (
	outJSON bool
	outCSV  bool

	sampleRows int

	topColumn string
	topK      int

	distColumn string

	seriesColumn string
	seriesLimit  int
)

// render writes v as indented JSON, CSV via writeCSV, or the markdown text.
func render(w io.Writer, v any, writeCSV func(io.Writer) error, markdown string) error {
	switch {
	case outJSON && outCSV:
		return errors.New("--json and --csv are mutually exclusive")
	case outJSON:
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case outCSV && writeCSV != nil:
		return writeCSV(w)
	default:
		_, err := io.WriteString(w, markdown)
		return err
	}
}

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries in the dataset with their row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		counts := map[string]int{}
		for _, r := range t.Rows {
			counts[r.Country]++
		}
		out := make([]server.CountryJSON, 0, len(counts))
		var md strings.Builder
		for _, c := range t.Countries() {
			out = append(out, server.CountryJSON{Country: c, Rows: counts[c]})
			fmt.Fprintf(&md, "%s\t%d\n", c, counts[c])
		}
		return render(cmd.OutOrStdout(), out, nil, md.String())
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Show the first rows of the selected data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		head := t.Head(sampleRows)
		if outCSV {
			return export.WriteTable(cmd.OutOrStdout(), head)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), analysis.TableMarkdown(head))
		return err
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Mean, median and standard deviation of GHI, DNI and DHI per country",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, c, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		opt, err := c.SummaryOptions()
		if err != nil {
			return err
		}
		sum, err := analysis.Summarize(t, opt)
		if err != nil {
			return err
		}
		if sum.Len() == 0 && !outJSON && !outCSV {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ No countries selected")
			return nil
		}
		return render(cmd.OutOrStdout(), server.NewSummaryJSON(sum),
			func(w io.Writer) error { return export.WriteSummary(w, sum) }, sum.Markdown())
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank countries by average irradiance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, c, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		column := c.RankColumn
		if cmd.Flags().Changed("column") {
			column = topColumn
		}
		k := c.TopK
		if cmd.Flags().Changed("k") {
			k = topK
		}
		recs, err := analysis.TopK(t, column, k)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), server.NewRankingJSON(recs),
			func(w io.Writer) error { return export.WriteRanking(w, recs) }, analysis.RankingMarkdown(column, recs))
	},
}

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Box-plot statistics of a column per country",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		stats, err := analysis.Distribution(t, distColumn)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), server.NewBoxJSON(stats),
			func(w io.Writer) error { return export.WriteDistribution(w, stats) }, analysis.DistributionMarkdown(distColumn, stats))
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Time series of a column for one country (--country)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(flagCountries) != 1 {
			return errors.New("series needs exactly one --country")
		}
		t, c, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		limit := c.SeriesLimit
		if cmd.Flags().Changed("limit") {
			limit = seriesLimit
		}
		points, err := analysis.Series(t, flagCountries[0], seriesColumn, limit)
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString("Timestamp," + seriesColumn + "\n")
		for _, p := range points {
			b.WriteString(p.Time.Format("2006-01-02 15:04:05"))
			b.WriteByte(',')
			if !math.IsNaN(p.Value) {
				b.WriteString(strconv.FormatFloat(p.Value, 'f', -1, 64))
			}
			b.WriteByte('\n')
		}
		return render(cmd.OutOrStdout(), server.NewPointJSON(points), nil, b.String())
	},
}

func init() {
	for _, c := range []*cobra.Command{countriesCmd, summaryCmd, topCmd, distributionCmd, seriesCmd} {
		c.Flags().BoolVar(&outJSON, "json", false, "print JSON")
	}
	for _, c := range []*cobra.Command{sampleCmd, summaryCmd, topCmd, distributionCmd} {
		c.Flags().BoolVar(&outCSV, "csv", false, "print CSV")
	}
	sampleCmd.Flags().IntVarP(&sampleRows, "rows", "n", 5, "number of rows to show")
	topCmd.Flags().StringVar(&topColumn, "column", analysis.DefaultRankColumn, "column to rank by")
	topCmd.Flags().IntVar(&topK, "k", analysis.DefaultTopK, "number of countries to keep")
	distributionCmd.Flags().StringVar(&distColumn, "column", "GHI", "column to describe")
	seriesCmd.Flags().StringVar(&seriesColumn, "column", "GHI", "column to plot")
	seriesCmd.Flags().IntVar(&seriesLimit, "limit", analysis.DefaultSeriesLimit, "records of the country to sample")

	rootCmd.AddCommand(countriesCmd, sampleCmd, summaryCmd, topCmd, distributionCmd, seriesCmd)
}
