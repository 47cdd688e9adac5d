package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/utils"
)

var (
	reportOutput string
	reportMetric string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Full markdown overview of the selected data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, c, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		opt := analysis.DefaultReportOptions()
		if opt.Summary, err = c.SummaryOptions(); err != nil {
			return err
		}
		opt.RankColumn = c.RankColumn
		opt.TopK = c.TopK
		opt.Metric = reportMetric
		rep, err := analysis.BuildReport(t, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if reportOutput == "" {
			_, err := io.WriteString(cmd.OutOrStdout(), md)
			return err
		}
		if err := utils.SafeWriteFile(reportOutput, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.Flags().StringVar(&reportMetric, "metric", "GHI", "column for the distribution section")
	rootCmd.AddCommand(reportCmd)
}
