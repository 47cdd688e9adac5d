package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the selected rows to a CSV file",
	Long: `Write the selected rows, every column of the sources plus Country, to a
CSV file. A path ending in .gz is gzip-compressed. Use "-o -" for stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, c, err := loadSelected(cmd)
		if err != nil {
			return err
		}
		if exportOutput == "-" {
			return export.WriteTable(cmd.OutOrStdout(), t)
		}
		path := exportOutput
		if path == "" {
			path = c.ExportName
		}
		if err := export.WriteFile(path, func(w io.Writer) error { return export.WriteTable(w, t) }); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rows to %s\n", t.Len(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default export_name from config)")
	rootCmd.AddCommand(exportCmd)
}
