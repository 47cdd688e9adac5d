package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/solardash/internal/config"
	"github.com/KaramelBytes/solardash/internal/dataset"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set solardash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_dir: %s\n", c.DataDir)
		fmt.Fprintln(out, "sources:")
		for _, s := range c.Sources {
			fmt.Fprintf(out, "  - %s: %s\n", s.Country, s.Path)
		}
		fmt.Fprintf(out, "summary_columns: %s\n", strings.Join(c.SummaryColumns, ","))
		fmt.Fprintf(out, "rank_column: %s\n", c.RankColumn)
		fmt.Fprintf(out, "top_k: %d\n", c.TopK)
		fmt.Fprintf(out, "decimals: %d\n", c.Decimals)
		fmt.Fprintf(out, "rounding: %s\n", c.Rounding)
		fmt.Fprintf(out, "series_limit: %d\n", c.SeriesLimit)
		fmt.Fprintf(out, "export_name: %s\n", c.ExportName)
		fmt.Fprintf(out, "cache: %t\n", c.Cache)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

Sources are given as a comma-separated list of country=path pairs, e.g.
  solardash config set sources "Benin=benin.csv,Togo=togo.csv"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		switch key {
		case "data_dir":
			c.DataDir = val
		case "sources":
			srcs, err := parseSources(val)
			if err != nil {
				return err
			}
			c.Sources = srcs
		case "summary_columns":
			c.SummaryColumns = splitList(val)
		case "rank_column":
			c.RankColumn = val
		case "top_k":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for top_k: %v", val)
			}
			c.TopK = i
		case "decimals":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for decimals: %w", err)
			}
			c.Decimals = i
		case "rounding":
			r, err := analysis.ParseRounding(val)
			if err != nil {
				return err
			}
			c.Rounding = r.String()
		case "series_limit":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for series_limit: %v", val)
			}
			c.SeriesLimit = i
		case "export_name":
			c.ExportName = val
		case "cache":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for cache: %w", err)
			}
			c.Cache = b
		case "listen_addr":
			c.ListenAddr = val
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func parseSources(val string) ([]dataset.Source, error) {
	var out []dataset.Source
	for _, pair := range splitList(val) {
		country, path, ok := strings.Cut(pair, "=")
		country, path = strings.TrimSpace(country), strings.TrimSpace(path)
		if !ok || country == "" || path == "" {
			return nil, fmt.Errorf("invalid source %q (use country=path)", pair)
		}
		out = append(out, dataset.Source{Path: path, Country: country})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sources given")
	}
	return out, nil
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
