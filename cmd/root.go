package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/solardash/internal/config"
	"github.com/KaramelBytes/solardash/internal/dataset"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	quiet       bool
	flagDataDir string
	// Country selection; nothing means every country
	flagCountries []string
	flagNone      bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "solardash",
	Short: "Solar irradiance dashboard: compare GHI, DNI and DHI across countries",
	Long: `solardash loads the cleaned solar measurement datasets of Benin, Sierra Leone
and Togo, lets you pick countries, and reports per-country statistics, a top
ranking by average irradiance, distributions and CSV exports. The same views
are served as JSON by "solardash serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.solardash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide load progress")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the source files (overrides config)")
	rootCmd.PersistentFlags().StringSliceVarP(&flagCountries, "country", "c", nil, "country to include (repeatable; default all)")
	rootCmd.PersistentFlags().BoolVar(&flagNone, "none", false, "select no country")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it through requireConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	if rootCmd.PersistentFlags().Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	setupLogging(cfg.LogLevel)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	cfg = c
	return cfg, nil
}

// loadSelected reads every source and applies the country selection. A
// failing source aborts the command; nothing partial is shown.
func loadSelected(cmd *cobra.Command) (*dataset.Table, *cfgpkg.Global, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	l := c.Loader()
	l.Logger = slog.Default()
	if !quiet {
		l.Progress = cmd.ErrOrStderr()
	}
	t, err := l.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return selectCountries(t), c, nil
}

func selectCountries(t *dataset.Table) *dataset.Table {
	switch {
	case flagNone:
		return analysis.Filter(t, nil)
	case len(flagCountries) == 0:
		return t
	default:
		return analysis.Filter(t, dataset.NewCountrySet(flagCountries...))
	}
}
