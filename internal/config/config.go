package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/dataset"
)

// Global configuration structure.
type Global struct {
	DataDir string           `mapstructure:"data_dir" yaml:"data_dir"`
	Sources []dataset.Source `mapstructure:"sources" yaml:"sources" validate:"required,min=1,dive"`

	// Analysis defaults
	SummaryColumns []string `mapstructure:"summary_columns" yaml:"summary_columns" validate:"dive,required"`
	RankColumn     string   `mapstructure:"rank_column" yaml:"rank_column" validate:"required"`
	TopK           int      `mapstructure:"top_k" yaml:"top_k" validate:"gte=0"`
	Decimals       int      `mapstructure:"decimals" yaml:"decimals" validate:"lte=12"`
	Rounding       string   `mapstructure:"rounding" yaml:"rounding" validate:"omitempty,oneof=half-even even bankers half-away away half-up"`
	SeriesLimit    int      `mapstructure:"series_limit" yaml:"series_limit" validate:"gte=0"`
	ExportName     string   `mapstructure:"export_name" yaml:"export_name" validate:"required"`

	// Cache keeps the loaded table for the life of the process.
	Cache bool `mapstructure:"cache" yaml:"cache"`

	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

const (
	envPrefix = "SOLARDASH"
	homeDir   = ".solardash"
)

// DefaultPath returns ~/.solardash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, homeDir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.solardash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including .env) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// does not override variables already in the environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("sources", dataset.DefaultSources())
	v.SetDefault("summary_columns", dataset.MeasurementColumns)
	v.SetDefault("rank_column", analysis.DefaultRankColumn)
	v.SetDefault("top_k", analysis.DefaultTopK)
	v.SetDefault("decimals", 2)
	v.SetDefault("rounding", analysis.RoundHalfEven.String())
	v.SetDefault("series_limit", analysis.DefaultSeriesLimit)
	v.SetDefault("export_name", "filtered_solar_data.csv")
	v.SetDefault("cache", true)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, homeDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SummaryOptions builds the summary settings from the config.
func (c *Global) SummaryOptions() (analysis.SummaryOptions, error) {
	opt := analysis.DefaultSummaryOptions()
	if len(c.SummaryColumns) > 0 {
		opt.Columns = append([]string(nil), c.SummaryColumns...)
	}
	opt.Decimals = c.Decimals
	r, err := analysis.ParseRounding(c.Rounding)
	if err != nil {
		return opt, err
	}
	opt.Rounding = r
	return opt, nil
}

// Loader returns a dataset loader over the configured sources.
func (c *Global) Loader() *dataset.Loader {
	return dataset.NewLoader(c.DataDir, c.Sources)
}
