package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "labmeas/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Import  ImportConfig  `yaml:"import" envconfig:"IMPORT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Pivot   PivotConfig   `yaml:"pivot" envconfig:"PIVOT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"eq=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ImportConfig controls how measurement files are read
type ImportConfig struct {
	// Variant selects the reader: hall, sinton (lifetime) or fitlog (se).
	Variant         string `yaml:"variant" envconfig:"VARIANT" validate:"omitempty,oneof=hall sinton lifetime fitlog se"`
	StrictFilenames bool   `yaml:"strict_filenames" envconfig:"STRICT_FILENAMES"`
	TempDir         string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// OutputConfig contains export destinations
type OutputConfig struct {
	TablePath   string `yaml:"table_path" envconfig:"TABLE_PATH"`
	PivotPath   string `yaml:"pivot_path" envconfig:"PIVOT_PATH"`
	BOM         bool   `yaml:"bom" envconfig:"BOM"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
}

// PivotConfig describes the summary table built after an import
type PivotConfig struct {
	Values  string   `yaml:"values" envconfig:"VALUES"`
	Index   []string `yaml:"index" envconfig:"INDEX"`
	Columns string   `yaml:"columns" envconfig:"COLUMNS"`
	// Aggregate is mean when empty.
	Aggregate string `yaml:"aggregate" envconfig:"AGGREGATE" validate:"omitempty,oneof=mean median min max sum"`
}

// Load builds the configuration from defaults, the YAML file, a .env file and
// the environment, in increasing order of precedence. An empty configFile
// falls back to LABMEAS_CONFIG_FILE and then to the default locations.
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, apperrors.NewConfigError("failed to load "+DotEnvFile, err)
	}

	cfg := Default()

	explicit := configFile != ""
	if !explicit {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil || explicit {
			if err := loadFromFile(configFile, cfg); err != nil {
				return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", configFile)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv exports variables from a .env file when one exists.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"labmeas.yaml",
		"configs/labmeas.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Validate checks enum and required fields
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Import.Variant = strings.ToLower(c.Import.Variant)
	c.Pivot.Aggregate = strings.ToLower(c.Pivot.Aggregate)

	v := validator.New()
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if (c.Pivot.Values == "") != (c.Pivot.Columns == "") {
		return fmt.Errorf("pivot values and columns must be set together")
	}

	return nil
}

// PivotEnabled reports whether a pivot table is configured
func (c *Config) PivotEnabled() bool {
	return c.Pivot.Values != "" && c.Pivot.Columns != ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Import: ImportConfig{
			StrictFilenames: true,
		},
		Pivot: PivotConfig{
			Index: []string{"sample", "capping"},
		},
	}
}
