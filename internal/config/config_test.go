package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labmeas/internal/errors"
)

var envVars = []string{
	"LABMEAS_CONFIG_FILE",
	"LABMEAS_LOGGING_LEVEL", "LABMEAS_LOGGING_OUTPUT", "LABMEAS_LOGGING_FILE_PATH",
	"LABMEAS_IMPORT_VARIANT", "LABMEAS_IMPORT_STRICT_FILENAMES", "LABMEAS_IMPORT_TEMP_DIR",
	"LABMEAS_OUTPUT_TABLE_PATH", "LABMEAS_OUTPUT_BOM",
	"LABMEAS_PIVOT_VALUES", "LABMEAS_PIVOT_INDEX", "LABMEAS_PIVOT_COLUMNS",
}

// isolate runs the test from an empty directory with a clean environment
func isolate(t *testing.T) string {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, dir string) string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:  "defaults with no file and no env",
			setup: func(t *testing.T, dir string) string { return "" },
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.True(t, cfg.Import.StrictFilenames)
				assert.Equal(t, []string{"sample", "capping"}, cfg.Pivot.Index)
				assert.False(t, cfg.PivotEnabled())
			},
		},
		{
			name: "yaml file overlays defaults",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "custom.yaml")
				writeFile(t, p, "import:\n  variant: hall\n  strict_filenames: false\npivot:\n  values: Hall mobility\n  columns: anneal\n")
				return p
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "hall", cfg.Import.Variant)
				assert.False(t, cfg.Import.StrictFilenames)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.True(t, cfg.PivotEnabled())
				assert.Equal(t, []string{"sample", "capping"}, cfg.Pivot.Index)
			},
		},
		{
			name: "env overrides yaml",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "labmeas.yaml")
				writeFile(t, p, "import:\n  variant: hall\n")
				t.Setenv("LABMEAS_IMPORT_VARIANT", "SINTON")
				t.Setenv("LABMEAS_PIVOT_INDEX", "sample")
				return ""
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sinton", cfg.Import.Variant)
				assert.Equal(t, []string{"sample"}, cfg.Pivot.Index)
			},
		},
		{
			name: "dotenv file is read",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, filepath.Join(dir, ".env"), "LABMEAS_LOGGING_LEVEL=debug\n")
				t.Cleanup(func() { os.Unsetenv("LABMEAS_LOGGING_LEVEL") })
				return ""
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "invalid variant",
			setup: func(t *testing.T, dir string) string {
				t.Setenv("LABMEAS_IMPORT_VARIANT", "csv")
				return ""
			},
			wantErr: true,
		},
		{
			name: "invalid log output",
			setup: func(t *testing.T, dir string) string {
				t.Setenv("LABMEAS_LOGGING_OUTPUT", "syslog")
				return ""
			},
			wantErr: true,
		},
		{
			name: "pivot values without columns",
			setup: func(t *testing.T, dir string) string {
				t.Setenv("LABMEAS_PIVOT_VALUES", "Hall mobility")
				return ""
			},
			wantErr: true,
		},
		{
			name: "unknown pivot aggregate",
			setup: func(t *testing.T, dir string) string {
				t.Setenv("LABMEAS_PIVOT_AGGREGATE", "mode")
				return ""
			},
			wantErr: true,
		},
		{
			name: "explicit missing file",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "nope.yaml")
			},
			wantErr: true,
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "bad.yaml")
				writeFile(t, p, "import: [unclosed\n")
				return p
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			file := tt.setup(t, dir)

			cfg, err := Load(file)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrConfig)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate_FilePathRequiredForFileOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	assert.Error(t, cfg.Validate())

	cfg.Logging.FilePath = "logs/x.log"
	assert.NoError(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}
