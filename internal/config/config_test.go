package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapdq/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdq/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdq/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSourceConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		source    SourceConfig
		errSubstr string
	}{
		{"empty type", SourceConfig{}, "source type is required"},
		{"valid sqlite", SourceConfig{Type: "sqlite"}, ""},
		{"valid sqlite uppercase", SourceConfig{Type: "SQLite"}, ""},
		{"postgres with credentials", SourceConfig{Type: "postgres", User: "u", Password: "p"}, ""},
		{"postgres without user", SourceConfig{Type: "postgres", Password: "p"}, "source.user is required"},
		{"postgres without password", SourceConfig{Type: "postgres", User: "u"}, "source.password is required"},
		{"unknown type", SourceConfig{Type: "oracle"}, "unknown adapter type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Source:      SourceConfig{Type: "sqlite"},
			Files:       FilesConfig{Reader: "duckdb"},
			Output:      "auto",
			Concurrency: 1,
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad source", func(c *Config) { c.Source.Type = "" }, "invalid source configuration"},
		{"bad reader", func(c *Config) { c.Files.Reader = "parquet-magic" }, "invalid files.reader"},
		{"reader cannot read files", func(c *Config) { c.Files.Reader = "sqlite" }, "Check files.reader"},
		{"bad output", func(c *Config) { c.Output = "yaml" }, "invalid output"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency must be at least 1"},
		{"negative limit", func(c *Config) { c.ReportLimit = -1 }, "report_limit must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestFilesConfig_DatasetPath(t *testing.T) {
	f := FilesConfig{
		Root: "/data",
		Datasets: map[string]string{
			"relative": "out/relative",
			"absolute": "/elsewhere/absolute",
		},
	}

	assert.Equal(t, filepath.Join("/data", "out/relative"), f.DatasetPath("relative"))
	assert.Equal(t, "/elsewhere/absolute", f.DatasetPath("absolute"))
	assert.Equal(t, filepath.Join("/data", "unlisted"), f.DatasetPath("unlisted"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPDQ_TEST_SECRET", "s3cret")

	tests := []struct {
		input string
		want  string
	}{
		{"${LEAPDQ_TEST_SECRET}", "s3cret"},
		{"pre-${LEAPDQ_TEST_SECRET}-post", "pre-s3cret-post"},
		{"${LEAPDQ_TEST_UNSET}", "${LEAPDQ_TEST_UNSET}"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
source:
  type: postgres
  host: db.internal
  database: dq
  user: checker
  password: ${LEAPDQ_TEST_PG_PASSWORD}
files:
  root: parquet_data
  datasets:
    facility_type_avg_time_spent_per_visit_date: avg
mapping_path: mapping/dq.yaml
`)
	t.Setenv("LEAPDQ_TEST_PG_PASSWORD", "pw")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, cfgPath, cfg.ConfigFile)
	assert.Equal(t, "postgres", cfg.Source.Type)
	assert.Equal(t, DefaultPostgresPort, cfg.Source.Port)
	assert.Equal(t, "pw", cfg.Source.Password)
	assert.Equal(t, filepath.Join(root, "parquet_data"), cfg.Files.Root)
	assert.Equal(t, filepath.Join(root, "parquet_data", "avg"), cfg.Files.DatasetPath("facility_type_avg_time_spent_per_visit_date"))
	assert.Equal(t, filepath.Join(root, "mapping/dq.yaml"), cfg.MappingPath)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultReportLimit, cfg.ReportLimit)
	assert.Equal(t, DefaultCellClass, cfg.Report.CellClass)

	ac := cfg.Source.AdapterConfig()
	assert.Equal(t, "checker", ac.Username)
	assert.Equal(t, "db.internal", ac.Host)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown source", "source:\n  type: mysql\n"},
		{"postgres without credentials", "source:\n  type: postgres\n"},
		{"malformed yaml", "source: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	cfgPath := writeConfig(t, `
source:
  type: sqlite
  path: from_file.db
report_limit: 5
`)

	tests := []struct {
		name      string
		env       map[string]string
		flagValue string
		wantPath  string
		wantLimit int
	}{
		{
			name:      "file only",
			wantPath:  filepath.Join(filepath.Dir(cfgPath), "from_file.db"),
			wantLimit: 5,
		},
		{
			name:      "env overrides file",
			env:       map[string]string{"LEAPDQ_SOURCE__PATH": "/env/db.sqlite", "LEAPDQ_REPORT_LIMIT": "7"},
			wantPath:  "/env/db.sqlite",
			wantLimit: 7,
		},
		{
			name:      "flag overrides env",
			env:       map[string]string{"LEAPDQ_SOURCE__PATH": "/env/db.sqlite"},
			flagValue: "/flag/db.sqlite",
			wantPath:  "/flag/db.sqlite",
			wantLimit: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.String("path", "", "database file")
			flags.Int("limit", 0, "report limit")
			if tt.flagValue != "" {
				require.NoError(t, flags.Set("path", tt.flagValue))
			}

			cfg, err := Load(cfgPath, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, cfg.Source.Path)
			assert.Equal(t, tt.wantLimit, cfg.ReportLimit, "unset flags fall back to env and file")
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Output: "json"}
	logger := slog.New(slog.DiscardHandler)
	ctx = WithLogger(WithConfig(ctx, cfg), logger)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Same(t, logger, GetLogger(ctx))
}
