// Package config provides layered configuration for LeapDQ.
//
// Values are merged from, lowest to highest precedence: built-in defaults,
// the leapdq.yaml project file, LEAPDQ_ environment variables and explicitly
// set command-line flags. The check engine itself takes no configuration;
// everything here configures its collaborators (data sources, file layout,
// mapping document, reports and output).
package config

import (
	"path/filepath"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// SourceConfig configures the relational data source.
type SourceConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based databases (DuckDB, SQLite)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode)
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, secrets, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the source configuration for the adapter registry.
func (s SourceConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     s.Type,
		Path:     s.Path,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Username: s.User,
		Password: s.Password,
		Schema:   s.Schema,
		Options:  s.Options,
		Params:   s.Params,
	}
}

// FilesConfig locates the output datasets on disk.
type FilesConfig struct {
	// Root is the directory relative dataset paths are resolved against.
	Root string `koanf:"root"`
	// Reader is the adapter type used to read dataset files.
	Reader string `koanf:"reader"`
	// Datasets maps a dataset key to its file or directory. A key without
	// an entry lives at Root/<key>.
	Datasets map[string]string `koanf:"datasets"`
}

// DatasetPath returns where the dataset with the given key is stored.
func (f FilesConfig) DatasetPath(key string) string {
	p, ok := f.Datasets[key]
	if !ok || p == "" {
		p = key
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root, p)
}

// ReportConfig describes a rendered report to reconcile against its dataset.
type ReportConfig struct {
	HTMLPath   string            `koanf:"html_path"`
	Dataset    string            `koanf:"dataset"`
	CellClass  string            `koanf:"cell_class"`
	Columns    []string          `koanf:"columns"`
	Renames    map[string]string `koanf:"renames"`
	FilterDate string            `koanf:"filter_date"`
	DateColumn string            `koanf:"date_column"`
}

// Config holds all LeapDQ configuration options.
type Config struct {
	Source      SourceConfig `koanf:"source"`
	Files       FilesConfig  `koanf:"files"`
	MappingPath string       `koanf:"mapping_path"`
	Report      ReportConfig `koanf:"report"`
	Output      string       `koanf:"output"`
	Verbose     bool         `koanf:"verbose"`
	// Concurrency bounds how many dataset batteries run at once.
	Concurrency int `koanf:"concurrency"`
	// ReportLimit caps the offending rows and values a check result carries.
	ReportLimit int `koanf:"report_limit"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the project file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultSourceType   = "duckdb"
	DefaultFileReader   = "duckdb"
	DefaultMappingPath  = "mapping.yaml"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultConcurrency  = 3
	DefaultReportLimit  = 20
	DefaultCellClass    = "cell-text"
	DefaultPostgresPort = 5432
)
