package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapdq.yaml"
	ConfigFileNameAlt = "leapdq.yml"
)

// EnvPrefix prefixes every configuration environment variable. A double
// underscore separates nesting levels: LEAPDQ_SOURCE__HOST sets source.host.
const EnvPrefix = "LEAPDQ_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names onto configuration keys where the two differ.
var flagKeys = map[string]string{
	"source":     "source.type",
	"database":   "source.database",
	"host":       "source.host",
	"path":       "source.path",
	"files-root": "files.root",
	"mapping":    "mapping_path",
	"limit":      "report_limit",
}

// pathFlags hold paths; they are resolved against the working directory.
var pathFlags = map[string]bool{"path": true, "files-root": true, "mapping": true}

// findConfigFile returns the config file in dir, or "" when there is none.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if f := findConfigFile(dir); f != "" {
			return f
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from defaults, the config file, environment
// variables and flags, in increasing precedence. cfgFile may be empty, in
// which case leapdq.yaml is searched upward from the working directory.
// flags may be nil. The result is validated.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"source.type":       DefaultSourceType,
		"files.root":        ".",
		"files.reader":      DefaultFileReader,
		"mapping_path":      DefaultMappingPath,
		"output":            DefaultOutput,
		"verbose":           false,
		"concurrency":       DefaultConcurrency,
		"report_limit":      DefaultReportLimit,
		"report.cell_class": DefaultCellClass,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables
	// Transform: LEAPDQ_SOURCE__HOST -> source.host
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if pathFlags[f.Name] {
				return key, resolvePathRelativeTo(f.Value.String(), cwd)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile

	// 6. Resolve relative paths against the project root
	cfg.Files.Root = resolvePathRelativeTo(cfg.Files.Root, projectRoot)
	cfg.MappingPath = resolvePathRelativeTo(cfg.MappingPath, projectRoot)
	cfg.Report.HTMLPath = resolvePathRelativeTo(cfg.Report.HTMLPath, projectRoot)
	cfg.Source.Path = resolvePathRelativeTo(cfg.Source.Path, projectRoot)

	cfg.Source.Type = strings.ToLower(cfg.Source.Type)
	if cfg.Source.Type == "postgres" && cfg.Source.Port == 0 {
		cfg.Source.Port = DefaultPostgresPort
	}
	expandSourceEnvVars(&cfg.Source)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandSourceEnvVars expands environment variables in sensitive source fields.
func expandSourceEnvVars(s *SourceConfig) {
	s.Password = expandEnvVars(s.Password)
	s.User = expandEnvVars(s.User)
	s.Host = expandEnvVars(s.Host)
	s.Database = expandEnvVars(s.Database)
}
