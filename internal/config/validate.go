package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
)

// Output modes accepted by the output setting.
var outputModes = map[string]bool{"auto": true, "text": true, "markdown": true, "json": true}

// Validate checks if the configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("invalid source configuration: %w", err)
	}
	if c.Files.Reader != "" && !adapter.ReadsFiles(c.Files.Reader) {
		return fmt.Errorf("invalid files.reader: %w", &adapter.UnknownAdapterError{
			Type:      c.Files.Reader,
			Available: adapter.ListFileReaders(),
			Key:       "files.reader",
		})
	}
	if c.Output != "" && !outputModes[c.Output] {
		return fmt.Errorf("invalid output %q: must be one of auto, text, markdown, json", c.Output)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.ReportLimit < 0 {
		return fmt.Errorf("report_limit must not be negative, got %d", c.ReportLimit)
	}
	return nil
}

// Validate checks if the source configuration is valid.
func (s SourceConfig) Validate() error {
	typ := strings.ToLower(s.Type)
	if typ == "" {
		return fmt.Errorf("source type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      s.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if typ == "postgres" {
		if s.User == "" {
			return fmt.Errorf("source.user is required for postgres")
		}
		if s.Password == "" {
			return fmt.Errorf("source.password is required for postgres")
		}
	}
	return nil
}
