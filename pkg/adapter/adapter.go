// Package adapter provides the data source contract used to load the
// tables LeapDQ compares.
//
// This package contains the public contract that all adapters must implement,
// the registry adapters add themselves to, and BaseSQLAdapter, which turns
// database/sql result sets into tables. Concrete adapters live in
// pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Short names for the core adapter types.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all data source adapters must
// implement. Adapters are read-only from LeapDQ's point of view: Exec exists
// for session setup (settings, extensions), never to modify checked data.
type Adapter interface {
	// Connect establishes a connection to the data source using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// QueryTable executes a query and materializes its result set as a table.
	QueryTable(ctx context.Context, sql string, args ...any) (*table.Table, error)

	// ReadTable loads every row of a (optionally schema-qualified) table.
	ReadTable(ctx context.Context, name string) (*table.Table, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)
}

// FileReader is implemented by adapters that can load a table straight from
// a file (parquet, csv). A missing file is reported with an error wrapping
// fs.ErrNotExist so callers can treat the dataset as unavailable.
type FileReader interface {
	ReadFile(ctx context.Context, path string) (*table.Table, error)
}
