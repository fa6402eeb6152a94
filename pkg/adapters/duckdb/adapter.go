// Package duckdb provides a DuckDB adapter for LeapDQ. Besides plain SQL
// queries it reads parquet and csv files straight into tables, which makes
// it the columnar file reader for output datasets.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/table"
	"github.com/marcboeker/go-duckdb"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:        logger,
			DefaultSchema: "main",
			Convert:       convertValue,
		},
	}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	a.Logger.Debug("connected to duckdb", slog.String("path", path))
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for _, key := range sortedKeys(p.Settings) {
		stmt := fmt.Sprintf("SET %s = %s", key, quoteLiteral(p.Settings[key]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	for _, s := range p.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(s)); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", s.Type, err)
		}
	}
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table)
}

// ReadParquet loads a parquet file, or every parquet file below a
// directory (hive-style partition directories become columns).
func (a *Adapter) ReadParquet(ctx context.Context, path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	source := path
	if info.IsDir() {
		source = filepath.Join(path, "**", "*.parquet")
	}
	query := fmt.Sprintf("SELECT * FROM read_parquet(%s, hive_partitioning = %t)", quoteLiteral(source), info.IsDir())
	t, err := a.QueryTable(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV loads a csv file with a header row, inferring column types.
func (a *Adapter) ReadCSV(ctx context.Context, path string) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	query := fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header = true)", quoteLiteral(path))
	t, err := a.QueryTable(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
	}
	return t, nil
}

// ReadFile dispatches on the file extension: .csv is read as csv, .parquet
// files and directories as parquet.
func (a *Adapter) ReadFile(ctx context.Context, path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir(), ext == ".parquet", ext == ".pq":
		return a.ReadParquet(ctx, path)
	case ext == ".csv":
		return a.ReadCSV(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s", ext, path)
	}
}

// convertValue maps DuckDB specific driver values.
func convertValue(dbType string, v any) any {
	switch x := v.(type) {
	case duckdb.Decimal:
		return x.Float64()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d us", x.Months, x.Days, x.Micros)
	case []byte:
		if strings.EqualFold(dbType, "UUID") && len(x) == 16 {
			if id, err := uuid.FromBytes(x); err == nil {
				return id.String()
			}
		}
	}
	return v
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter    = (*Adapter)(nil)
	_ adapter.FileReader = (*Adapter)(nil)
)
