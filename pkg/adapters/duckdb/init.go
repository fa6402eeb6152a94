package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdq/pkg/adapters/duckdb"
func init() {
	adapter.Register("duckdb", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
