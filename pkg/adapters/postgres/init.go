package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdq/pkg/adapters/postgres"
func init() {
	adapter.Register("postgres", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
