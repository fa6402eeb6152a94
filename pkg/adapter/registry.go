package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry under a lower-case name.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Get retrieves an adapter factory by name. Names are case-insensitive.
func Get(name string) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// NewAdapter creates a new adapter instance based on config type.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an adapter type is registered.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ReadsFiles reports whether the named adapter implements FileReader.
// The instance it inspects is never connected.
func ReadsFiles(name string) bool {
	factory, ok := Get(name)
	if !ok {
		return false
	}
	_, ok = factory(nil).(FileReader)
	return ok
}

// ListFileReaders returns the registered adapters that can read dataset
// files (sorted).
func ListFileReaders() []string {
	var names []string
	for _, name := range ListAdapters() {
		if ReadsFiles(name) {
			names = append(names, name)
		}
	}
	return names
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
	// Key is the configuration key that named the adapter. Empty means
	// source.type.
	Key string
}

func (e *UnknownAdapterError) Error() string {
	key := e.Key
	if key == "" {
		key = "source.type"
	}
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check %s in leapdq.yaml", e.Type, e.Available, key)
}
