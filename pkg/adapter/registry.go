package adapter

import (
	"database/sql"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// Factory builds an adapter from a validated target type.
// Factories check their own required fields.
type Factory func(cfg core.TargetConfig, logger *slog.Logger) (Adapter, error)

type registration struct {
	driver  string
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register adds an adapter factory to the registry under name, backed by
// the named database/sql driver.
// Called by adapter implementations in their init() functions.
func Register(name, driverName string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = registration{driver: driverName, factory: factory}
}

// DriverName returns the database/sql driver backing a registered adapter.
func DriverName(name string) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r.driver, ok
}

// DriverAvailable reports whether the adapter's driver is registered with database/sql.
func DriverAvailable(name string) bool {
	driver, ok := DriverName(name)
	return ok && slices.Contains(sql.Drivers(), driver)
}

// New creates an adapter for cfg.Type.
// The logger is passed to the adapter constructor (nil uses discard logger).
func New(cfg core.TargetConfig, logger *slog.Logger) (Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	kind := cfg.Kind()
	if kind == "" {
		return nil, &ConfigurationError{Reason: "adapter type not specified", Available: ListAdapters()}
	}

	registryMu.RLock()
	r, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{
			Type:      kind,
			Reason:    "unknown adapter type",
			Available: ListAdapters(),
		}
	}

	if !slices.Contains(sql.Drivers(), r.driver) {
		return nil, &ConfigurationError{
			Type:   kind,
			Reason: "driver " + r.driver + " is not registered",
			Err:    ErrDriverUnavailable,
		}
	}

	a, err := r.factory(cfg, logger.With(slog.String("adapter", kind)))
	if err != nil {
		return nil, err
	}
	logger.Debug("adapter ready", slog.String("target", a.DescribeConnection()))
	return a, nil
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
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
