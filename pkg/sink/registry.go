package sink

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Sink)
)

// Register adds a sink factory to the registry.
// Called by sink implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Sink) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a sink factory by name.
func Get(name string) (func(*slog.Logger) Sink, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewSink creates a sink for cfg.Type. The sink is not opened.
func NewSink(cfg core.SinkConfig, logger *slog.Logger) (Sink, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("sink type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownSinkError{
			Type:      cfg.Type,
			Available: ListSinks(),
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger.With("sink", cfg.Type)), nil
}

// ListSinks returns all registered sink names (sorted).
func ListSinks() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a sink type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownSinkError is returned when an unknown sink type is requested.
type UnknownSinkError struct {
	Type      string
	Available []string
}

func (e *UnknownSinkError) Error() string {
	return fmt.Sprintf("unknown sink type %q\nAvailable sinks: %v\nHint: Check the outputs list in tablemerge.yaml", e.Type, e.Available)
}

func (e *UnknownSinkError) Unwrap() error {
	return core.ErrUnknownSink
}
