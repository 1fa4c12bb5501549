// Package channel provides the per-channel translation strategies and the
// named registry the dispatch core resolves them from.
package channel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/logging"
)

// ErrUnknownChannel is returned when an activity names a channel no strategy
// was registered for. This indicates misconfiguration, not a runtime
// condition, and aborts the dispatch that triggered it.
var ErrUnknownChannel = errors.New("unknown channel")

// Registry maps channel names to their translation strategies. Hosts
// register additional strategies by name; activities resolve by their
// source field.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]domain.Strategy
	log        *logging.Logger
}

// NewRegistry creates a strategy registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		strategies: make(map[string]domain.Strategy),
		log:        log.Sub("channels"),
	}
}

// Register adds a strategy under the given channel name.
func (r *Registry) Register(name string, s domain.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
	r.log.Info().Str("channel", name).Bool("supportsAuth", s.SupportsAuth()).Msg("channel registered")
}

// Resolve returns the strategy registered under name.
func (r *Registry) Resolve(name string) (domain.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
	return s, nil
}

// Names returns all registered channel names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered strategies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strategies)
}
