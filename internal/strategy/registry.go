package strategy

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/stockbot/pkg/errors"
)

const (
	LongHoldName            = "long_hold"
	RsiAndMovingAverageName = "rsi_ma"
	MomentumAndVolumeName   = "momentum_volume"
)

// Factory creates a fresh strategy instance.
type Factory func() Strategy

// Registry maps strategy names to their factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}

	r.factories[LongHoldName] = func() Strategy { return NewLongHold() }
	r.factories[RsiAndMovingAverageName] = func() Strategy { return NewRsiAndMovingAverage() }
	r.factories[MomentumAndVolumeName] = func() Strategy { return NewMomentumAndVolume() }

	return r
}

// Register adds a strategy factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyExists, "strategy %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Get creates the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s not found", name)
	}

	return factory(), nil
}

// List returns the registered names in alphabetical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
