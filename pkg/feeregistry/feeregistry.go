// Package feeregistry maps fee tiers to tick spacings. It is the lookup a
// pool factory consults before deploying a pool; the engine itself only
// needs the mapping, not the deployment machinery.
package feeregistry

import (
	"errors"
	"sync"
)

// ErrUnknownFee is returned when a fee tier has no registered tick spacing.
var ErrUnknownFee = errors.New("feeregistry: unknown fee tier")

// Registry is a concurrency-safe fee-tier -> tick-spacing lookup, seeded
// with the conventional tiers (500:10, 3000:60, 10000:200) and extensible
// with governance-registered ones.
type Registry struct {
	mu        sync.RWMutex
	spacingOf map[uint32]int32
}

// Default fee tiers, in hundredths of a basis point.
const (
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

// NewDefault returns a Registry preloaded with the conventional fee tiers.
func NewDefault() *Registry {
	r := &Registry{spacingOf: make(map[uint32]int32, 3)}
	r.spacingOf[FeeLow] = 10
	r.spacingOf[FeeMedium] = 60
	r.spacingOf[FeeHigh] = 200
	return r
}

// TickSpacing returns the tick spacing registered for fee, or ErrUnknownFee.
func (r *Registry) TickSpacing(fee uint32) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spacing, ok := r.spacingOf[fee]
	if !ok {
		return 0, ErrUnknownFee
	}
	return spacing, nil
}

// Register adds or overwrites a fee tier -> tick spacing mapping.
func (r *Registry) Register(fee uint32, tickSpacing int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spacingOf[fee] = tickSpacing
}
