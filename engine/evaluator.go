/*
evaluator.go - Program evaluator contract and registry

PURPOSE:
  Every supplier program implements Evaluator. The orchestrator treats
  all of them uniformly, so adding a supplier means adding one
  implementation and registering it, never touching a dispatch chain.

REGISTRATION ORDER:
  The registry keeps insertion order. Ranking is a stable sort, so
  programs with equal cash back stay in registration order.

CONTRACT:
  Evaluate must be pure and must never panic or fail. Zero spend, zero
  acres, or missed qualification produce a result with cash back 0 and
  an explanatory note.

SEE ALSO:
  - programs/: Concrete supplier evaluators
  - orchestrator.go: Runs every registered evaluator
*/
package engine

import (
	"fmt"
	"sync"
)

// Evaluator computes one supplier program's estimated cash back.
type Evaluator interface {
	// ID is the stable program identifier (e.g. "fmc-cashback").
	ID() string

	// Company is the display name of the program.
	Company() string

	// Evaluate applies the program's rules to the modeled spend.
	// input carries flags and context some programs need beyond aggregated spend.
	Evaluate(modeled ModeledSpend, input FarmInput) ProgramResult
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an ordered, concurrency-safe set of evaluators.
type Registry struct {
	mu         sync.RWMutex
	evaluators []Evaluator
}

// NewRegistry creates a registry holding evs in order.
func NewRegistry(evs ...Evaluator) (*Registry, error) {
	r := &Registry{}
	for _, e := range evs {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends an evaluator. IDs must be unique.
func (r *Registry) Register(e Evaluator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.evaluators {
		if existing.ID() == e.ID() {
			return fmt.Errorf("%w: %s", ErrDuplicateProgram, e.ID())
		}
	}
	r.evaluators = append(r.evaluators, e)
	return nil
}

// Replace swaps the evaluator with the same ID in place, or appends it.
func (r *Registry) Replace(e Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.evaluators {
		if existing.ID() == e.ID() {
			r.evaluators[i] = e
			return
		}
	}
	r.evaluators = append(r.evaluators, e)
}

// Remove deletes the evaluator with the given ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.evaluators {
		if existing.ID() == id {
			r.evaluators = append(r.evaluators[:i:i], r.evaluators[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProgramNotFound, id)
}

// Lookup finds an evaluator by ID.
func (r *Registry) Lookup(id string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.evaluators {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
}

// Evaluators returns a snapshot of the registered evaluators in order.
func (r *Registry) Evaluators() []Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Evaluator, len(r.evaluators))
	copy(out, r.evaluators)
	return out
}

// Len returns the number of registered evaluators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.evaluators)
}
