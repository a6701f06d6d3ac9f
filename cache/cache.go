/*
Package cache memoizes evaluations by input snapshot.

PURPOSE:
  EvaluateAll is a pure function of (FarmInput, programs, assumptions).
  Keying on a structural fingerprint of the input plus a configuration
  generation lets repeated submissions of the same form skip the engine,
  and any program or assumption change invalidates every older entry
  without a scan.

KEYS:
  rebate:<generation>:<sha256 of canonical FarmInput>

IMPLEMENTATIONS:
  Memory: bounded, FIFO eviction, process-local
  Redis:  shared across replicas, TTL expiry
  Nop:    disabled caching

Cached evaluations are shared between callers and must not be mutated.
*/
package cache

import (
	"context"
	"fmt"

	"github.com/warp/rebate-engine/engine"
)

// Cache stores evaluations by key.
type Cache interface {
	// Get reports a miss as ok=false with a nil error.
	Get(ctx context.Context, key string) (ev engine.Evaluation, ok bool, err error)
	Set(ctx context.Context, key string, ev engine.Evaluation) error
	Close() error
}

// Key builds the cache key for an input under a configuration generation.
func Key(generation uint64, input engine.FarmInput) string {
	return fmt.Sprintf("rebate:%d:%s", generation, engine.Fingerprint(input))
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (engine.Evaluation, bool, error) {
	return engine.Evaluation{}, false, nil
}
func (Nop) Set(context.Context, string, engine.Evaluation) error { return nil }
func (Nop) Close() error                                         { return nil }
