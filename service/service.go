/*
Package service owns the live rebate configuration and serves evaluations.

PURPOSE:
  The engine is pure; something has to decide which programs and which
  assumption table it runs with, keep them in sync with the store, and
  memoize results. Both the HTTP API and tests go through Service.

SNAPSHOTS:
  Programs and the assumption table are loaded from the store into an
  immutable snapshot (orchestrator + program list). Every change builds a
  new snapshot and swaps it under a lock; in-flight evaluations keep the
  snapshot they started with.

GENERATION:
  Each snapshot carries a generation: a digest of the stored program
  records and assumption table. Cache keys embed it, so a config change
  makes every older entry unreachable. Replicas sharing one store compute
  the same generation and can share a redis cache.

EVALUATION FLOW:
  1. engine.Validate (rejects with engine.ErrInvalidInput)
  2. cache lookup by cache.Key(generation, input)
  3. on miss: singleflight per key, EvaluateAll, metrics, cache.Set
     (callers joining an in-flight computation count as source "shared")

SEE ALSO:
  - engine/orchestrator.go: EvaluateAll
  - cache/: Cache implementations
  - store/: Config persistence
  - reloader.go: Periodic reload for multi-replica setups
*/
package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/cache"
	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/metrics"
	"github.com/warp/rebate-engine/programs"
	"github.com/warp/rebate-engine/store"
)

// Seed is the configuration written into an empty store and restored on Reset.
type Seed struct {
	Programs    []programs.Program
	Assumptions engine.AssumptionTable
}

// DefaultSeed returns the preset programs and the embedded assumption table.
func DefaultSeed() Seed {
	return Seed{
		Programs:    programs.DefaultPrograms(),
		Assumptions: assumptions.Default(),
	}
}

// Outcome is one served evaluation. Cached is set only for results read
// from the cache; Shared marks a result computed by a concurrent caller
// with the same key.
type Outcome struct {
	engine.Evaluation
	Cached     bool
	Shared     bool
	Generation uint64
}

// ProgramEntry is a registered program with its position.
type ProgramEntry struct {
	Program  programs.Program
	Position int
	Version  int
}

type snapshot struct {
	orch       *engine.Orchestrator
	programs   []ProgramEntry
	table      engine.AssumptionTable
	generation uint64
}

// Service serves evaluations against the configuration held in a store.
type Service struct {
	store   store.Store
	factory *factory.ProgramFactory
	cache   cache.Cache
	log     *zap.Logger
	seed    Seed

	mu   sync.RWMutex
	snap *snapshot

	// serializes store mutations with the reload that follows them
	writeMu sync.Mutex
	group   singleflight.Group
}

// New creates a service. Call Load before serving.
func New(st store.Store, c cache.Cache, log *zap.Logger, seed Seed) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   st,
		factory: factory.NewProgramFactory(),
		cache:   c,
		log:     log,
		seed:    seed,
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load seeds an empty store and builds the first snapshot.
func (s *Service) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.seedIfEmpty(ctx); err != nil {
		return err
	}
	_, err := s.reload(ctx)
	return err
}

// Reload rebuilds the snapshot from the store. It reports whether the
// generation changed.
func (s *Service) Reload(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reload(ctx)
}

// Reset clears the store and restores the seed configuration.
func (s *Service) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := s.seedIfEmpty(ctx); err != nil {
		return err
	}
	_, err := s.reload(ctx)
	s.log.Info("configuration reset to defaults")
	return err
}

func (s *Service) seedIfEmpty(ctx context.Context) error {
	rec, err := s.store.GetAssumptions(ctx, store.DefaultAssumptions)
	if err != nil {
		return fmt.Errorf("get assumptions: %w", err)
	}
	if rec == nil {
		if err := s.saveTable(ctx, s.seed.Assumptions); err != nil {
			return err
		}
		s.log.Info("seeded assumption table", zap.Int("crops", len(s.seed.Assumptions)))
	}

	existing, err := s.store.ListPrograms(ctx)
	if err != nil {
		return fmt.Errorf("list programs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for i, p := range s.seed.Programs {
		if err := s.saveProgram(ctx, p, i); err != nil {
			return err
		}
	}
	s.log.Info("seeded programs", zap.Int("count", len(s.seed.Programs)))
	return nil
}

// reload must be called with writeMu held.
func (s *Service) reload(ctx context.Context) (bool, error) {
	rec, err := s.store.GetAssumptions(ctx, store.DefaultAssumptions)
	if err != nil {
		return false, fmt.Errorf("get assumptions: %w", err)
	}
	table := s.seed.Assumptions
	tableJSON := ""
	if rec != nil {
		tableJSON = rec.TableJSON
		if table, err = assumptions.LoadJSON([]byte(rec.TableJSON)); err != nil {
			return false, fmt.Errorf("stored assumptions: %w", err)
		}
	}

	records, err := s.store.ListPrograms(ctx)
	if err != nil {
		return false, fmt.Errorf("list programs: %w", err)
	}

	generation := digest(records, tableJSON)
	if cur := s.current(); cur != nil && cur.generation == generation {
		s.refreshVersions(cur, records)
		return false, nil
	}

	entries := make([]ProgramEntry, 0, len(records))
	evs := make([]engine.Evaluator, 0, len(records))
	for _, r := range records {
		p, err := s.factory.FromJSON(recordToJSON(r))
		if err != nil {
			s.log.Warn("skipping invalid stored program", zap.String("program", r.ID), zap.Error(err))
			continue
		}
		entries = append(entries, ProgramEntry{Program: p, Position: r.Position, Version: r.Version})
		evs = append(evs, p)
	}

	registry, err := engine.NewRegistry(evs...)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.snap = &snapshot{
		orch:       engine.NewOrchestrator(table, registry),
		programs:   entries,
		table:      table,
		generation: generation,
	}
	s.mu.Unlock()

	s.log.Info("configuration loaded",
		zap.Int("programs", len(entries)),
		zap.Uint64("generation", generation))
	return true, nil
}

// refreshVersions swaps in a snapshot carrying the stored record versions.
// A re-save of identical content bumps the version without moving the
// generation.
func (s *Service) refreshVersions(cur *snapshot, records []store.ProgramRecord) {
	versions := make(map[string]int, len(records))
	for _, r := range records {
		versions[r.ID] = r.Version
	}

	entries := make([]ProgramEntry, len(cur.programs))
	copy(entries, cur.programs)
	changed := false
	for i := range entries {
		if v, ok := versions[entries[i].Program.ID()]; ok && v != entries[i].Version {
			entries[i].Version = v
			changed = true
		}
	}
	if !changed {
		return
	}

	next := *cur
	next.programs = entries
	s.mu.Lock()
	s.snap = &next
	s.mu.Unlock()
}

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate validates input and returns the ranked evaluation, from cache when possible.
func (s *Service) Evaluate(ctx context.Context, input engine.FarmInput) (Outcome, error) {
	if err := engine.Validate(input); err != nil {
		metrics.InvalidInputs.Inc()
		return Outcome{}, err
	}

	snap := s.current()
	if snap == nil {
		return Outcome{}, fmt.Errorf("service not loaded")
	}

	key := cache.Key(snap.generation, input)
	if ev, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		metrics.EvaluationsTotal.WithLabelValues(metrics.SourceCache).Inc()
		return Outcome{Evaluation: ev, Cached: true, Generation: snap.generation}, nil
	}

	v, _, shared := s.group.Do(key, func() (any, error) {
		start := time.Now()
		ev := snap.orch.EvaluateAll(input)
		elapsed := time.Since(start)

		metrics.EvaluationDuration.Observe(elapsed.Seconds())
		for _, r := range ev.Results {
			metrics.ProgramCashback.WithLabelValues(r.ProgramID).Observe(r.EstimatedCashback)
		}
		if err := s.cache.Set(ctx, key, ev); err != nil {
			s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}

		s.log.Debug("evaluated farm input",
			zap.Int("programs", len(ev.Results)),
			zap.Int("plans", len(input.Plans)),
			zap.Duration("duration", elapsed))
		return ev, nil
	})

	if shared {
		metrics.EvaluationsTotal.WithLabelValues(metrics.SourceShared).Inc()
	} else {
		metrics.EvaluationsTotal.WithLabelValues(metrics.SourceEngine).Inc()
	}
	return Outcome{Evaluation: v.(engine.Evaluation), Shared: shared, Generation: snap.generation}, nil
}

// Generation returns the current configuration generation.
func (s *Service) Generation() uint64 {
	if snap := s.current(); snap != nil {
		return snap.generation
	}
	return 0
}

// =============================================================================
// PROGRAMS
// =============================================================================

// Programs returns registered programs in evaluation order.
func (s *Service) Programs() []ProgramEntry {
	snap := s.current()
	if snap == nil {
		return nil
	}
	out := make([]ProgramEntry, len(snap.programs))
	copy(out, snap.programs)
	return out
}

// Program returns one registered program.
func (s *Service) Program(id string) (ProgramEntry, error) {
	for _, e := range s.Programs() {
		if e.Program.ID() == id {
			return e, nil
		}
	}
	return ProgramEntry{}, fmt.Errorf("%w: %s", engine.ErrProgramNotFound, id)
}

// SaveProgram validates and stores a program, replacing any program with the
// same ID. A nil position keeps an existing program's slot, or appends a new one.
func (s *Service) SaveProgram(ctx context.Context, pj factory.ProgramJSON, position *int) (ProgramEntry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, err := s.factory.FromJSON(pj)
	if err != nil {
		return ProgramEntry{}, err
	}

	pos, err := s.resolvePosition(ctx, p.ID(), position)
	if err != nil {
		return ProgramEntry{}, err
	}
	if err := s.saveProgram(ctx, p, pos); err != nil {
		return ProgramEntry{}, err
	}
	if _, err := s.reload(ctx); err != nil {
		return ProgramEntry{}, err
	}

	s.log.Info("program saved", zap.String("program", p.ID()), zap.String("kind", string(p.Kind())))
	for _, e := range s.Programs() {
		if e.Program.ID() == p.ID() {
			return e, nil
		}
	}
	return ProgramEntry{Program: p, Position: pos}, nil
}

// DeleteProgram removes a program from the store and the live registry.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.DeleteProgram(ctx, id); err != nil {
		return err
	}
	if _, err := s.reload(ctx); err != nil {
		return err
	}
	s.log.Info("program deleted", zap.String("program", id))
	return nil
}

func (s *Service) resolvePosition(ctx context.Context, id string, position *int) (int, error) {
	if position != nil {
		return *position, nil
	}
	records, err := s.store.ListPrograms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list programs: %w", err)
	}
	next := 0
	for _, r := range records {
		if r.ID == id {
			return r.Position, nil
		}
		if r.Position >= next {
			next = r.Position + 1
		}
	}
	return next, nil
}

func (s *Service) saveProgram(ctx context.Context, p programs.Program, position int) error {
	pj, err := s.factory.ToJSON(p, position)
	if err != nil {
		return err
	}
	err = s.store.SaveProgram(ctx, store.ProgramRecord{
		ID:         pj.ID,
		Company:    pj.Company,
		Kind:       string(pj.Kind),
		Position:   pj.Position,
		ParamsJSON: string(pj.Params),
	})
	if err != nil {
		return fmt.Errorf("save program %s: %w", pj.ID, err)
	}
	return nil
}

// =============================================================================
// ASSUMPTIONS
// =============================================================================

// Assumptions returns a copy of the live assumption table.
func (s *Service) Assumptions() engine.AssumptionTable {
	snap := s.current()
	if snap == nil {
		return nil
	}
	return snap.table.Clone()
}

// SetAssumptions validates and stores a new assumption table.
func (s *Service) SetAssumptions(ctx context.Context, table engine.AssumptionTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.saveTable(ctx, table); err != nil {
		return err
	}
	if _, err := s.reload(ctx); err != nil {
		return err
	}
	s.log.Info("assumption table replaced", zap.Int("crops", len(table)))
	return nil
}

func (s *Service) saveTable(ctx context.Context, table engine.AssumptionTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal assumptions: %w", err)
	}
	if err := s.store.SaveAssumptions(ctx, store.DefaultAssumptions, string(data)); err != nil {
		return fmt.Errorf("save assumptions: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func recordToJSON(r store.ProgramRecord) factory.ProgramJSON {
	return factory.ProgramJSON{
		ID:       r.ID,
		Company:  r.Company,
		Kind:     programs.Kind(r.Kind),
		Position: r.Position,
		Params:   json.RawMessage(r.ParamsJSON),
	}
}

// digest hashes the configuration content, ignoring versions and timestamps.
func digest(records []store.ProgramRecord, tableJSON string) uint64 {
	sorted := make([]store.ProgramRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].ID < sorted[j].ID
	})

	h := sha256.New()
	for _, r := range sorted {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%s\x00", r.ID, r.Company, r.Kind, r.Position, r.ParamsJSON)
	}
	h.Write([]byte(tableJSON))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}
