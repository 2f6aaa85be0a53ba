package repository

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/draftlens/internal/domain/stats"
	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

// neutralWinrate separates synergies from anti-synergies.
const neutralWinrate = 0.5

// SnapshotStore implements the stats repositories over an atomically
// published in-memory index.
type SnapshotStore struct {
	path           string
	reloadInterval time.Duration
	log            logger.Logger

	ix atomic.Pointer[index]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var (
	_ stats.HeroRepository    = (*SnapshotStore)(nil)
	_ stats.AbilityRepository = (*SnapshotStore)(nil)
	_ stats.SynergyRepository = (*SnapshotStore)(nil)
)

// NewSnapshotStore constructs an empty store. Call Reload or Replace to fill it.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{stopChan: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	s.ix.Store(&index{
		heroByID:      map[int]stats.Hero{},
		abilityByName: map[string]stats.Ability{},
		partners:      map[string][]stats.SynergyPartner{},
	})
	return s
}

// Repositories exposes the store through the domain contracts.
func (s *SnapshotStore) Repositories() stats.Repositories {
	return stats.Repositories{Heroes: s, Abilities: s, Synergies: s}
}

// Replace publishes a new snapshot.
func (s *SnapshotStore) Replace(snap *Snapshot) error {
	ix, err := buildIndex(snap)
	if err != nil {
		return err
	}
	s.ix.Store(ix)
	metrics.UpdateStatsRecords("heroes", len(ix.heroes))
	metrics.UpdateStatsRecords("abilities", len(ix.abilityNames))
	metrics.UpdateStatsRecords("pairs", len(ix.pairs))
	metrics.UpdateStatsRecords("hero_rows", len(ix.heroRows))
	return nil
}

// Reload reads the configured snapshot file and publishes it. A failed
// reload keeps the previous snapshot.
func (s *SnapshotStore) Reload(ctx context.Context) error {
	if s.path == "" {
		return ErrNoSnapshotPath
	}
	err := s.reload()
	if err != nil {
		metrics.RecordStatsReload("error")
		s.log.Error(ctx, "statistics reload failed", logger.String("path", s.path), logger.Error(err))
		return err
	}
	metrics.RecordStatsReload("success")
	s.log.Debug(ctx, "statistics reloaded", logger.String("path", s.path))
	return nil
}

func (s *SnapshotStore) reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	snap, err := DecodeSnapshot(f)
	if err != nil {
		return err
	}
	return s.Replace(snap)
}

// Start launches the periodic reload loop when an interval is configured.
func (s *SnapshotStore) Start(ctx context.Context) {
	if s.reloadInterval <= 0 || s.path == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.reloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				_ = s.Reload(ctx)
			}
		}
	}()
}

// Close stops the reload loop.
func (s *SnapshotStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// All implements stats.HeroRepository.
func (s *SnapshotStore) All(_ context.Context) ([]stats.Hero, error) {
	return slices.Clone(s.ix.Load().heroes), nil
}

// ByID implements stats.HeroRepository.
func (s *SnapshotStore) ByID(_ context.Context, id int) (stats.Hero, error) {
	h, ok := s.ix.Load().heroByID[id]
	if !ok {
		return stats.Hero{}, fmt.Errorf("hero %d: %w", id, ErrNotFound)
	}
	return h, nil
}

// ByAbilityName implements stats.HeroRepository.
func (s *SnapshotStore) ByAbilityName(_ context.Context, ability string) (stats.Hero, error) {
	ix := s.ix.Load()
	a, ok := ix.abilityByName[ability]
	if !ok || a.HeroID == nil {
		return stats.Hero{}, fmt.Errorf("hero for ability %q: %w", ability, ErrNotFound)
	}
	h, ok := ix.heroByID[*a.HeroID]
	if !ok {
		return stats.Hero{}, fmt.Errorf("hero %d: %w", *a.HeroID, ErrNotFound)
	}
	return h, nil
}

// Details implements stats.AbilityRepository.
func (s *SnapshotStore) Details(_ context.Context, names []string) (map[string]stats.Ability, error) {
	ix := s.ix.Load()
	out := make(map[string]stats.Ability, len(names))
	for _, n := range names {
		if a, ok := ix.abilityByName[n]; ok {
			out[n] = a
		}
	}
	return out, nil
}

// ByHeroID implements stats.AbilityRepository. Results are ordered by ability order.
func (s *SnapshotStore) ByHeroID(_ context.Context, heroID int) ([]stats.Ability, error) {
	ix := s.ix.Load()
	var out []stats.Ability
	for _, n := range ix.abilityNames {
		a := ix.abilityByName[n]
		if a.HeroID != nil && *a.HeroID == heroID {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b stats.Ability) int { return a.AbilityOrder - b.AbilityOrder })
	return out, nil
}

// Names implements stats.AbilityRepository.
func (s *SnapshotStore) Names(_ context.Context) ([]string, error) {
	return slices.Clone(s.ix.Load().abilityNames), nil
}

// PartnerCombinations implements stats.SynergyRepository.
func (s *SnapshotStore) PartnerCombinations(_ context.Context, base string, candidates []string) ([]stats.SynergyPartner, error) {
	ix := s.ix.Load()
	want := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c != base {
			want[c] = struct{}{}
		}
	}
	var out []stats.SynergyPartner
	for _, p := range ix.partners[base] {
		if _, ok := want[p.Name]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// OPCombinations implements stats.SynergyRepository.
func (s *SnapshotStore) OPCombinations(_ context.Context, threshold float64) ([]stats.AbilityPair, error) {
	var out []stats.AbilityPair
	for _, p := range s.ix.Load().pairs {
		if p.SynergyWinrate-neutralWinrate >= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

// TrapCombinations implements stats.SynergyRepository.
func (s *SnapshotStore) TrapCombinations(_ context.Context, threshold float64) ([]stats.AbilityPair, error) {
	var out []stats.AbilityPair
	for _, p := range s.ix.Load().pairs {
		if neutralWinrate-p.SynergyWinrate >= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

// HeroSynergies implements stats.SynergyRepository.
func (s *SnapshotStore) HeroSynergies(_ context.Context) ([]stats.HeroAbilityRow, error) {
	var out []stats.HeroAbilityRow
	for _, r := range s.ix.Load().heroRows {
		if r.SynergyWinrate >= neutralWinrate {
			out = append(out, r)
		}
	}
	return out, nil
}

// HeroTrapSynergies implements stats.SynergyRepository.
func (s *SnapshotStore) HeroTrapSynergies(_ context.Context, threshold float64) ([]stats.HeroAbilityRow, error) {
	var out []stats.HeroAbilityRow
	for _, r := range s.ix.Load().heroRows {
		if neutralWinrate-r.SynergyWinrate >= threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

// HeroAbilitySynergiesUnfiltered implements stats.SynergyRepository.
func (s *SnapshotStore) HeroAbilitySynergiesUnfiltered(_ context.Context) ([]stats.HeroAbilityRow, error) {
	return slices.Clone(s.ix.Load().heroRows), nil
}
