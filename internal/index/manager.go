package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"studyspot-backend/internal/store"
)

// ErrNotReady is returned when no index generation has been published yet.
// It signals a structural failure that must surface to the caller.
var ErrNotReady = errors.New("attribute index not ready")

// Snapshot is one published index generation. Readers pin a snapshot for a
// request's duration; rebuilds publish a new one with an atomic pointer swap.
type Snapshot struct {
	Index      *Index
	Generation uint64
	BuiltAt    time.Time
}

// Manager owns the index lifecycle: bootstrap from the serialized artifact or
// the store, periodic rebuilds, and lock-free snapshot reads.
type Manager struct {
	store    store.Store
	path     string
	interval time.Duration

	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
}

// NewManager creates a manager that persists its artifact at path and, when
// interval > 0, rebuilds on that cadence from Run.
func NewManager(s store.Store, path string, interval time.Duration) *Manager {
	return &Manager{store: s, path: path, interval: interval}
}

// Current returns the latest published snapshot.
func (m *Manager) Current() (*Snapshot, error) {
	snap := m.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Bootstrap publishes an initial snapshot: the on-disk artifact if it loads,
// otherwise a fresh rebuild from the store. Both failing is fatal to startup.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if idx, err := LoadArtifact(m.path); err == nil {
		m.publish(idx)
		log.Printf("index: loaded artifact from %s (%d spaces)", m.path, idx.SpaceCount)
		return nil
	} else {
		log.Printf("index: artifact unusable (%v), rebuilding from store", err)
	}

	if err := m.RebuildOnce(ctx); err != nil {
		return fmt.Errorf("index bootstrap failed: %w", err)
	}
	return nil
}

// RebuildOnce scans the store, persists the artifact, and swaps in the new
// generation. Readers of the previous generation are unaffected.
func (m *Manager) RebuildOnce(ctx context.Context) error {
	details, err := m.store.AllSpaceDetails(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild: %w", err)
	}

	idx := Build(details)
	if err := idx.Save(m.path); err != nil {
		return fmt.Errorf("index rebuild: %w", err)
	}

	snap := m.publish(idx)
	log.Printf("index: rebuilt generation %d (%d spaces)", snap.Generation, idx.SpaceCount)
	return nil
}

// Run rebuilds the index on the configured interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if m.interval <= 0 {
		log.Println("index: periodic rebuild disabled")
		return
	}

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("index: rebuild loop shutting down")
			return
		case <-timer.C:
			if err := m.RebuildOnce(ctx); err != nil {
				log.Printf("index: rebuild failed: %v", err)
			}
			timer.Reset(m.interval)
		}
	}
}

func (m *Manager) publish(idx *Index) *Snapshot {
	snap := &Snapshot{
		Index:      idx,
		Generation: m.gen.Add(1),
		BuiltAt:    time.Now().UTC(),
	}
	m.current.Store(snap)
	return snap
}
