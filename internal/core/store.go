package core

// store.go keeps uploaded datasets in memory for the length of an
// interactive session.
//
// Each dataset is addressed by a random UUID handed back to the browser.
// Entries expire after a period without access and the least recently used
// entry is evicted when the store is full. Nothing is written to disk.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dataset is an uploaded table with its load-time classification.
// A Dataset is never modified after it is stored.
type Dataset struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	SizeBytes int64        `json:"size_bytes"`
	CreatedAt time.Time    `json:"created_at"`
	Sets      ColumnSets   `json:"columns"`
	Profile   TableProfile `json:"profile"`
	Table     *Table       `json:"-"`
}

// NewDataset classifies and profiles t.
func NewDataset(name string, t *Table) *Dataset {
	return &Dataset{
		Name:    name,
		Sets:    Classify(t),
		Profile: Profile(t),
		Table:   t,
	}
}

type storeEntry struct {
	dataset    *Dataset
	lastAccess time.Time
}

// Store is a concurrency-safe in-memory dataset store.
type Store struct {
	ttl      time.Duration
	maxCount int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*storeEntry
}

// NewStore creates a store whose entries expire after ttl without access.
// maxCount <= 0 means unbounded.
func NewStore(ttl time.Duration, maxCount int) *Store {
	return &Store{
		ttl:      ttl,
		maxCount: maxCount,
		now:      time.Now,
		entries:  make(map[string]*storeEntry),
	}
}

// Put stores ds under a new ID and returns the IDs evicted to make room.
func (s *Store) Put(ds *Dataset) (evicted []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ds.ID = uuid.NewString()
	ds.CreatedAt = now

	for s.maxCount > 0 && len(s.entries) >= s.maxCount {
		id := s.oldestLocked()
		delete(s.entries, id)
		evicted = append(evicted, id)
	}
	s.entries[ds.ID] = &storeEntry{dataset: ds, lastAccess: now}
	return evicted
}

// Get returns the dataset stored under id and marks it used.
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	now := s.now()
	if s.expiredLocked(e, now) {
		delete(s.entries, id)
		return nil, ErrDatasetNotFound
	}
	e.lastAccess = now
	return e.dataset, nil
}

// Delete removes the dataset stored under id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Len returns the number of stored datasets, including expired ones not
// yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired datasets and returns their IDs.
func (s *Store) Sweep() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []string
	for id, e := range s.entries {
		if s.expiredLocked(e, now) {
			delete(s.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Run sweeps expired datasets every interval until ctx is cancelled.
// onRemoved, if set, receives the IDs removed by each sweep.
func (s *Store) Run(ctx context.Context, interval time.Duration, onRemoved func(ids []string)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("dataset sweeper started", "interval", interval, "ttl", s.ttl)
	for {
		select {
		case <-ctx.Done():
			slog.Info("dataset sweeper stopped")
			return nil
		case <-ticker.C:
			removed := s.Sweep()
			if len(removed) == 0 {
				continue
			}
			slog.Info("expired datasets removed", "count", len(removed))
			if onRemoved != nil {
				onRemoved(removed)
			}
		}
	}
}

func (s *Store) expiredLocked(e *storeEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) > s.ttl
}

func (s *Store) oldestLocked() string {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, e := range s.entries {
		if oldestID == "" || e.lastAccess.Before(oldestAt) {
			oldestID, oldestAt = id, e.lastAccess
		}
	}
	return oldestID
}
