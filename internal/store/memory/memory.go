// Package memory is an in-process payment repository used by tests and the
// memory data backend. State is lost on restart.
package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"paysched/internal/core"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]core.Payment
}

func New() *Store {
	return &Store{nextID: 1, records: make(map[int64]core.Payment)}
}

// Create validates the draft and inserts it under the next id. Ids are never reused.
func (s *Store) Create(_ context.Context, d core.Draft, now time.Time) (core.Payment, error) {
	p := d.Payment()
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = now.UTC()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
	s.records[p.ID] = p.Clone()
	return p, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok {
		return core.Payment{}, core.NotFound(id)
	}
	return p.Clone(), nil
}

func (s *Store) Update(_ context.Context, id int64, mutate func(*core.Payment) error, now time.Time) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[id]
	if !ok || cur.Trashed() {
		return core.Payment{}, core.NotFound(id)
	}
	next := cur.Clone()
	if err := mutate(&next); err != nil {
		return core.Payment{}, err
	}
	// identity and bookkeeping are not the caller's to change
	next.ID, next.CreatedAt, next.DeletedAt = cur.ID, cur.CreatedAt, nil
	if err := next.Validate(); err != nil {
		return core.Payment{}, err
	}
	next.UpdatedAt = now.UTC()
	next.Version = cur.Version + 1
	s.records[id] = next.Clone()
	return next, nil
}

func (s *Store) SoftDelete(_ context.Context, id int64, now time.Time) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok || p.Trashed() {
		return core.Payment{}, core.NotFound(id)
	}
	at := now.UTC()
	p.DeletedAt = &at
	s.records[id] = p
	return p.Clone(), nil
}

func (s *Store) Restore(_ context.Context, id int64) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok || !p.Trashed() {
		return core.Payment{}, core.NotFound(id)
	}
	p.DeletedAt = nil
	s.records[id] = p
	return p.Clone(), nil
}

func (s *Store) HardDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok || !p.Trashed() {
		return core.NotFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *Store) List(_ context.Context, f core.Filter) (iter.Seq[core.Payment], error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f.Apply(s.snapshot(false)), nil
}

func (s *Store) Trash(_ context.Context) (iter.Seq[core.Payment], error) {
	trashed := s.snapshot(true)
	slices.SortStableFunc(trashed, func(a, b core.Payment) int {
		return b.DeletedAt.Compare(*a.DeletedAt)
	})
	return slices.Values(trashed), nil
}

// Len returns the number of records in both partitions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) Close() error { return nil }

// snapshot copies one partition in id order.
func (s *Store) snapshot(trashed bool) []core.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Payment, 0, len(s.records))
	for _, p := range s.records {
		if p.Trashed() == trashed {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b core.Payment) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
