package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"paysched/internal/core"
	ports "paysched/internal/sheets"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger is an in-process ledger used when no spreadsheet is configured and in tests.
type Ledger struct {
	mu     sync.Mutex
	rows   map[int64]core.Payment
	writes int
}

func New() *Ledger {
	return &Ledger{rows: make(map[int64]core.Payment)}
}

func (l *Ledger) Upsert(_ context.Context, p core.Payment) (string, error) {
	if p.ID <= 0 {
		return "", fmt.Errorf("ledger row needs an id, got %d", p.ID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[p.ID] = p.Clone()
	l.writes++
	return fmt.Sprintf("mem:%d", p.ID), nil
}

func (l *Ledger) Remove(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; ok {
		delete(l.rows, id)
		l.writes++
	}
	return nil
}

func (l *Ledger) Versions(context.Context) (map[int64]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]int64, len(l.rows))
	for id, p := range l.rows {
		out[id] = p.Version
	}
	return out, nil
}

// Row returns the payment held for id.
func (l *Ledger) Row(id int64) (core.Payment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[id]
	return p.Clone(), ok
}

// Snapshot returns every row keyed by id.
func (l *Ledger) Snapshot() map[int64]core.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.rows)
}

// Writes counts the upserts and effective removals so far.
func (l *Ledger) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
