package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

// Entry is a point-in-time copy of one ledger row.
type Entry struct {
	Handle uuid.UUID    // most recent operation handle, uuid.Nil when none was issued
	State  domain.State // lifecycle state
	Epoch  uint64       // cancellation epoch
}

// Ledger tracks, per resource key, the lifecycle state of the most recent
// fetch and a cancellation epoch. Epochs only grow: they are bumped when a
// loading key is superseded, canceled or reset, never by success or error.
type Ledger struct {
	mu      sync.RWMutex
	entries map[domain.Key]*Entry
}

// NewLedger returns a ledger where every key is unstarted at epoch zero.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[domain.Key]*Entry)}
}

// entry returns the row for key, creating it on first use. Callers hold mu.
func (l *Ledger) entry(key domain.Key) *Entry {
	e, ok := l.entries[key]
	if !ok {
		e = &Entry{}
		l.entries[key] = e
	}
	return e
}

// MarkLoading records handle as the key's in-flight operation.
func (l *Ledger) MarkLoading(key domain.Key, handle uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(key)
	e.Handle = handle
	e.State = domain.StateLoading
}

// MarkSuccess sets the key to success.
func (l *Ledger) MarkSuccess(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry(key).State = domain.StateSuccess
}

// MarkError sets the key to error.
func (l *Ledger) MarkError(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry(key).State = domain.StateError
}

// MarkCanceled bumps the key's epoch and sets it to canceled. Any operation
// that captured the previous epoch can no longer commit.
func (l *Ledger) MarkCanceled(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(key)
	e.Epoch++
	e.State = domain.StateCanceled
}

// CurrentEpoch returns the key's cancellation epoch.
func (l *Ledger) CurrentEpoch(key domain.Key) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.entries[key]; ok {
		return e.Epoch
	}
	return 0
}

// State returns the key's lifecycle state.
func (l *Ledger) State(key domain.Key) domain.State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.entries[key]; ok {
		return e.State
	}
	return domain.StateUnstarted
}

// Handle returns the key's most recent operation handle, or uuid.Nil.
func (l *Ledger) Handle(key domain.Key) uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.entries[key]; ok {
		return e.Handle
	}
	return uuid.Nil
}

// Entry returns a copy of the key's row.
func (l *Ledger) Entry(key domain.Key) Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.entries[key]; ok {
		return *e
	}
	return Entry{}
}

// Reset returns the key to unstarted and forgets its handle. The epoch is
// kept, and bumped if the key was loading.
func (l *Ledger) Reset(key domain.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reset(key)
}

// ResetAll resets every key.
func (l *Ledger) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.entries {
		l.reset(key)
	}
}

func (l *Ledger) reset(key domain.Key) {
	e, ok := l.entries[key]
	if !ok {
		return
	}
	if e.State == domain.StateLoading {
		e.Epoch++
	}
	e.State = domain.StateUnstarted
	e.Handle = uuid.Nil
}

// Loading returns the keys currently loading.
func (l *Ledger) Loading() []domain.Key {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var keys []domain.Key
	for _, key := range domain.AllKeys() {
		if e, ok := l.entries[key]; ok && e.State == domain.StateLoading {
			keys = append(keys, key)
		}
	}
	return keys
}
