package store

import "github.com/tfkr-ae/mirsal/domain"

// State returns the lifecycle state of key.
func (s *Store) State(key domain.Key) domain.State {
	return s.ledger.State(key)
}

// Data returns the value committed for key.
func (s *Store) Data(key domain.Key) (any, bool) {
	return s.table.Get(key)
}

// IsLoading reports whether a fetch for key is in flight.
func (s *Store) IsLoading(key domain.Key) bool {
	return s.ledger.State(key) == domain.StateLoading
}

// IsInitialLoad reports whether keys are in their first load: at least one
// key has no data and is loading, and none of them has failed. It is false
// for a background refresh of data that is already shown.
func (s *Store) IsInitialLoad(keys ...domain.Key) bool {
	initial := false
	for _, key := range keys {
		state := s.ledger.State(key)
		if state == domain.StateError {
			return false
		}
		if state == domain.StateLoading && !s.table.Has(key) {
			initial = true
		}
	}
	return initial
}

// AllDataPresent reports whether every key has a committed value.
func (s *Store) AllDataPresent(keys ...domain.Key) bool {
	for _, key := range keys {
		if !s.table.Has(key) {
			return false
		}
	}
	return true
}
