// Package store holds the in-memory state shared between the request
// orchestrator and its readers: the per-key request ledger and the resource
// data table. Readers may query a Store from any goroutine. Only the
// orchestrator mutates it.
package store

import "github.com/tfkr-ae/mirsal/domain"

// Store pairs a Ledger with a Table.
type Store struct {
	ledger *Ledger
	table  *Table
}

// New returns an empty store.
func New() *Store {
	return &Store{
		ledger: NewLedger(),
		table:  NewTable(),
	}
}

// Ledger returns the request ledger.
func (s *Store) Ledger() *Ledger {
	return s.ledger
}

// Table returns the resource data table.
func (s *Store) Table() *Table {
	return s.table
}

// Reset returns every key to unstarted and drops every value.
func (s *Store) Reset() {
	s.ledger.ResetAll()
	s.table.ClearAll()
}

// ResetKey returns key to unstarted and drops its value.
func (s *Store) ResetKey(key domain.Key) {
	s.ledger.Reset(key)
	s.table.Clear(key)
}
