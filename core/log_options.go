// Package core holds small helpers shared by the client and its modifiers:
// request context keys and options for persisted log entries.
package core

import (
	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

// LogWithContext is an option to add a context map to a log entry.
func LogWithContext(context map[string]any) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.Context = context
		return nil
	}
}

// LogWithFetchID associates a log entry with a fetch.
func LogWithFetchID(id uuid.UUID) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.FetchID = &id
		return nil
	}
}

// LogWithBatchID associates a log entry with a batch.
func LogWithBatchID(id uuid.UUID) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.BatchID = &id
		return nil
	}
}
