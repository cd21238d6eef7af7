package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogRepository persists log entries such as the alerts raised by batches.
type LogRepository interface {
	// InsertLog saves a new log entry to the repository.
	InsertLog(log *Log) error
	// GetLogs retrieves all log entries from the repository.
	GetLogs() ([]*Log, error)
}

// Log is a single persisted log entry.
type Log struct {
	ID        uuid.UUID      // Unique identifier for the log entry.
	Timestamp time.Time      // The time at which the log entry was created.
	Level     string         // The severity level of the log (DEBUG, INFO, WARN, ERROR).
	Message   string         // The main content of the log message.
	Context   map[string]any // Additional structured key-value data.
	FetchID   *uuid.UUID     // Optional fetch the entry is about.
	BatchID   *uuid.UUID     // Optional batch the entry is about.
}
