package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

var _ domain.LogRepository = (*Repository)(nil)

// dbLog represents a log entry as stored in the database.
type dbLog struct {
	ID        uuid.UUID      `db:"id"`        // Unique identifier for the log entry.
	Timestamp time.Time      `db:"timestamp"` // The time at which the log entry was created.
	Level     string         `db:"level"`     // The severity level of the log.
	Message   string         `db:"message"`   // The main content of the log message.
	Context   JSONMap        `db:"context"`   // Additional key-value data for structured logging.
	FetchID   sql.NullString `db:"fetch_id"`  // An optional fetch the entry is about.
	BatchID   sql.NullString `db:"batch_id"`  // An optional batch the entry is about.
}

// toDomainLog converts a dbLog to a domain.Log.
func toDomainLog(dbLog *dbLog) *domain.Log {
	return &domain.Log{
		ID:        dbLog.ID,
		Timestamp: dbLog.Timestamp,
		Level:     dbLog.Level,
		Message:   dbLog.Message,
		Context:   map[string]any(dbLog.Context),
		FetchID:   parseNullUUID(dbLog.FetchID),
		BatchID:   parseNullUUID(dbLog.BatchID),
	}
}

// fromDomainLog converts a domain.Log to a dbLog.
func fromDomainLog(log *domain.Log) *dbLog {
	return &dbLog{
		ID:        log.ID,
		Timestamp: log.Timestamp,
		Level:     log.Level,
		Message:   log.Message,
		Context:   JSONMap(log.Context),
		FetchID:   nullUUID(log.FetchID),
		BatchID:   nullUUID(log.BatchID),
	}
}

// InsertLog saves a new log entry to the database.
func (repo *Repository) InsertLog(log *domain.Log) error {
	query := `INSERT INTO logs (id, level, timestamp, message, context, fetch_id, batch_id)
	          VALUES (:id, :level, :timestamp, :message, :context, :fetch_id, :batch_id)`

	_, err := repo.dbConn.NamedExec(query, fromDomainLog(log))
	if err != nil {
		return fmt.Errorf("inserting log %s: %w", log.ID, err)
	}
	return nil
}

// GetLogs retrieves all log entries, oldest first.
func (repo *Repository) GetLogs() ([]*domain.Log, error) {
	var dbLogs []*dbLog
	query := `SELECT id, timestamp, level, message, context, fetch_id, batch_id FROM logs ORDER BY timestamp, id`

	err := repo.dbConn.Select(&dbLogs, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all logs: %w", err)
	}

	domainLogs := make([]*domain.Log, len(dbLogs))
	for i, dbLog := range dbLogs {
		domainLogs[i] = toDomainLog(dbLog)
	}
	return domainLogs, nil
}
