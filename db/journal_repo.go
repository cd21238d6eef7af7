package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

var _ domain.JournalRepository = (*Repository)(nil)

// dbFetch is a fetch row. Response columns stay NULL until the fetch completes.
type dbFetch struct {
	ID          uuid.UUID `db:"id"`
	BatchID     uuid.UUID `db:"batch_id"`
	Key         string    `db:"resource_key"`
	Method      string    `db:"method"`
	URL         string    `db:"url"`
	Host        string    `db:"host"`
	Epoch       int64     `db:"epoch"`
	RequestRaw  []byte    `db:"request_raw"`
	RequestedAt time.Time `db:"requested_at"`

	Outcome     sql.NullString `db:"outcome"`
	StatusCode  sql.NullInt64  `db:"status_code"`
	ContentType sql.NullString `db:"content_type"`
	Error       sql.NullString `db:"error"`
	ResponseRaw []byte         `db:"response_raw"`
	Prettified  sql.NullString `db:"prettified"`
	RespondedAt sql.NullTime   `db:"responded_at"`
}

// dbFetchSummary is a fetch row without the raw and prettified columns.
type dbFetchSummary struct {
	ID          uuid.UUID      `db:"id"`
	BatchID     uuid.UUID      `db:"batch_id"`
	Key         string         `db:"resource_key"`
	Method      string         `db:"method"`
	URL         string         `db:"url"`
	Host        string         `db:"host"`
	Epoch       int64          `db:"epoch"`
	RequestedAt time.Time      `db:"requested_at"`
	Outcome     sql.NullString `db:"outcome"`
	StatusCode  sql.NullInt64  `db:"status_code"`
	ContentType sql.NullString `db:"content_type"`
	Error       sql.NullString `db:"error"`
	RespondedAt sql.NullTime   `db:"responded_at"`
}

const fetchSummaryColumns = `id, batch_id, resource_key, method, url, host, epoch, requested_at,
	outcome, status_code, content_type, error, responded_at`

// dbBatchKey is one key of a batch, in request order.
type dbBatchKey struct {
	BatchID  uuid.UUID `db:"batch_id"`
	Position int       `db:"position"`
	Key      string    `db:"resource_key"`
}

// dbBatch is a batch row.
type dbBatch struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

// fromDomainFetch converts a domain.FetchRecord into a dbFetch.
func fromDomainFetch(fetch *domain.FetchRecord) *dbFetch {
	return &dbFetch{
		ID:          fetch.ID,
		BatchID:     fetch.BatchID,
		Key:         fetch.Key.String(),
		Method:      fetch.Method,
		URL:         fetch.URL,
		Host:        hostOf(fetch.URL),
		Epoch:       int64(fetch.Epoch),
		RequestRaw:  fetch.RequestRaw,
		RequestedAt: fetch.RequestedAt,
		Outcome:     nullString(fetch.Outcome),
		StatusCode: sql.NullInt64{
			Int64: int64(fetch.StatusCode),
			Valid: fetch.StatusCode > 0,
		},
		ContentType: nullString(fetch.ContentType),
		Error:       nullString(fetch.Error),
		ResponseRaw: fetch.ResponseRaw,
		Prettified:  nullString(fetch.Prettified),
		RespondedAt: nullTime(fetch.RespondedAt),
	}
}

// toDomainFetch converts a dbFetch into a domain.FetchRecord. A key that is
// no longer in the catalog fails the conversion.
func toDomainFetch(row *dbFetch) (*domain.FetchRecord, error) {
	key, err := domain.ParseKey(row.Key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s : %w", row.ID, err)
	}
	fetch := &domain.FetchRecord{
		ID:          row.ID,
		BatchID:     row.BatchID,
		Key:         key,
		Method:      row.Method,
		URL:         row.URL,
		Epoch:       uint64(row.Epoch),
		RequestRaw:  row.RequestRaw,
		ResponseRaw: row.ResponseRaw,
		RequestedAt: row.RequestedAt,
	}
	if row.Outcome.Valid {
		fetch.Outcome = row.Outcome.String
	}
	if row.StatusCode.Valid {
		fetch.StatusCode = int(row.StatusCode.Int64)
	}
	if row.ContentType.Valid {
		fetch.ContentType = row.ContentType.String
	}
	if row.Error.Valid {
		fetch.Error = row.Error.String
	}
	if row.Prettified.Valid {
		fetch.Prettified = row.Prettified.String
	}
	if row.RespondedAt.Valid {
		fetch.RespondedAt = row.RespondedAt.Time
	}
	return fetch, nil
}

// toDomainFetchSummary converts a dbFetchSummary into a domain.FetchSummary.
func toDomainFetchSummary(row *dbFetchSummary) (*domain.FetchSummary, error) {
	key, err := domain.ParseKey(row.Key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s : %w", row.ID, err)
	}
	summary := &domain.FetchSummary{
		ID:          row.ID,
		BatchID:     row.BatchID,
		Key:         key,
		Method:      row.Method,
		URL:         row.URL,
		Host:        row.Host,
		Epoch:       uint64(row.Epoch),
		RequestedAt: row.RequestedAt,
	}
	if row.Outcome.Valid {
		summary.Outcome = row.Outcome.String
	}
	if row.StatusCode.Valid {
		summary.StatusCode = int(row.StatusCode.Int64)
	}
	if row.ContentType.Valid {
		summary.ContentType = row.ContentType.String
	}
	if row.Error.Valid {
		summary.Error = row.Error.String
	}
	if row.RespondedAt.Valid {
		summary.RespondedAt = row.RespondedAt.Time
	}
	return summary, nil
}

func toDomainFetchSummaries(rows []*dbFetchSummary) ([]*domain.FetchSummary, error) {
	summaries := make([]*domain.FetchSummary, len(rows))
	for i, row := range rows {
		summary, err := toDomainFetchSummary(row)
		if err != nil {
			return nil, err
		}
		summaries[i] = summary
	}
	return summaries, nil
}

// InsertBatch inserts a batch and its keys in one transaction.
func (repo *Repository) InsertBatch(batch *domain.BatchRecord) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction : %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO batches(id, created_at) VALUES(:id, :created_at)`,
		&dbBatch{ID: batch.ID, CreatedAt: batch.CreatedAt})
	if err != nil {
		return fmt.Errorf("inserting batch %s : %w", batch.ID, err)
	}

	for i, key := range batch.Keys {
		row := &dbBatchKey{BatchID: batch.ID, Position: i, Key: key.String()}
		_, err := tx.NamedExec(`INSERT INTO batch_keys(batch_id, position, resource_key)
			VALUES(:batch_id, :position, :resource_key)`, row)
		if err != nil {
			return fmt.Errorf("inserting key %d of batch %s : %w", i, batch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch %s : %w", batch.ID, err)
	}
	return nil
}

// InsertFetch inserts an issued fetch.
func (repo *Repository) InsertFetch(fetch *domain.FetchRecord) error {
	query := `INSERT INTO fetches(id, batch_id, resource_key, method, url, host, epoch, request_raw, prettified, requested_at)
			  VALUES(:id, :batch_id, :resource_key, :method, :url, :host, :epoch, :request_raw, :prettified, :requested_at)`
	_, err := repo.dbConn.NamedExec(query, fromDomainFetch(fetch))
	if err != nil {
		return fmt.Errorf("inserting fetch %s : %w", fetch.ID, err)
	}
	return nil
}

// CompleteFetch updates an inserted fetch with its outcome and response data.
func (repo *Repository) CompleteFetch(fetch *domain.FetchRecord) error {
	query := `UPDATE fetches SET
				outcome = :outcome,
				status_code = :status_code,
				content_type = :content_type,
				error = :error,
				response_raw = :response_raw,
				prettified = COALESCE(:prettified, prettified),
				responded_at = :responded_at
			  WHERE id = :id`
	result, err := repo.dbConn.NamedExec(query, fromDomainFetch(fetch))
	if err != nil {
		return fmt.Errorf("completing fetch %s : %w", fetch.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for fetch %s : %w", fetch.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no fetch found with id %s to update", fetch.ID)
	}
	return nil
}

// GetFetch returns the full record of a fetch.
func (repo *Repository) GetFetch(id uuid.UUID) (*domain.FetchRecord, error) {
	var row dbFetch
	err := repo.dbConn.Get(&row, `SELECT id, batch_id, resource_key, method, url, host, epoch, request_raw, requested_at,
		outcome, status_code, content_type, error, response_raw, prettified, responded_at
		FROM fetches WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting fetch %s : %w", id, err)
	}
	return toDomainFetch(&row)
}

// GetFetchSummaries returns every fetch, oldest first.
func (repo *Repository) GetFetchSummaries() ([]*domain.FetchSummary, error) {
	var rows []*dbFetchSummary
	err := repo.dbConn.Select(&rows, `SELECT `+fetchSummaryColumns+` FROM fetches ORDER BY requested_at, id`)
	if err != nil {
		return nil, fmt.Errorf("getting fetch summaries : %w", err)
	}
	return toDomainFetchSummaries(rows)
}

// GetFetchesByKey returns the fetches issued for key, oldest first.
func (repo *Repository) GetFetchesByKey(key domain.Key) ([]*domain.FetchSummary, error) {
	var rows []*dbFetchSummary
	err := repo.dbConn.Select(&rows, `SELECT `+fetchSummaryColumns+` FROM fetches WHERE resource_key = ? ORDER BY requested_at, id`, key.String())
	if err != nil {
		return nil, fmt.Errorf("getting fetches for %s : %w", key, err)
	}
	return toDomainFetchSummaries(rows)
}

// GetBatches returns every batch with its keys, oldest first.
func (repo *Repository) GetBatches() ([]*domain.BatchRecord, error) {
	var batches []*dbBatch
	if err := repo.dbConn.Select(&batches, `SELECT id, created_at FROM batches ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("getting batches : %w", err)
	}

	var keys []*dbBatchKey
	if err := repo.dbConn.Select(&keys, `SELECT batch_id, position, resource_key FROM batch_keys ORDER BY batch_id, position`); err != nil {
		return nil, fmt.Errorf("getting batch keys : %w", err)
	}

	records := make([]*domain.BatchRecord, len(batches))
	byID := make(map[uuid.UUID]*domain.BatchRecord, len(batches))
	for i, batch := range batches {
		records[i] = &domain.BatchRecord{ID: batch.ID, Keys: []domain.Key{}, CreatedAt: batch.CreatedAt}
		byID[batch.ID] = records[i]
	}
	for _, row := range keys {
		record, ok := byID[row.BatchID]
		if !ok {
			continue
		}
		key, err := domain.ParseKey(row.Key)
		if err != nil {
			return nil, fmt.Errorf("batch %s : %w", row.BatchID, err)
		}
		record.Keys = append(record.Keys, key)
	}
	return records, nil
}

// GetBatchFetches returns the fetches issued by a batch.
func (repo *Repository) GetBatchFetches(batchID uuid.UUID) ([]*domain.FetchSummary, error) {
	var rows []*dbFetchSummary
	err := repo.dbConn.Select(&rows, `SELECT `+fetchSummaryColumns+` FROM fetches WHERE batch_id = ? ORDER BY requested_at, id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("getting fetches of batch %s : %w", batchID, err)
	}
	return toDomainFetchSummaries(rows)
}
