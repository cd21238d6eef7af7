package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RawField holds a raw HTTP dump. It marshals to a JSON string instead of
// the base64 encoding []byte gets by default.
type RawField []byte

// MarshalJSON implements the json.Marshaler interface.
func (r RawField) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	return json.Marshal(string(r))
}

// JournalRepository stores diagnostic traces of fetches and the batches they belong to.
// Nothing read back from the journal is ever served as resource data.
type JournalRepository interface {
	// InsertBatch records a new batch. Fetch records reference it by ID.
	InsertBatch(batch *BatchRecord) error

	// InsertFetch records an issued network operation.
	InsertFetch(fetch *FetchRecord) error

	// CompleteFetch updates the row identified by fetch.ID with its outcome and response data.
	// It returns an error if the fetch was never inserted.
	CompleteFetch(fetch *FetchRecord) error

	// GetFetch returns the full record, including raw dumps, for a fetch ID.
	GetFetch(id uuid.UUID) (*FetchRecord, error)

	// GetFetchSummaries returns every fetch without the raw and prettified fields, oldest first.
	GetFetchSummaries() ([]*FetchSummary, error)

	// GetFetchesByKey returns summaries of the fetches issued for one resource key.
	GetFetchesByKey(key Key) ([]*FetchSummary, error)

	// GetBatches returns every recorded batch.
	GetBatches() ([]*BatchRecord, error)

	// GetBatchFetches returns the summaries of the fetches issued by a batch.
	GetBatchFetches(batchID uuid.UUID) ([]*FetchSummary, error)
}

// FetchRecord is the journal entry of one network operation.
type FetchRecord struct {
	ID          uuid.UUID // operation handle
	BatchID     uuid.UUID
	Key         Key
	Method      string
	URL         string
	Epoch       uint64 // ledger epoch captured at issue time
	Outcome     string // empty until the fetch completes
	StatusCode  int    // 0 when no response was received
	ContentType string
	Error       string
	RequestRaw  RawField
	ResponseRaw RawField
	Prettified  string
	RequestedAt time.Time
	RespondedAt time.Time
}

// FetchSummary is a FetchRecord without raw dumps.
type FetchSummary struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	Key         Key
	Method      string
	URL         string
	Host        string // derived from URL by the journal
	Epoch       uint64
	Outcome     string
	StatusCode  int
	ContentType string
	Error       string
	RequestedAt time.Time
	RespondedAt time.Time
}

// BatchRecord is the journal entry of one orchestrator call.
type BatchRecord struct {
	ID        uuid.UUID
	Keys      []Key
	CreatedAt time.Time
}
