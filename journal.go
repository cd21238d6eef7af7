package mirsal

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/rawhttp"
)

// redactedHeaders never reach the journal in clear text.
var redactedHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

// fetchCompletion is queued when an operation settles.
type fetchCompletion struct {
	record domain.FetchRecord
}

// startWriter opens the write channel and starts draining it into Repo.
func (c *Client) startWriter() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.dbWriteChannel != nil {
		return
	}
	c.dbWriteChannel = make(chan any, 64)
	c.writerDone = make(chan struct{})
	go c.WriteToDB(c.dbWriteChannel, c.writerDone)
}

// stopWriter closes the write channel and waits until every queued item is written.
func (c *Client) stopWriter() {
	c.writeMu.Lock()
	ch, done := c.dbWriteChannel, c.writerDone
	c.dbWriteChannel, c.writerDone = nil, nil
	c.writeMu.Unlock()

	if ch == nil {
		return
	}
	close(ch)
	<-done
}

// enqueue queues item for the writer. It reports false when the journal is off.
func (c *Client) enqueue(item any) bool {
	c.writeMu.RLock()
	defer c.writeMu.RUnlock()

	if c.dbWriteChannel == nil {
		return false
	}
	c.dbWriteChannel <- item
	return true
}

// WriteToDB drains items into the repository until items is closed. Write
// errors are logged and never reach a batch.
func (c *Client) WriteToDB(items <-chan any, done chan<- struct{}) {
	defer close(done)

	for item := range items {
		var err error
		switch castItem := item.(type) {
		case *domain.BatchRecord:
			err = c.Repo.InsertBatch(castItem)
		case *domain.FetchRecord:
			err = c.Repo.InsertFetch(castItem)
		case fetchCompletion:
			err = c.Repo.CompleteFetch(&castItem.record)
		case *domain.Log:
			err = c.Repo.InsertLog(castItem)
			if err == nil && c.OnLog != nil {
				c.OnLog(*castItem)
			}
		default:
			err = fmt.Errorf("unknown journal item %T", castItem)
		}
		if err != nil {
			c.Logger.Warn("writing to journal", "error", err)
		}
	}
}

// WriteLog queues a log entry for the journal. Without a journal the entry
// only reaches OnLog.
func (c *Client) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("level should be either: DEBUG, INFO, WARN, ERROR")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}
	log := &domain.Log{
		ID:        id,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
	for _, option := range options {
		if err := option(log); err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}
	if !c.enqueue(log) && c.OnLog != nil {
		c.OnLog(*log)
	}
	return nil
}

// journalIssue records the issued request. The body comes from the spec so
// the body of the request in flight is left alone.
func (c *Client) journalIssue(op *operation) {
	if c.Repo == nil {
		return
	}
	record := &domain.FetchRecord{
		ID:          op.handle,
		BatchID:     op.batch.ID,
		Key:         op.spec.Key,
		Method:      op.req.Method,
		URL:         op.req.URL.String(),
		Epoch:       op.epoch,
		RequestedAt: op.issuedAt,
	}

	dump, err := rawhttp.DumpRequest(op.req, op.spec.Body, redactedHeaders...)
	if err != nil {
		c.Logger.Warn("dumping request", "key", op.spec.Key, "handle", op.handle, "error", err)
	}
	record.RequestRaw = domain.RawField(dump.Raw)
	record.Prettified = dump.Pretty
	op.record = record

	queued := *record
	c.enqueue(&queued)
}

// journalResponse adds the response dump to the operation's record.
func (c *Client) journalResponse(op *operation, res *http.Response, body []byte) {
	if op.record == nil {
		return
	}
	dump, err := rawhttp.DumpResponse(res, body, redactedHeaders...)
	if err != nil {
		c.Logger.Warn("dumping response", "key", op.spec.Key, "handle", op.handle, "error", err)
	}

	op.record.StatusCode = res.StatusCode
	op.record.ContentType = contentType(res)
	op.record.ResponseRaw = domain.RawField(dump.Raw)
	if dump.Pretty != "" {
		op.record.Prettified = dump.Pretty
	}
}

// journalComplete queues the settled record.
func (c *Client) journalComplete(op *operation, outcome Outcome, failure error) {
	if op.record == nil {
		return
	}
	record := *op.record
	record.Outcome = outcome.String()
	record.RespondedAt = time.Now()
	if failure != nil {
		record.Error = failure.Error()
	}
	c.enqueue(fetchCompletion{record: record})
}

// contentType returns the lowercased media type of the response, text/plain
// for redirects and application/octet-stream when the header is missing or
// malformed.
func contentType(res *http.Response) string {
	if res.StatusCode >= 300 && res.StatusCode < 400 {
		return "text/plain"
	}
	header := res.Header.Get("Content-Type")
	if header == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "application/octet-stream"
	}
	return strings.ToLower(mediaType)
}
