// Package mirsal is a client side request orchestrator for a form data
// collection API. It issues batches of fetches for named resource keys,
// keeps one ledger entry per key, stores transformed results in a resource
// table and discards responses that were overtaken by a newer fetch.
//
// The core functionality includes:
//   - Batches of fetch specs with resend, clear and extended metadata settings
//   - Epoch based discard of stale responses
//   - Problem reclassification, success callbacks and a single alert per batch
//   - Derived state queries over the ledger and the table
//   - An optional SQLite journal of every batch and fetch
package mirsal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/martian/fifo"
	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/core"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/metrics"
	"github.com/tfkr-ae/mirsal/session"
	"github.com/tfkr-ae/mirsal/store"
	"github.com/tfkr-ae/mirsal/transform"
)

// Repository is the journal backend consumed by the client.
type Repository interface {
	domain.JournalRepository
	domain.LogRepository
	domain.StatsRepository
	Close() error
}

// Doer sends a request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for outgoing requests. It is called
// while the client holds its lock and must not call back into the client.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// operation is one issued network call.
type operation struct {
	batch    *Batch
	index    int
	spec     Spec
	handle   uuid.UUID
	epoch    uint64
	parent   context.Context
	req      *http.Request
	cancel   context.CancelFunc
	canceled bool // set under Client.mu by Cancel and Reset
	issuedAt time.Time
	record   *domain.FetchRecord // nil when the journal is off
}

// Client orchestrates fetches for resource keys. Every ledger and table
// mutation happens while holding mu, and the epoch check and commit of a
// response happen in the same critical section.
type Client struct {
	Config  *Config
	Logger  *slog.Logger
	Scope   *AuthScope
	Repo    Repository
	Metrics *metrics.Collector
	OnLog   func(log domain.Log) // Called for each journal log entry, after it is written

	store        *store.Store
	transforms   *transform.Registry
	doer         Doer
	roundTripper http.RoundTripper
	tokens       TokenSource
	alerter      Alerter

	modifiers *fifo.Group // request and response modifier pipeline

	mu       sync.Mutex
	inflight map[domain.Key]*operation
	closed   bool

	writeMu        sync.RWMutex
	dbWriteChannel chan any
	writerDone     chan struct{}
	ownsRepo       bool
}

// New creates a client with the default transforms, modifiers and
// configuration and applies any provided options.
func New(options ...func(*Client) error) (*Client, error) {
	client := &Client{
		Config:     DefaultConfig(),
		Logger:     slog.New(slog.DiscardHandler),
		store:      store.New(),
		transforms: transform.Default(),
		modifiers:  fifo.NewGroup(),
		inflight:   make(map[domain.Key]*operation),
	}
	for _, modifier := range DefaultRequestModifiers {
		client.AddRequestModifier(modifier)
	}
	for _, modifier := range DefaultResponseModifiers {
		client.AddResponseModifier(modifier)
	}
	if err := client.WithOptions(options...); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.finalize(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// AddRequestModifier appends modifier to the request pipeline.
func (c *Client) AddRequestModifier(modifier RequestModifierFunc) {
	c.modifiers.AddRequestModifier(&reqAdapter{client: c, modifier: modifier})
}

// AddResponseModifier appends modifier to the response pipeline.
func (c *Client) AddResponseModifier(modifier ResponseModifierFunc) {
	c.modifiers.AddResponseModifier(&resAdapter{client: c, modifier: modifier})
}

// finalize fills in whatever the options left unset.
func (c *Client) finalize() error {
	if c.Scope == nil {
		scope, err := ScopeFromConfig(c.Config)
		if err != nil {
			return fmt.Errorf("building auth scope : %w", err)
		}
		c.Scope = scope
	}
	if c.alerter == nil {
		c.alerter = LogAlerter(c.Logger)
	}
	if c.tokens == nil {
		c.tokens = session.StoreSource{Table: c.store.Table()}
	}
	if c.doer == nil {
		if c.roundTripper == nil {
			base, err := newBaseTransport(c.Config.TLSHello)
			if err != nil {
				return err
			}
			c.roundTripper = base
		}
		c.doer = &http.Client{
			Transport: newMirsalTransport(c, c.roundTripper, c.Config.RateLimit, c.Config.RateBurst),
			Timeout:   c.Config.Timeout,
		}
	}
	if c.Repo == nil && c.Config.JournalPath != "" {
		if err := WithJournalPath(c.Config.JournalPath)(c); err != nil {
			return err
		}
	}
	return nil
}

// Store exposes the ledger and the table for derived state queries.
func (c *Client) Store() *store.Store {
	return c.store
}

// Transforms returns the transform registry.
func (c *Client) Transforms() *transform.Registry {
	return c.transforms
}

// Request issues one fetch per spec and returns the batch tracking them.
// Specs are issued in order, so a later spec for the same key supersedes an
// earlier one.
func (c *Client) Request(ctx context.Context, specs ...Spec) *Batch {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	batch := newBatch(id, specs)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		for i, spec := range specs {
			batch.settle(i, OutcomeError, &FetchError{Key: spec.Key, Err: ErrClosed})
		}
		return batch
	}

	c.enqueue(&domain.BatchRecord{ID: batch.ID, Keys: batch.Keys, CreatedAt: time.Now()})
	c.Logger.Debug("requesting batch", "batch", batch.ID, "keys", batch.Keys)

	for i, spec := range specs {
		c.issue(ctx, batch, i, spec)
	}
	return batch
}

// Fetch issues the specs and waits for the batch.
func (c *Client) Fetch(ctx context.Context, specs ...Spec) error {
	return c.Request(ctx, specs...).Wait(ctx)
}

// issue runs the synchronous part of one spec: the no-op check, supersession
// of the key's current fetch, the optional clear and the ledger transition
// to loading. The network call runs on its own goroutine.
func (c *Client) issue(ctx context.Context, batch *Batch, index int, spec Spec) {
	key := spec.Key
	if !key.Valid() {
		c.fail(ctx, batch, index, spec, uuid.Nil, ErrInvalidKey)
		return
	}
	ledger, table := c.store.Ledger(), c.store.Table()

	c.mu.Lock()
	state := ledger.State(key)
	if !spec.Resend && (table.Has(key) || state == domain.StateLoading) {
		c.mu.Unlock()
		c.Logger.Debug("skipping fetch", "key", key, "state", state)
		c.Metrics.RecordOutcome(key.String(), OutcomeNoop.String())
		batch.settle(index, OutcomeNoop, nil)
		return
	}

	if state == domain.StateLoading {
		ledger.MarkCanceled(key)
		if prev, ok := c.inflight[key]; ok {
			prev.cancel()
			delete(c.inflight, key)
		}
	}
	if spec.Clear {
		table.Clear(key)
	}
	epoch := ledger.CurrentEpoch(key)

	handle, err := uuid.NewV7()
	if err != nil {
		c.mu.Unlock()
		c.fail(ctx, batch, index, spec, uuid.Nil, fmt.Errorf("%w : generating handle : %w", ErrBuildRequest, err))
		return
	}

	opCtx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(opCtx, batch.ID, handle, spec)
	if err != nil {
		cancel()
		ledger.MarkError(key)
		c.mu.Unlock()
		c.fail(ctx, batch, index, spec, uuid.Nil, fmt.Errorf("%w : %w", ErrBuildRequest, err))
		return
	}

	op := &operation{
		batch:    batch,
		index:    index,
		spec:     spec,
		handle:   handle,
		epoch:    epoch,
		parent:   ctx,
		req:      req,
		cancel:   cancel,
		issuedAt: time.Now(),
	}
	ledger.MarkLoading(key, handle)
	c.inflight[key] = op
	c.mu.Unlock()

	c.Metrics.RecordStart()
	c.journalIssue(op)
	c.Logger.Debug("issued fetch", "key", key, "handle", handle, "epoch", epoch, "url", req.URL.String())

	go c.run(op)
}

// newRequest builds the outgoing request and runs the request modifiers.
func (c *Client) newRequest(ctx context.Context, batchID, handle uuid.UUID, spec Spec) (*http.Request, error) {
	if spec.err != nil {
		return nil, spec.err
	}
	target, err := c.resolve(spec.URL)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}
	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request : %w", err)
	}
	for name, values := range spec.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	req = core.ContextWithFetchID(req, handle)
	req = core.ContextWithBatchID(req, batchID)
	req = core.ContextWithResourceKey(req, spec.Key)
	req = core.ContextWithExtendedFlag(req, spec.Extended)
	req = core.ContextWithRequestTime(req, time.Now())

	if err := c.modifiers.ModifyRequest(req); err != nil {
		return nil, fmt.Errorf("modifying request : %w", err)
	}
	return req, nil
}

// resolve returns raw unchanged when it is absolute and joins it to the
// configured API base otherwise.
func (c *Client) resolve(raw string) (string, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	if c.Config.APIBase == "" {
		return "", fmt.Errorf("relative url %q without api_base", raw)
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimSuffix(c.Config.APIBase, "/") + raw, nil
}

// run performs the network call and hands the result to complete.
func (c *Client) run(op *operation) {
	res, err := c.doer.Do(op.req)
	if err != nil {
		c.complete(op, nil, err)
		return
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.complete(op, nil, &BodyError{StatusCode: res.StatusCode, Err: fmt.Errorf("%w : %w", ErrReadBody, err)})
		return
	}
	c.journalResponse(op, res, body)
	c.complete(op, &transform.Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil)
}

// complete classifies the result and commits it if the operation is still
// current for its key.
func (c *Client) complete(op *operation, res *transform.Response, doErr error) {
	key := op.spec.Key
	value, outcome, failure := c.classify(op, res, doErr)

	ledger, table := c.store.Ledger(), c.store.Table()

	c.mu.Lock()
	if c.inflight[key] == op {
		delete(c.inflight, key)
	}
	if ledger.CurrentEpoch(key) != op.epoch {
		superseded := !op.canceled
		c.mu.Unlock()
		op.cancel()
		if superseded {
			c.finish(op, OutcomeSuperseded, nil)
		} else {
			c.finish(op, OutcomeCanceled, nil)
		}
		return
	}
	if doErr != nil && errors.Is(op.parent.Err(), context.Canceled) {
		ledger.MarkCanceled(key)
		c.mu.Unlock()
		op.cancel()
		c.finish(op, OutcomeCanceled, nil)
		return
	}

	var snapshot store.Snapshot
	if failure != nil {
		ledger.MarkError(key)
	} else {
		ledger.MarkSuccess(key)
		table.Set(key, value)
		if op.spec.Success != nil {
			snapshot = table.Snapshot()
		}
	}
	c.mu.Unlock()
	op.cancel()

	if failure != nil {
		c.finish(op, OutcomeError, failure)
		c.fail(op.parent, op.batch, op.index, op.spec, op.handle, failure)
		return
	}

	if op.spec.Success != nil {
		op.spec.Success(snapshot)
	}
	c.finish(op, outcome, nil)
}

// classify turns a response into the value to store, or a failure. It
// touches no shared state.
func (c *Client) classify(op *operation, res *transform.Response, doErr error) (any, Outcome, error) {
	if doErr != nil {
		var bodyErr *BodyError
		if errors.As(doErr, &bodyErr) {
			return nil, OutcomeError, bodyErr
		}
		return nil, OutcomeError, &TransportError{Err: doErr}
	}

	outcome := OutcomeSuccess
	if res.StatusCode < 200 || res.StatusCode > 299 {
		respErr := &ResponseError{StatusCode: res.StatusCode, Header: res.Header, Body: res.Body}
		if problem, ok := res.Problem(); ok {
			respErr.Problem = &problem
		}
		if respErr.Problem == nil || op.spec.FulfillProblem == nil || !op.spec.FulfillProblem(*respErr.Problem) {
			return nil, OutcomeError, respErr
		}
		outcome = OutcomeReclassified
	}

	value, err := c.transforms.Apply(op.spec.Key, *res)
	if err != nil {
		return nil, OutcomeError, &TransformError{StatusCode: res.StatusCode, Err: err}
	}
	return value, outcome, nil
}

// fail settles a spec as failed and raises the batch alert if no other
// spec of the batch has.
func (c *Client) fail(ctx context.Context, batch *Batch, index int, spec Spec, handle uuid.UUID, err error) {
	fetchErr := &FetchError{Key: spec.Key, Handle: handle, Err: err}
	c.Logger.Warn("fetch failed", "key", spec.Key, "handle", handle, "batch", batch.ID, "error", err)

	if batch.claimAlert() {
		alert := Alert{Severity: SeverityDanger, Message: alertMessage(spec, err)}
		c.alerter.Alert(ctx, alert)
		c.Metrics.RecordAlert()

		options := []func(*domain.Log) error{
			core.LogWithBatchID(batch.ID),
			core.LogWithContext(map[string]any{
				"key":   spec.Key.String(),
				"error": err.Error(),
			}),
		}
		if handle != uuid.Nil {
			options = append(options, core.LogWithFetchID(handle))
		}
		if err := c.WriteLog("ERROR", alert.Message, options...); err != nil {
			c.Logger.Warn("writing alert log", "error", err)
		}
	}
	if handle == uuid.Nil {
		c.Metrics.RecordOutcome(spec.Key.String(), OutcomeError.String())
	}
	batch.settle(index, OutcomeError, fetchErr)
}

// finish records metrics and the journal completion of an operation. Non
// error outcomes also settle the spec; failures are settled by fail so the
// alert is raised before Wait returns.
func (c *Client) finish(op *operation, outcome Outcome, failure error) {
	c.Metrics.RecordFinish(op.spec.Key.String(), outcome.String(), time.Since(op.issuedAt))
	c.journalComplete(op, outcome, failure)
	c.Logger.Debug("fetch settled", "key", op.spec.Key, "handle", op.handle, "outcome", outcome)
	if failure == nil {
		op.batch.settle(op.index, outcome, nil)
	}
}

// Cancel cancels the in-flight fetches of keys. Their responses are discarded
// and their batches settle them as canceled.
func (c *Client) Cancel(keys ...domain.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.cancelLocked(key)
	}
}

// CancelAll cancels every in-flight fetch.
func (c *Client) CancelAll() {
	c.Cancel(c.store.Ledger().Loading()...)
}

func (c *Client) cancelLocked(key domain.Key) {
	ledger := c.store.Ledger()
	if ledger.State(key) != domain.StateLoading {
		return
	}
	ledger.MarkCanceled(key)
	if op, ok := c.inflight[key]; ok {
		op.canceled = true
		op.cancel()
		delete(c.inflight, key)
	}
}

// ResetKey returns key to unstarted and drops its data. An in-flight fetch
// for key is canceled and its response discarded.
func (c *Client) ResetKey(key domain.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if op, ok := c.inflight[key]; ok {
		op.canceled = true
		op.cancel()
		delete(c.inflight, key)
	}
	c.store.ResetKey(key)
}

// Reset returns every key to unstarted and drops all data.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, op := range c.inflight {
		op.canceled = true
		op.cancel()
		delete(c.inflight, key)
	}
	c.store.Reset()
}

// SetData stores value for key without a fetch. The ledger is not touched.
func (c *Client) SetData(key domain.Key, value any) error {
	if !key.Valid() {
		return ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Table().Set(key, value)
	return nil
}

// SetDataProperty updates one dotted property path of the value stored for key.
func (c *Client) SetDataProperty(key domain.Key, prop string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Table().SetProperty(key, prop, value); err != nil {
		return fmt.Errorf("setting %s.%s : %w", key, prop, err)
	}
	return nil
}

// ClearData drops the data of keys without touching the ledger.
func (c *Client) ClearData(keys ...domain.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.store.Table().Clear(key)
	}
}

// Close rejects new batches, flushes the journal and closes it if the
// client opened it. In-flight fetches still settle.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.stopWriter()
	if c.ownsRepo && c.Repo != nil {
		if err := c.Repo.Close(); err != nil {
			return fmt.Errorf("closing journal : %w", err)
		}
	}
	return nil
}
