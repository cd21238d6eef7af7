package mirsal

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

// Outcome is how one spec of a batch settled.
type Outcome uint8

const (
	OutcomePending      Outcome = iota // not settled yet
	OutcomeNoop                        // skipped: resend was off and the key had data or was loading
	OutcomeSuccess                     // value stored
	OutcomeReclassified                // problem response accepted and stored
	OutcomeError                       // failed, the batch fails with it
	OutcomeSuperseded                  // a newer fetch for the key was issued first
	OutcomeCanceled                    // canceled by Cancel, Reset or the caller's context
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeNoop:
		return "noop"
	case OutcomeSuccess:
		return "success"
	case OutcomeReclassified:
		return "reclassified"
	case OutcomeError:
		return "error"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Batch is the combined result of one Request call. It fails as soon as
// one of its specs fails and succeeds once every spec has settled without
// failing. Superseded and canceled specs settle silently.
type Batch struct {
	ID   uuid.UUID
	Keys []domain.Key

	mu       sync.Mutex
	outcomes []Outcome
	pending  int
	err      error
	alerted  bool
	done     chan struct{}
	settled  chan struct{}
	isDone   bool
}

func newBatch(id uuid.UUID, specs []Spec) *Batch {
	b := &Batch{
		ID:       id,
		Keys:     make([]domain.Key, len(specs)),
		outcomes: make([]Outcome, len(specs)),
		pending:  len(specs),
		done:     make(chan struct{}),
		settled:  make(chan struct{}),
	}
	for i, spec := range specs {
		b.Keys[i] = spec.Key
	}
	if b.pending == 0 {
		b.isDone = true
		close(b.done)
		close(b.settled)
	}
	return b
}

// settle records the outcome of spec i. A non-nil err is a failure.
func (b *Batch) settle(i int, outcome Outcome, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcomes[i] != OutcomePending {
		return
	}
	b.outcomes[i] = outcome
	b.pending--

	if err != nil && b.err == nil {
		b.err = err
		b.closeDone()
	}
	if b.pending == 0 {
		b.closeDone()
		close(b.settled)
	}
}

func (b *Batch) closeDone() {
	if !b.isDone {
		b.isDone = true
		close(b.done)
	}
}

// claimAlert reports whether the caller is the first failure of the batch
// and so the one that alerts.
func (b *Batch) claimAlert() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.alerted {
		return false
	}
	b.alerted = true
	return true
}

// Done is closed at the first failure or once every spec has settled.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Settled is closed once every spec has settled, failures included.
func (b *Batch) Settled() <-chan struct{} {
	return b.settled
}

// Err returns the first failure, a *FetchError, or nil.
func (b *Batch) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.err
}

// Outcomes returns the outcome of each spec in request order.
func (b *Batch) Outcomes() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	outcomes := make([]Outcome, len(b.outcomes))
	copy(outcomes, b.outcomes)
	return outcomes
}

// Wait blocks until Done and returns Err, or returns ctx.Err() if ctx ends first.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return b.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
