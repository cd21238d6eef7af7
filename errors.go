package mirsal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

var (
	// ErrClosed is returned for batches requested after Close.
	ErrClosed = errors.New("client closed")

	// ErrInvalidKey is returned when a spec names a key outside the catalog.
	ErrInvalidKey = errors.New("invalid resource key")

	// ErrBuildRequest is returned when the outgoing request cannot be built. No network call is made.
	ErrBuildRequest = errors.New("cannot build request")

	// ErrReadBody is returned when there is an error with reading the response body.
	ErrReadBody = errors.New("failed to read the body")

	// ErrHandlerDefined is returned when an option sets a handler that is already set.
	ErrHandlerDefined = errors.New("handler already defined")
)

// FetchError is the failure of one spec in a batch.
type FetchError struct {
	Key    domain.Key
	Handle uuid.UUID // uuid.Nil when no network call was made
	Err    error     // *ResponseError, *BodyError, *TransportError, *TransformError or a sentinel
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s : %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ResponseError is a non-2xx response.
type ResponseError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Problem    *domain.Problem // set when the body is a well-formed problem
}

func (e *ResponseError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("status %d : %s", e.StatusCode, e.Problem.Error())
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Unwrap exposes the problem so callers can use errors.As with domain.Problem.
func (e *ResponseError) Unwrap() error {
	if e.Problem == nil {
		return nil
	}
	return *e.Problem
}

// BodyError is a response whose body could not be read or decoded. The
// status line arrived, so it is not a transport failure.
type BodyError struct {
	StatusCode int
	Err        error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("status %d : %v", e.StatusCode, e.Err)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// TransportError is a failure where no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("no response : %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransformError is a 2xx response whose body could not be transformed.
type TransformError struct {
	StatusCode int
	Err        error
}

func (e *TransformError) Error() string {
	return e.Err.Error()
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
