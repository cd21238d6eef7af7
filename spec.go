package mirsal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/store"
)

// Spec describes one fetch in a batch.
type Spec struct {
	Key    domain.Key
	Method string
	URL    string // absolute, or relative to Config.APIBase
	Header http.Header
	Body   []byte

	// Extended asks the server for extended metadata.
	Extended bool
	// Resend issues the fetch even when the key has data or is loading.
	// When false, such a fetch is a no-op.
	Resend bool
	// Clear drops the key's data before the fetch is issued.
	Clear bool

	// FulfillProblem reclassifies a failed response carrying a problem as a
	// success when it returns true. The problem response is then transformed
	// and stored like any other.
	FulfillProblem func(domain.Problem) bool
	// Success runs after the value is stored, with a snapshot of every stored value.
	Success func(store.Snapshot)
	// ProblemToAlert picks the alert message for a problem. Returning ""
	// falls back to the problem's own message.
	ProblemToAlert func(domain.Problem) string

	err error
}

// SpecOption configures a Spec.
type SpecOption func(*Spec) error

// NewSpec returns a GET spec for key with resend and clear enabled. An option
// that fails makes the spec fail when it is requested, without a network call.
func NewSpec(key domain.Key, url string, options ...SpecOption) Spec {
	spec := Spec{
		Key:    key,
		Method: http.MethodGet,
		URL:    url,
		Header: make(http.Header),
		Resend: true,
		Clear:  true,
	}
	for _, option := range options {
		if err := option(&spec); err != nil {
			spec.err = fmt.Errorf("applying option on %s spec : %w", key, err)
			break
		}
	}
	return spec
}

// WithMethod sets the HTTP method. The default is GET.
func WithMethod(method string) SpecOption {
	return func(spec *Spec) error {
		spec.Method = method
		return nil
	}
}

// WithBody sets a raw request body.
func WithBody(body []byte) SpecOption {
	return func(spec *Spec) error {
		spec.Body = body
		return nil
	}
}

// WithJSONBody encodes v as the body and sets the content type.
func WithJSONBody(v any) SpecOption {
	return func(spec *Spec) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding body : %w", err)
		}
		spec.Body = body
		if spec.Header == nil {
			spec.Header = make(http.Header)
		}
		spec.Header.Set("Content-Type", "application/json")
		return nil
	}
}

// WithHeader adds a request header. The User-Agent, Accept-Encoding and
// Authorization modifiers leave a header set here alone.
func WithHeader(name, value string) SpecOption {
	return func(spec *Spec) error {
		if spec.Header == nil {
			spec.Header = make(http.Header)
		}
		spec.Header.Add(name, value)
		return nil
	}
}

// WithExtended asks the server for extended metadata.
func WithExtended() SpecOption {
	return func(spec *Spec) error {
		spec.Extended = true
		return nil
	}
}

// WithResend controls whether a fetch is issued when the key already has
// data or is loading. With resend false such a fetch is a no-op.
func WithResend(resend bool) SpecOption {
	return func(spec *Spec) error {
		spec.Resend = resend
		return nil
	}
}

// WithClear controls whether existing data for the key is removed when the
// fetch is issued. The default clears it.
func WithClear(clear bool) SpecOption {
	return func(spec *Spec) error {
		spec.Clear = clear
		return nil
	}
}

// WithFulfillProblem sets the predicate that accepts a problem response as
// success. Only well-formed problems reach fn.
func WithFulfillProblem(fn func(domain.Problem) bool) SpecOption {
	return func(spec *Spec) error {
		spec.FulfillProblem = fn
		return nil
	}
}

// WithSuccess sets a callback run with a snapshot of the table after the
// fetch is committed.
func WithSuccess(fn func(store.Snapshot)) SpecOption {
	return func(spec *Spec) error {
		spec.Success = fn
		return nil
	}
}

// WithProblemToAlert maps a problem to the alert message. An empty result
// falls back to the problem message.
func WithProblemToAlert(fn func(domain.Problem) string) SpecOption {
	return func(spec *Spec) error {
		spec.ProblemToAlert = fn
		return nil
	}
}

// ProblemCodes returns a FulfillProblem predicate accepting the given problem codes.
func ProblemCodes(codes ...float64) func(domain.Problem) bool {
	return func(problem domain.Problem) bool {
		for _, code := range codes {
			if problem.Is(code) {
				return true
			}
		}
		return false
	}
}
