// Package transform maps raw API responses to domain values, one function
// per resource key. Keys without a registered function use Identity.
package transform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tfkr-ae/mirsal/domain"
)

// Response is the raw payload handed to a transform. For a reclassified
// failure it is the error response itself.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Problem parses the body as an API problem.
func (r Response) Problem() (domain.Problem, bool) {
	return domain.ParseProblem(r.Body)
}

// IsJSON reports whether the body is JSON, going by Content-Type and then
// by sniffing the body.
func (r Response) IsJSON() bool {
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return true
	}
	if len(r.Body) == 0 {
		return false
	}
	return mimetype.Detect(r.Body).Is("application/json")
}

// Func turns a raw response into the value stored for a key.
type Func func(Response) (any, error)

// Registry holds the transform of each key.
type Registry struct {
	mu    sync.RWMutex
	funcs map[domain.Key]Func
}

// New returns an empty registry where every key uses Identity.
func New() *Registry {
	return &Registry{funcs: make(map[domain.Key]Func)}
}

// Register sets the transform for key, replacing any previous one.
func (r *Registry) Register(key domain.Key, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs[key] = fn
}

// Lookup returns the transform registered for key.
func (r *Registry) Lookup(key domain.Key) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[key]
	return fn, ok
}

// Apply runs the transform for key, or Identity when none is registered.
func (r *Registry) Apply(key domain.Key, resp Response) (any, error) {
	fn, ok := r.Lookup(key)
	if !ok {
		fn = Identity
	}
	value, err := fn(resp)
	if err != nil {
		return nil, fmt.Errorf("transforming %s : %w", key, err)
	}
	return value, nil
}

// Identity decodes JSON bodies into generic values and keeps every other
// body as a byte slice. An empty body yields nil.
func Identity(resp Response) (any, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	if resp.IsJSON() {
		var v any
		if err := json.Unmarshal(resp.Body, &v); err != nil {
			return nil, fmt.Errorf("decoding json : %w", err)
		}
		return v, nil
	}
	raw := make([]byte, len(resp.Body))
	copy(raw, resp.Body)
	return raw, nil
}
