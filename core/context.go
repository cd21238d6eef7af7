package core

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/mirsal/domain"
)

type contextKey string

const (
	// FetchIDKey is the context key for the operation handle (uuid.UUID) of a fetch
	FetchIDKey contextKey = "FetchID"
	// BatchIDKey is the context key for the ID (uuid.UUID) of the batch that issued the fetch
	BatchIDKey contextKey = "BatchID"
	// ResourceKeyKey is the context key for the resource key (domain.Key) being fetched
	ResourceKeyKey contextKey = "ResourceKey"
	// ExtendedKey is the context key for the flag (bool) asking for extended metadata
	ExtendedKey contextKey = "Extended"
	// RequestTimeKey is the context key for the request timestamp (time.Time)
	RequestTimeKey contextKey = "RequestTime"
)

// ContextWithFetchID returns a new request with the fetch ID in the context
func ContextWithFetchID(req *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), FetchIDKey, id)
	return req.WithContext(ctx)
}

// FetchIDFromContext returns the fetch ID from the context if it exists
func FetchIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(FetchIDKey).(uuid.UUID)
	return id, ok
}

// ContextWithBatchID returns a new request with the batch ID in the context
func ContextWithBatchID(req *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), BatchIDKey, id)
	return req.WithContext(ctx)
}

// BatchIDFromContext returns the batch ID from the context if it exists
func BatchIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(BatchIDKey).(uuid.UUID)
	return id, ok
}

// ContextWithResourceKey returns a new request with the resource key in the context
func ContextWithResourceKey(req *http.Request, key domain.Key) *http.Request {
	ctx := context.WithValue(req.Context(), ResourceKeyKey, key)
	return req.WithContext(ctx)
}

// ResourceKeyFromContext returns the resource key from the context if it exists
func ResourceKeyFromContext(ctx context.Context) (domain.Key, bool) {
	key, ok := ctx.Value(ResourceKeyKey).(domain.Key)
	return key, ok
}

// ContextWithExtendedFlag returns a new request with the extended metadata flag in the context
func ContextWithExtendedFlag(req *http.Request, extended bool) *http.Request {
	ctx := context.WithValue(req.Context(), ExtendedKey, extended)
	return req.WithContext(ctx)
}

// ExtendedFlagFromContext returns the extended metadata flag from the context if it exists
func ExtendedFlagFromContext(ctx context.Context) (bool, bool) {
	extended, ok := ctx.Value(ExtendedKey).(bool)
	return extended, ok
}

// ContextWithRequestTime returns a new request with the request time in the context
func ContextWithRequestTime(req *http.Request, requestTime time.Time) *http.Request {
	ctx := context.WithValue(req.Context(), RequestTimeKey, requestTime)
	return req.WithContext(ctx)
}

// RequestTimeFromContext returns the request time from the context if it exists
func RequestTimeFromContext(ctx context.Context) (time.Time, bool) {
	timestamp, ok := ctx.Value(RequestTimeKey).(time.Time)
	return timestamp, ok
}
