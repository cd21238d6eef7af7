package mirsal

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/google/martian"
	"github.com/tfkr-ae/mirsal/core"
)

// RequestModifierFunc is a signature for request modifiers. Modifiers run in
// order on every outgoing request after it is built and before it is sent.
// An error fails the spec without a network call.
type RequestModifierFunc func(client *Client, req *http.Request) error

// ResponseModifierFunc is a signature for response modifiers. Modifiers run
// in order inside the transport on every response received.
type ResponseModifierFunc func(client *Client, res *http.Response) error

// reqAdapter binds a RequestModifierFunc to its client so it satisfies
// `martian.RequestModifier`.
type reqAdapter struct {
	client   *Client
	modifier RequestModifierFunc
}

// ModifyRequest implements the `martian.RequestModifier` interface.
func (adapter *reqAdapter) ModifyRequest(req *http.Request) error {
	return adapter.modifier(adapter.client, req)
}

// resAdapter binds a ResponseModifierFunc to its client so it satisfies
// `martian.ResponseModifier`.
type resAdapter struct {
	client   *Client
	modifier ResponseModifierFunc
}

// ModifyResponse implements the `martian.ResponseModifier` interface.
func (adapter *resAdapter) ModifyResponse(res *http.Response) error {
	return adapter.modifier(adapter.client, res)
}

var (
	_ martian.RequestModifier  = (*reqAdapter)(nil)
	_ martian.ResponseModifier = (*resAdapter)(nil)
)

// DefaultRequestModifiers is the request pipeline installed by New.
var DefaultRequestModifiers = []RequestModifierFunc{
	UserAgentModifier,
	AcceptEncodingModifier,
	ExtendedMetadataModifier,
	AuthorizationModifier,
}

// DefaultResponseModifiers is the response pipeline installed by New.
var DefaultResponseModifiers = []ResponseModifierFunc{
	BufferBodyModifier,
	CompressedResponseModifier,
}

// UserAgentModifier sets the configured User-Agent unless the spec set one.
func UserAgentModifier(client *Client, req *http.Request) error {
	if req.Header.Get("User-Agent") == "" && client.Config.UserAgent != "" {
		req.Header.Set("User-Agent", client.Config.UserAgent)
	}
	return nil
}

// AcceptEncodingModifier asks for gzip or brotli bodies. Setting the header
// turns off the transparent gzip handling of net/http, so
// CompressedResponseModifier has to stay in the response pipeline.
func AcceptEncodingModifier(client *Client, req *http.Request) error {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br")
	}
	return nil
}

// ExtendedMetadataModifier sets X-Extended-Metadata when the spec asked for extended metadata.
func ExtendedMetadataModifier(client *Client, req *http.Request) error {
	if extended, ok := core.ExtendedFlagFromContext(req.Context()); ok && extended {
		req.Header.Set("X-Extended-Metadata", "true")
	}
	return nil
}

// AuthorizationModifier attaches the session token as a bearer token when
// the request host is in the auth scope. A spec that sets its own
// Authorization header keeps it.
func AuthorizationModifier(client *Client, req *http.Request) error {
	if client.tokens == nil || req.Header.Get("Authorization") != "" {
		return nil
	}
	if client.Scope != nil && !client.Scope.Allows(req) {
		return nil
	}
	token, ok := client.tokens.Token(req.Context())
	if !ok || strings.TrimSpace(token) == "" {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// BufferBodyModifier reads the entire response body into memory and replaces
// `res.Body` with a new `io.NopCloser` on the full body. It removes the
// `Transfer-Encoding` and updates the `Content-Length` to the buffered length.
func BufferBodyModifier(client *Client, res *http.Response) error {
	if res.Body == nil {
		return nil
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w : %w", ErrReadBody, err)
	}

	setBody(res, responseBody)
	res.TransferEncoding = nil
	return nil
}

// CompressedResponseModifier decompresses gzip and br bodies in place and
// removes the "Content-Encoding" header. Other encodings pass through.
func CompressedResponseModifier(client *Client, res *http.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding")))
	if encoding == "" || res.Body == nil || res.ContentLength == 0 {
		return nil
	}

	var reader io.Reader
	name := encoding
	switch encoding {
	case "gzip":
		gzipReader, err := gzip.NewReader(res.Body)
		if err != nil {
			return fmt.Errorf("creating gzip reader : %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	case "br":
		name = "brotli"
		reader = brotli.NewReader(res.Body)
	default:
		return nil
	}
	defer res.Body.Close()

	decompressedBody, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("reading %s content : %w", name, err)
	}

	setBody(res, decompressedBody)
	res.Header.Del("Content-Encoding")
	res.Uncompressed = true
	return nil
}

func setBody(res *http.Response, body []byte) {
	res.Body = io.NopCloser(bytes.NewReader(body))
	res.ContentLength = int64(len(body))
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	res.Header.Set("Content-Length", fmt.Sprintf("%d", len(body)))
}
