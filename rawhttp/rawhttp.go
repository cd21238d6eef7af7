// Package rawhttp renders HTTP messages for the fetch journal: the raw wire
// form with sensitive headers redacted, and a copy with the body formatted
// for reading when it is JSON, XML or HTML.
package rawhttp

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/beevik/etree"
	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/yosssi/gohtml"
)

// Dump is one rendered message. Pretty is empty when the body has no
// readable form.
type Dump struct {
	Raw    []byte
	Pretty string
}

// DumpRequest renders req with body, which the caller has already read.
// The values of the redact headers are masked; req itself is not modified.
func DumpRequest(req *http.Request, body []byte, redact ...string) (Dump, error) {
	clone := req.Clone(req.Context())
	clone.Header = redactHeaders(req.Header, redact...)
	clone.Body = nil

	head, err := httputil.DumpRequest(clone, false)
	if err != nil {
		return Dump{}, fmt.Errorf("dumping request : %w", err)
	}
	return render(head, body, req.Header.Get("Content-Type")), nil
}

// DumpResponse renders res with body, which the caller has already read.
func DumpResponse(res *http.Response, body []byte, redact ...string) (Dump, error) {
	clone := *res
	clone.Header = redactHeaders(res.Header, redact...)
	clone.Body = nil

	head, err := httputil.DumpResponse(&clone, false)
	if err != nil {
		return Dump{}, fmt.Errorf("dumping response : %w", err)
	}
	return render(head, body, res.Header.Get("Content-Type")), nil
}

func render(head, body []byte, contentType string) Dump {
	raw := make([]byte, 0, len(head)+len(body))
	raw = append(raw, head...)
	raw = append(raw, body...)

	dump := Dump{Raw: raw}
	if formatted := Prettify(body, contentType); len(formatted) > 0 {
		dump.Pretty = string(head) + string(formatted)
	}
	return dump
}

// Prettify formats body by its content type, falling back to sniffing the
// bytes when the type is missing or generic. It returns nil when the body
// is empty, is not JSON, XML or HTML, or does not parse.
func Prettify(body []byte, contentType string) []byte {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	switch kindOf(body, contentType) {
	case "json":
		if !gjson.ValidBytes(body) {
			return nil
		}
		return pretty.Pretty(body)
	case "xml":
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
			return nil
		}
		doc.Indent(2)
		var out bytes.Buffer
		if _, err := doc.WriteTo(&out); err != nil {
			return nil
		}
		return out.Bytes()
	case "html":
		out := gohtml.FormatBytes(body)
		if len(out) == 0 || bytes.Equal(out, body) {
			return nil
		}
		return out
	}
	return nil
}

func kindOf(body []byte, contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return "json"
	case mediaType == "application/xml" || mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml"):
		return "xml"
	case mediaType == "text/html":
		return "html"
	}

	detected := mimetype.Detect(body)
	switch {
	case detected.Is("application/json"):
		return "json"
	case detected.Is("text/xml") || detected.Is("application/xml"):
		return "xml"
	case detected.Is("text/html"):
		return "html"
	}
	return ""
}

// redactHeaders returns a copy of header with the values of names masked.
// Absent headers stay absent.
func redactHeaders(header http.Header, names ...string) http.Header {
	redacted := header.Clone()
	if redacted == nil {
		return make(http.Header)
	}
	for _, name := range names {
		values := redacted.Values(name)
		if len(values) == 0 {
			continue
		}
		masked := make([]string, len(values))
		for i := range values {
			masked[i] = redactedValue(values[i])
		}
		redacted[http.CanonicalHeaderKey(name)] = masked
	}
	return redacted
}

// redactedValue keeps the auth scheme, e.g. "Bearer [redacted]".
func redactedValue(value string) string {
	if scheme, _, ok := strings.Cut(value, " "); ok && !strings.Contains(scheme, "=") {
		return scheme + " [redacted]"
	}
	return "[redacted]"
}
