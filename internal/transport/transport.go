// Package transport is the HTTP glue shared by the chat, FAQ and admin
// clients: JSON requests, content-type aware response reading, and the
// error taxonomy (network, HTTP status, non-JSON body).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
)

const maxBodySize = 4 << 20 // 4MB

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Body is a fully read HTTP response.
type Body struct {
	Status      int
	ContentType string
	Raw         []byte
	// IsJSON reports whether the response declared a JSON content type.
	IsJSON bool
	// Value is the decoded JSON document. It is nil for non-JSON bodies and
	// an empty object when a JSON body failed to decode.
	Value any
}

// OK reports whether the status is 2xx.
func (b *Body) OK() bool { return b.Status >= 200 && b.Status < 300 }

// Field walks nested JSON objects along path and returns the value found,
// or nil.
func (b *Body) Field(path ...string) any {
	cur := b.Value
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}

// String is Field for string leaves; anything else yields "".
func (b *Body) String(path ...string) string {
	s, _ := b.Field(path...).(string)
	return s
}

// Decode unmarshals the raw body into v. Non-JSON bodies are refused.
func (b *Body) Decode(v any) error {
	if !b.IsJSON {
		return b.nonJSON()
	}
	if err := json.Unmarshal(b.Raw, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (b *Body) nonJSON() *NonJSONError {
	return &NonJSONError{Status: b.Status, ContentType: b.ContentType, Text: string(b.Raw)}
}

// ErrorMessage extracts the server-provided error text. It understands
// {"error":"..."}, {"error":{"message":"..."}}, {"message":"..."} and
// {"detail":{"error":{"message":"..."}}}. It returns "" when none is present.
func (b *Body) ErrorMessage() string {
	candidates := [][]string{
		{"error"},
		{"error", "message"},
		{"message"},
		{"detail", "error", "message"},
		{"detail"},
	}
	for _, path := range candidates {
		if s := strings.TrimSpace(b.String(path...)); s != "" {
			return s
		}
	}
	return ""
}

// Err converts a non-2xx body into an error. Non-JSON bodies become
// *NonJSONError, JSON bodies *HTTPError. 2xx bodies yield nil.
func (b *Body) Err() error {
	if b.OK() {
		return nil
	}
	if !b.IsJSON {
		return b.nonJSON()
	}
	msg := b.ErrorMessage()
	if msg == "" {
		msg = statusMessage(b.Status)
	}
	return &HTTPError{Status: b.Status, Message: msg}
}

// Request describes one JSON call.
type Request struct {
	Method string
	URL    string
	// Body is marshalled as JSON when non-nil.
	Body   any
	Header http.Header
}

// Do performs req with d and reads the full response. It returns an error
// only for transport failures (*NetworkError) or request construction
// problems; HTTP status is left for the caller to judge via Body.Err.
func Do(ctx context.Context, d Doer, req Request) (*Body, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := d.Do(httpReq)
	if err != nil {
		return nil, networkError(ctx, req, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, networkError(ctx, req, err)
	}

	ct := resp.Header.Get("Content-Type")
	b := &Body{
		Status:      resp.StatusCode,
		ContentType: ct,
		Raw:         raw,
		IsJSON:      isJSONContentType(ct),
	}
	if b.IsJSON {
		if err := json.Unmarshal(raw, &b.Value); err != nil || b.Value == nil {
			b.Value = map[string]any{}
		}
	}
	return b, nil
}

func networkError(ctx context.Context, req Request, err error) *NetworkError {
	return &NetworkError{
		Method:  req.Method,
		URL:     req.URL,
		Timeout: IsTimeout(ctx, err),
		Err:     err,
	}
}

// IsTimeout reports whether err (or ctx) signals an expired deadline.
func IsTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// JoinURL appends path to base, tolerating a trailing slash on base.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
