package transport

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// NetworkError is a transport-level failure: no HTTP response was obtained
// or the body could not be read. Timeout is set when the request was
// abandoned because its deadline passed.
type NetworkError struct {
	Method  string
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timed out: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Message is taken from the body when the
// server provided one, otherwise synthesized from the status code.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// NonJSONError reports a response whose content type is not JSON. The body
// is kept verbatim for diagnostics and is never parsed as JSON.
type NonJSONError struct {
	Status      int
	ContentType string
	Text        string
}

func (e *NonJSONError) Error() string {
	return fmt.Sprintf("non-JSON response (HTTP %d, content-type %q): %s", e.Status, e.ContentType, e.Summary())
}

const maxSummaryLen = 200

// Summary returns a short human-readable digest of the body: the HTML
// <title> when there is one, otherwise the first non-blank text.
func (e *NonJSONError) Summary() string {
	doc, err := html.Parse(strings.NewReader(e.Text))
	if err != nil {
		return truncate(strings.TrimSpace(e.Text))
	}

	var title, first string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode && first == "" {
			if s := strings.TrimSpace(n.Data); s != "" {
				first = s
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title != "" {
		return truncate(title)
	}
	return truncate(strings.Join(strings.Fields(first), " "))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxSummaryLen {
		return string(r[:maxSummaryLen]) + "..."
	}
	return s
}

// statusMessage synthesizes an error message from a status code.
func statusMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("HTTP %d %s", status, text)
	}
	return fmt.Sprintf("HTTP %d", status)
}
