package ui

import (
	"bytes"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	policy = bluemonday.UGCPolicy()
)

// Markdown formats src (FAQ answers, assistant replies) as sanitized HTML.
// Single newlines become line breaks. Raw HTML in src is dropped by the
// converter and anything that slips through is removed by the sanitizer.
// The source text is kept for text rendering.
func Markdown(src string) *Node {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		slog.Debug("ui: markdown conversion failed, rendering as text", "error", err)
		return El("div", Text(src)).Class("md")
	}
	safe := policy.SanitizeBytes(buf.Bytes())
	return &Node{
		Tag:      "div",
		Attrs:    []Attr{{Key: "class", Val: "md"}},
		Children: []*Node{{trusted: string(bytes.TrimSpace(safe)), Text: src}},
	}
}
