package ui

import (
	"html"
	"io"
	"strings"
)

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "header": true, "footer": true,
	"ul": true, "ol": true, "li": true, "form": true, "h1": true, "h2": true, "h3": true,
}

// HTML renders n as an HTML fragment. Text and attribute values are escaped.
func HTML(n *Node) string {
	var b strings.Builder
	writeHTML(&b, n)
	return b.String()
}

// WriteHTML renders n to w.
func WriteHTML(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, HTML(n))
	return err
}

func writeHTML(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.trusted != "" {
		b.WriteString(n.trusted)
		return
	}
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		if a.Val == "" && isBoolAttr(a.Key) {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if voidElements[n.Tag] {
		return
	}
	for _, c := range n.Children {
		writeHTML(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func isBoolAttr(key string) bool {
	switch key {
	case "disabled", "hidden", "open", "checked", "readonly":
		return true
	}
	return false
}

// PlainText renders n for a terminal: block elements end a line, hidden
// elements are skipped, markdown fragments print their source.
func PlainText(n *Node) string {
	var b strings.Builder
	writeText(&b, n)
	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimRight(l, " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(b *strings.Builder, n *Node) {
	if n == nil || n.Has("hidden") {
		return
	}
	if n.Tag == "" || n.trusted != "" {
		b.WriteString(n.Text)
		return
	}
	if n.Tag == "br" {
		b.WriteByte('\n')
		return
	}
	if n.Tag == "input" || n.Tag == "textarea" {
		if v := n.Get("value"); v != "" {
			b.WriteString("> " + v)
		}
	}
	if label := n.Get("aria-label"); label != "" && len(n.Children) == 0 {
		b.WriteString("[" + label + "]")
	}
	for _, c := range n.Children {
		writeText(b, c)
	}
	if blockElements[n.Tag] {
		b.WriteByte('\n')
	} else if n.Tag == "button" || n.Tag == "span" {
		b.WriteByte(' ')
	}
}
