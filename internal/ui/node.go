// Package ui describes screens as a tree of nodes instead of mutating a DOM.
// Components render their state into a *Node; renderers turn the tree into
// escaped HTML or terminal text. All escaping happens here.
package ui

import (
	"slices"
	"strings"
)

// Attr is one element attribute. Order is preserved when rendering.
type Attr struct {
	Key, Val string
}

// Node is an element, a text leaf, or a sanitized HTML fragment.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	// Text is the content of a text leaf (Tag == "").
	Text string

	// trusted holds sanitized HTML produced by Markdown; never set from
	// caller-provided strings directly.
	trusted string
}

// El creates an element.
func El(tag string, children ...*Node) *Node {
	return &Node{Tag: tag, Children: compact(children)}
}

// Text creates a text leaf; its content is escaped on output.
func Text(s string) *Node {
	return &Node{Text: s}
}

func compact(ns []*Node) []*Node {
	out := ns[:0:0]
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Attr sets (or replaces) an attribute and returns n.
func (n *Node) Attr(key, val string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return n
}

// Class appends CSS classes.
func (n *Node) Class(classes ...string) *Node {
	cur := n.Get("class")
	parts := strings.Fields(cur)
	for _, c := range classes {
		for _, f := range strings.Fields(c) {
			if !slices.Contains(parts, f) {
				parts = append(parts, f)
			}
		}
	}
	return n.Attr("class", strings.Join(parts, " "))
}

// ID sets the id attribute.
func (n *Node) ID(id string) *Node { return n.Attr("id", id) }

// Append adds children, skipping nils.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, compact(children)...)
	return n
}

// If returns n when cond holds, nil otherwise; nil children are dropped.
func If(cond bool, n *Node) *Node {
	if cond {
		return n
	}
	return nil
}

// Get returns an attribute value or "".
func (n *Node) Get(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Has reports whether the attribute is present.
func (n *Node) Has(key string) bool {
	for _, a := range n.Attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// HasClass reports whether class is set on n.
func (n *Node) HasClass(class string) bool {
	return slices.Contains(strings.Fields(n.Get("class")), class)
}

// Find returns every node in the tree, depth first, matching pred.
func (n *Node) Find(pred func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(c *Node) {
		if pred(c) {
			out = append(out, c)
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(n)
	return out
}

// ByClass returns all descendants (including n) carrying class.
func (n *Node) ByClass(class string) []*Node {
	return n.Find(func(c *Node) bool { return c.HasClass(class) })
}

// ByID returns the first node with the given id, or nil.
func (n *Node) ByID(id string) *Node {
	found := n.Find(func(c *Node) bool { return c.Get("id") == id })
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// TextContent concatenates all text below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(c *Node) {
		if c.Tag == "" {
			b.WriteString(c.Text)
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}
