package faq

import "strings"

// Entry is one question/answer pair. ID is assigned by the admin API and is
// absent from the public feed.
type Entry struct {
	ID  string `json:"id,omitempty"`
	Q   string `json:"q"`
	A   string `json:"a"`
	Tag string `json:"tag,omitempty"`
}

// Key identifies the entry within a list for expand/collapse state.
func (e Entry) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Q
}

// Matches reports whether query occurs, ignoring case, in the question,
// answer or tag.
func (e Entry) Matches(query string) bool {
	query = strings.ToLower(query)
	for _, field := range []string{e.Q, e.A, e.Tag} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Filter returns the entries matching query, preserving order. An empty or
// blank query returns entries unchanged.
func Filter(entries []Entry, query string) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}
