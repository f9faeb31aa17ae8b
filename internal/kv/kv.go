// Package kv is the client-side key-value storage capability used by the
// chat, FAQ and admin components. It plays the role browser localStorage
// and sessionStorage play for the web widget: small string values, read
// and written synchronously, whose failures callers are expected to swallow.
package kv

import (
	"errors"
)

var (
	// ErrUnavailable is returned when the backing storage cannot be used at all.
	ErrUnavailable = errors.New("kv: storage unavailable")
	// ErrQuotaExceeded is returned when a write would exceed the store's size limit.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Store abstracts a string key-value storage scope.
// Get reports ok=false for a missing key; that is not an error.
type Store interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
	Remove(key string) error
}

// Prefixed returns a Store that transparently prefixes every key. Components
// use it to keep disjoint key namespaces inside one shared scope.
func Prefixed(s Store, prefix string) Store {
	return prefixed{s: s, prefix: prefix}
}

type prefixed struct {
	s      Store
	prefix string
}

func (p prefixed) Get(key string) (string, bool, error) { return p.s.Get(p.prefix + key) }
func (p prefixed) Set(key, val string) error            { return p.s.Set(p.prefix+key, val) }
func (p prefixed) Remove(key string) error              { return p.s.Remove(p.prefix + key) }
