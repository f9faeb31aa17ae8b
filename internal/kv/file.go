package kv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is a durable store persisted as a flat JSON object. Every write
// rewrites the whole file, which is fine for the handful of small values
// the clients keep.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// OpenFile loads (or lazily creates) the JSON store at path. An unreadable
// or corrupt file is logged and treated as empty so the caller keeps working.
func OpenFile(path string) *File {
	f := &File{path: path, data: make(map[string]string)}
	f.load()
	return f
}

func (f *File) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("kv: could not read store file, starting empty", "path", f.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &f.data); err != nil {
		slog.Warn("kv: could not parse store file, starting empty", "path", f.path, "error", err)
		f.data = make(map[string]string)
	}
}

func (f *File) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%w: creating store dir: %v", ErrUnavailable, err)
	}
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(key, val string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = val
	if err := f.save(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.save()
}

// Path returns the backing file location.
func (f *File) Path() string { return f.path }
