// Package faq is the visitor-side FAQ panel: it lazily fetches the public
// FAQ feed, filters it locally, and hands a chosen question to the chat.
package faq

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ppg/ppgchat/internal/chat"
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/transport"
)

const publicPath = "/api/public_faq"

// InputHook receives a question to place in the chat input box.
type InputHook interface {
	SetInput(text string)
}

// Sender sends a question straight to the chat. *chat.Manager implements it.
type Sender interface {
	Send(ctx context.Context, text string) chat.Outcome
}

// Status is the panel's load state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

// Options configures a Panel. BaseURL is the FAQ API root; the public feed
// is read from BaseURL + "/api/public_faq".
type Options struct {
	HTTP     transport.Doer
	BaseURL  string
	Printer  *locale.Printer
	Logger   *slog.Logger
	Input    InputHook
	Sender   Sender
	AutoSend bool
}

// Panel owns the FAQ cache and the panel's view state.
type Panel struct {
	http     transport.Doer
	url      string
	printer  *locale.Printer
	logger   *slog.Logger
	input    InputHook
	sender   Sender
	autoSend bool

	group singleflight.Group

	mu       sync.Mutex
	entries  []Entry
	loaded   bool
	status   Status
	open     bool
	query    string
	tag      string
	expanded map[string]bool
}

// New creates a Panel.
func New(opts Options) *Panel {
	p := &Panel{
		http:     opts.HTTP,
		url:      transport.JoinURL(opts.BaseURL, publicPath),
		printer:  opts.Printer,
		logger:   opts.Logger,
		input:    opts.Input,
		sender:   opts.Sender,
		autoSend: opts.AutoSend,
		expanded: make(map[string]bool),
	}
	if p.http == nil {
		p.http = http.DefaultClient
	}
	if p.printer == nil {
		p.printer = locale.Default()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

type publicFeed struct {
	FAQ []Entry `json:"faq"`
}

// Load fetches the public feed and replaces the cache. On any failure the
// cache is emptied, the status becomes StatusFailed and nil is returned.
func (p *Panel) Load(ctx context.Context) []Entry {
	p.mu.Lock()
	p.status = StatusLoading
	p.mu.Unlock()

	entries, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.Warn("faq: loading entries failed", "url", p.url, "error", err)
		p.entries = nil
		p.loaded = false
		p.status = StatusFailed
		return nil
	}
	p.entries = entries
	p.loaded = true
	p.status = StatusReady
	p.logger.Debug("faq: entries loaded", "count", len(entries))
	return append([]Entry(nil), entries...)
}

func (p *Panel) fetch(ctx context.Context) ([]Entry, error) {
	body, err := transport.Do(ctx, p.http, transport.Request{Method: http.MethodGet, URL: p.url})
	if err != nil {
		return nil, err
	}
	if err := body.Err(); err != nil {
		return nil, err
	}
	var feed publicFeed
	if err := body.Decode(&feed); err != nil {
		return nil, fmt.Errorf("reading faq feed: %w", err)
	}
	return feed.FAQ, nil
}

// Entries returns the cached set.
func (p *Panel) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Entry(nil), p.entries...)
}

// Status returns the load state.
func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Filter matches query against the cached set without fetching.
func (p *Panel) Filter(query string) []Entry {
	return Filter(p.Entries(), query)
}

// FilterTag narrows the cached set to entries mentioning tag.
func (p *Panel) FilterTag(tag string) []Entry {
	return Filter(p.Entries(), tag)
}

// SetQuery changes the search box contents shown by View.
func (p *Panel) SetQuery(query string) {
	p.mu.Lock()
	p.query = query
	p.mu.Unlock()
}

// SetTag selects a tag chip; an empty tag clears it.
func (p *Panel) SetTag(tag string) {
	p.mu.Lock()
	p.tag = tag
	p.mu.Unlock()
}

// Visible returns the cached set narrowed by the current tag and query.
func (p *Panel) Visible() []Entry {
	p.mu.Lock()
	entries, tag, query := p.entries, p.tag, p.query
	p.mu.Unlock()
	return Filter(Filter(entries, tag), query)
}

// Open shows the panel, fetching the feed if nothing is cached yet.
// Concurrent opens share a single request.
func (p *Panel) Open(ctx context.Context) {
	p.mu.Lock()
	p.open = true
	need := !p.loaded
	p.mu.Unlock()
	if !need {
		return
	}

	p.group.Do("load", func() (any, error) {
		p.mu.Lock()
		done := p.loaded
		p.mu.Unlock()
		if !done {
			p.Load(ctx)
		}
		return nil, nil
	})
}

// Refresh re-fetches the feed regardless of the cache.
func (p *Panel) Refresh(ctx context.Context) []Entry {
	v, _, _ := p.group.Do("refresh", func() (any, error) {
		return p.Load(ctx), nil
	})
	entries, _ := v.([]Entry)
	return append([]Entry(nil), entries...)
}

// Close hides the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

// IsOpen reports whether the panel is shown.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Toggle expands or collapses the entry with the given key.
func (p *Panel) Toggle(key string) {
	p.mu.Lock()
	p.expanded[key] = !p.expanded[key]
	p.mu.Unlock()
}

// Select puts the entry's question in the chat input and closes the panel.
// Nothing is sent.
func (p *Panel) Select(e Entry) {
	p.Close()
	if p.input != nil {
		p.input.SetInput(e.Q)
	}
}

// Ask is the "ask this question" action. With AutoSend the question is sent
// right away; otherwise it behaves like Select and reports OutcomeSkipped.
func (p *Panel) Ask(ctx context.Context, e Entry) chat.Outcome {
	if !p.autoSend || p.sender == nil {
		p.Select(e)
		return chat.OutcomeSkipped
	}
	p.Close()
	q := strings.TrimSpace(e.Q)
	return p.sender.Send(ctx, q)
}
