// Package admin is the authenticated FAQ administration client: token
// lifecycle, CRUD calls against the admin API, and an editor view model
// that keeps the displayed list in step with the server.
package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ppg/ppgchat/internal/faq"
	"github.com/ppg/ppgchat/internal/kv"
	"github.com/ppg/ppgchat/internal/transport"
)

const (
	TokenKey   = "ppg_admin_token"
	APIBaseKey = "ppg_admin_api"
)

// Session is an authenticated admin session.
type Session struct {
	Token   string
	APIBase string
}

// Options configures a Client. BaseURL overrides and replaces the stored
// API base; when empty the stored one is used.
type Options struct {
	BaseURL string
	Store   kv.Store
	HTTP    transport.Doer
	Logger  *slog.Logger
}

// Client talks to the admin API. The token lives in Store so it survives
// restarts; a failing store degrades to an in-memory token.
type Client struct {
	store  kv.Store
	http   transport.Doer
	logger *slog.Logger

	mu    sync.Mutex
	base  string
	token string
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{store: opts.Store, http: opts.HTTP, logger: opts.Logger}
	if c.store == nil {
		c.store = kv.NewMemory()
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if opts.BaseURL != "" {
		c.SetAPIBase(opts.BaseURL)
	} else if v, ok, err := c.store.Get(APIBaseKey); err == nil && ok {
		c.base = normalizeBase(v)
	}
	if v, ok, err := c.store.Get(TokenKey); err != nil {
		c.logger.Debug("admin: reading token failed", "error", err)
	} else if ok {
		c.token = v
	}
	return c
}

func normalizeBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

// SetAPIBase changes and persists the API base URL.
func (c *Client) SetAPIBase(base string) {
	base = normalizeBase(base)
	c.mu.Lock()
	c.base = base
	c.mu.Unlock()
	if err := c.store.Set(APIBaseKey, base); err != nil {
		c.logger.Debug("admin: persisting api base failed", "error", err)
	}
}

// APIBase returns the API base URL without a trailing slash.
func (c *Client) APIBase() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// Token returns the current token or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// LoggedIn reports whether a token is held.
func (c *Client) LoggedIn() bool { return c.Token() != "" }

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	var err error
	if token == "" {
		err = c.store.Remove(TokenKey)
	} else {
		err = c.store.Set(TokenKey, token)
	}
	if err != nil {
		c.logger.Debug("admin: persisting token failed", "error", err)
	}
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*transport.Body, error) {
	base := c.APIBase()
	if base == "" {
		return nil, &ValidationError{Field: "api_base", Message: "not configured"}
	}
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	b, err := transport.Do(ctx, c.http, transport.Request{
		Method: method,
		URL:    base + path,
		Body:   body,
		Header: header,
	})
	if err != nil {
		c.logger.Warn("admin: request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	return b, nil
}

// authed performs an authenticated call and converts every non-2xx or
// non-JSON answer to *APIError.
func (c *Client) authed(ctx context.Context, method, path string, body any) (*transport.Body, error) {
	b, err := c.call(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := apiError(b); err != nil {
		c.logger.Warn("admin: request rejected", "method", method, "path", path, "status", b.Status)
		return nil, err
	}
	return b, nil
}

func apiError(b *transport.Body) error {
	if !b.IsJSON {
		if b.OK() && len(bytes.TrimSpace(b.Raw)) == 0 {
			return nil
		}
		nj := &transport.NonJSONError{Status: b.Status, ContentType: b.ContentType, Text: string(b.Raw)}
		return &APIError{Status: b.Status, Message: "non-JSON response: " + nj.Summary(), Err: nj}
	}
	err := b.Err()
	if err == nil {
		return nil
	}
	var he *transport.HTTPError
	if errors.As(err, &he) {
		return &APIError{Status: he.Status, Message: he.Message, Err: err}
	}
	return &APIError{Status: b.Status, Message: err.Error(), Err: err}
}

// Login exchanges the password for a token and stores it.
func (c *Client) Login(ctx context.Context, password string) (Session, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return Session{}, &ValidationError{Field: "password", Message: "required"}
	}

	b, err := c.call(ctx, http.MethodPost, "/api/login", map[string]string{"password": password})
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return Session{}, err
		}
		return Session{}, &AuthError{Err: err}
	}
	if !b.IsJSON {
		nj := &transport.NonJSONError{Status: b.Status, ContentType: b.ContentType, Text: string(b.Raw)}
		return Session{}, &AuthError{Status: b.Status, Err: nj}
	}
	if !b.OK() {
		return Session{}, &AuthError{Status: b.Status, Message: b.ErrorMessage()}
	}
	token := strings.TrimSpace(b.String("token"))
	if token == "" {
		return Session{}, &AuthError{Status: b.Status, Err: ErrNoToken}
	}

	c.setToken(token)
	c.logger.Info("admin: logged in", "api", c.APIBase())
	return Session{Token: token, APIBase: c.APIBase()}, nil
}

// Logout forgets the token. The server is not contacted.
func (c *Client) Logout() {
	c.setToken("")
}

// Health reports the API's health document. It needs no token.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	b, err := c.call(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	if err := apiError(b); err != nil {
		return nil, err
	}
	doc, _ := b.Value.(map[string]any)
	return doc, nil
}

type faqList struct {
	FAQ []faq.Entry `json:"faq"`
}

// ListFAQ returns every entry in server order.
func (c *Client) ListFAQ(ctx context.Context) ([]faq.Entry, error) {
	b, err := c.authed(ctx, http.MethodGet, "/api/faq", nil)
	if err != nil {
		return nil, err
	}
	var list faqList
	if err := b.Decode(&list); err != nil {
		return nil, err
	}
	if list.FAQ == nil {
		list.FAQ = []faq.Entry{}
	}
	return list.FAQ, nil
}

func validEntry(e faq.Entry) error {
	if strings.TrimSpace(e.Q) == "" || strings.TrimSpace(e.A) == "" {
		return &ValidationError{Field: "entry", Message: "question and answer are required"}
	}
	return nil
}

// entryResult reads an "entry or status" response. When the server echoes
// the entry it wins; otherwise the submitted one is returned.
func entryResult(b *transport.Body, sent faq.Entry) faq.Entry {
	var got faq.Entry
	if err := b.Decode(&got); err == nil && got.Q != "" {
		return got
	}
	var wrapped struct {
		Entry faq.Entry `json:"entry"`
	}
	if err := b.Decode(&wrapped); err == nil && wrapped.Entry.Q != "" {
		return wrapped.Entry
	}
	return sent
}

// AddFAQ creates an entry. The id is assigned by the server.
func (c *Client) AddFAQ(ctx context.Context, e faq.Entry) (faq.Entry, error) {
	if err := validEntry(e); err != nil {
		return faq.Entry{}, err
	}
	e.ID = ""
	b, err := c.authed(ctx, http.MethodPost, "/api/faq/add", e)
	if err != nil {
		return faq.Entry{}, err
	}
	return entryResult(b, e), nil
}

// UpdateFAQ replaces the entry with the given id.
func (c *Client) UpdateFAQ(ctx context.Context, id string, e faq.Entry) (faq.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return faq.Entry{}, &ValidationError{Field: "id", Message: "required"}
	}
	if err := validEntry(e); err != nil {
		return faq.Entry{}, err
	}
	e.ID = id
	b, err := c.authed(ctx, http.MethodPost, "/api/faq/update", e)
	if err != nil {
		return faq.Entry{}, err
	}
	return entryResult(b, e), nil
}

// DeleteFAQ removes the entry with the given id.
func (c *Client) DeleteFAQ(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}
	_, err := c.authed(ctx, http.MethodPost, "/api/faq/delete", map[string]string{"id": id})
	return err
}

// ReplaceFAQ overwrites the whole list in one call and returns the count the
// server reports (or len(entries) when it reports none).
func (c *Client) ReplaceFAQ(ctx context.Context, entries []faq.Entry) (int, error) {
	if entries == nil {
		entries = []faq.Entry{}
	}
	b, err := c.authed(ctx, http.MethodPost, "/api/faq", faqList{FAQ: entries})
	if err != nil {
		return 0, err
	}
	if n, ok := b.Field("count").(float64); ok {
		return int(n), nil
	}
	return len(entries), nil
}

// Bootstrap validates a stored token by listing the FAQ. A rejected token is
// discarded and ErrLoginRequired returned; other failures keep the token.
func (c *Client) Bootstrap(ctx context.Context) ([]faq.Entry, error) {
	if !c.LoggedIn() {
		return nil, ErrLoginRequired
	}
	entries, err := c.ListFAQ(ctx)
	if errors.Is(err, ErrUnauthorized) {
		c.logger.Info("admin: stored token rejected, logging out")
		c.Logout()
		return nil, fmt.Errorf("%w: %w", ErrLoginRequired, err)
	}
	return entries, err
}
