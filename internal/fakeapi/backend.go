// Package fakeapi is an in-process stand-in for the hosted chat worker and
// the FAQ admin worker. It serves the same routes and JSON shapes and is
// used by tests and by the dev-backend command.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ppg/ppgchat/internal/faq"
)

const maxBodySize = 1 << 20 // 1MB

// ChatRequest is one message received on the chat route.
type ChatRequest struct {
	Message string `json:"message"`
	UserKey string `json:"userKey"`
}

// Options configures a Backend.
type Options struct {
	// Password accepted by /api/login.
	Password string
	// Reply produces the chat answer. Defaults to echoing the message.
	Reply  func(req ChatRequest) string
	FAQ    []faq.Entry
	Logger *slog.Logger
}

// Backend holds the fake's mutable state. All methods are safe for
// concurrent use.
type Backend struct {
	password string
	reply    func(ChatRequest) string
	logger   *slog.Logger

	mu         sync.Mutex
	entries    []faq.Entry
	tokens     map[string]bool
	chats      []ChatRequest
	chatStatus int
	chatBody   string
	chatDelay  time.Duration
}

// New creates a Backend seeded with opts.FAQ. Seed entries without an id
// get one.
func New(opts Options) *Backend {
	b := &Backend{
		password: opts.Password,
		reply:    opts.Reply,
		logger:   opts.Logger,
		tokens:   make(map[string]bool),
	}
	if b.reply == nil {
		b.reply = func(req ChatRequest) string { return "echo: " + req.Message }
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	for _, e := range opts.FAQ {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		b.entries = append(b.entries, e)
	}
	return b
}

// Handler returns the routes of both workers on one router. The chat route
// is served at "/" and "/chat".
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(limitBody)

	r.Post("/", b.handleChat)
	r.Post("/chat", b.handleChat)

	r.Get("/api/public_faq", b.handlePublicFAQ)
	r.Post("/api/login", b.handleLogin)
	r.Get("/api/health", b.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(b.validToken))
		r.Get("/api/faq", b.handleListFAQ)
		r.Post("/api/faq", b.handleReplaceFAQ)
		r.Post("/api/faq/add", b.handleAddFAQ)
		r.Post("/api/faq/update", b.handleUpdateFAQ)
		r.Post("/api/faq/delete", b.handleDeleteFAQ)
	})

	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// FailChat makes the chat route answer with status and a raw JSON body
// until reset with FailChat(0, "").
func (b *Backend) FailChat(status int, body string) {
	b.mu.Lock()
	b.chatStatus, b.chatBody = status, body
	b.mu.Unlock()
}

// DelayChat holds every chat answer for d, or until the client gives up.
func (b *Backend) DelayChat(d time.Duration) {
	b.mu.Lock()
	b.chatDelay = d
	b.mu.Unlock()
}

// ChatRequests returns the chat messages received so far.
func (b *Backend) ChatRequests() []ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ChatRequest(nil), b.chats...)
}

// Entries returns the stored FAQ.
func (b *Backend) Entries() []faq.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]faq.Entry(nil), b.entries...)
}

// RevokeTokens invalidates every issued token.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	b.tokens = make(map[string]bool)
	b.mu.Unlock()
}

func (b *Backend) validToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[token]
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	b.mu.Lock()
	b.chats = append(b.chats, req)
	status, body, delay := b.chatStatus, b.chatBody, b.chatDelay
	b.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-r.Context().Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		httpError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": b.reply(req)})
}

func (b *Backend) handlePublicFAQ(w http.ResponseWriter, r *http.Request) {
	entries := b.Entries()
	public := make([]faq.Entry, len(entries))
	for i, e := range entries {
		e.ID = ""
		public[i] = e
	}
	writeJSON(w, http.StatusOK, map[string]any{"faq": public})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if b.password == "" || !equalConstantTime(req.Password, b.password) {
		httpError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token := uuid.New().String()
	b.mu.Lock()
	b.tokens[token] = true
	b.mu.Unlock()
	b.logger.Debug("fakeapi: issued token")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	n := len(b.entries)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"count": n,
		"time":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *Backend) handleListFAQ(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"faq": b.Entries()})
}

func (b *Backend) handleReplaceFAQ(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FAQ []faq.Entry `json:"faq"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.FAQ == nil {
		httpError(w, http.StatusBadRequest, "faq must be an array")
		return
	}
	for i := range req.FAQ {
		if req.FAQ[i].ID == "" {
			req.FAQ[i].ID = uuid.New().String()
		}
	}

	b.mu.Lock()
	b.entries = req.FAQ
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": len(req.FAQ)})
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (faq.Entry, bool) {
	var e faq.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return e, false
	}
	if strings.TrimSpace(e.Q) == "" || strings.TrimSpace(e.A) == "" {
		httpError(w, http.StatusBadRequest, "q and a are required")
		return e, false
	}
	return e, true
}

func (b *Backend) handleAddFAQ(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	e.ID = uuid.New().String()

	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, e)
}

func (b *Backend) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeEntry(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].ID == e.ID {
			b.entries[i] = e
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	httpError(w, http.StatusNotFound, "faq %q not found", e.ID)
}

func (b *Backend) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		httpError(w, http.StatusBadRequest, "id is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].ID == req.ID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": req.ID})
			return
		}
	}
	httpError(w, http.StatusNotFound, "faq %q not found", req.ID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
