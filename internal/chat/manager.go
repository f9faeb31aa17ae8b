// Package chat implements the visitor-facing conversation: visitor identity,
// persisted history, the send/receive flow against the remote chat API, and
// a renderable view of the transcript.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppg/ppgchat/internal/kv"
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/transport"
)

const (
	DefaultTimeout = 35 * time.Second
	DefaultCap     = 200

	historyKeyPrefix = "ppg_history_"
)

// Outcome reports how a Send ended.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // blank input, nothing happened
	OutcomeBusy                   // another send is in flight
	OutcomeSuccess
	OutcomeHTTPError
	OutcomeNetworkError
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBusy:
		return "busy"
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeTimeout:
		return "timeout"
	}
	return "unknown"
}

// Options configures a Manager. Store and Endpoint are required.
type Options struct {
	// Store holds the visitor key and history. Use a durable store for
	// persistence across restarts or a kv.Memory for session scope.
	Store    kv.Store
	HTTP     transport.Doer
	Endpoint string
	// Timeout bounds one chat request. Zero means DefaultTimeout.
	Timeout time.Duration
	// TypingDelay is an artificial pause after the indicator appears.
	TypingDelay time.Duration
	// Cap is the number of turns retained. Zero means DefaultCap.
	Cap     int
	Printer *locale.Printer
	Logger  *slog.Logger
	// Now and NewVisitorKey are overridable for tests.
	Now           func() time.Time
	NewVisitorKey func(now time.Time) string
}

// State is a snapshot of the Manager for rendering.
type State struct {
	Turns  []Turn
	Typing bool
	Busy   bool
	Input  string
}

// Manager owns one visitor's conversation.
type Manager struct {
	store       kv.Store
	http        transport.Doer
	endpoint    string
	timeout     time.Duration
	typingDelay time.Duration
	cap         int
	printer     *locale.Printer
	logger      *slog.Logger
	now         func() time.Time
	newID       func(time.Time) string

	mu         sync.Mutex
	visitorKey string
	history    []Turn
	loaded     bool
	busy       bool
	typing     bool
	input      string
	subs       map[int]func()
	nextSub    int
}

// New creates a Manager.
func New(opts Options) *Manager {
	m := &Manager{
		store:       opts.Store,
		http:        opts.HTTP,
		endpoint:    opts.Endpoint,
		timeout:     opts.Timeout,
		typingDelay: opts.TypingDelay,
		cap:         opts.Cap,
		printer:     opts.Printer,
		logger:      opts.Logger,
		now:         opts.Now,
		newID:       opts.NewVisitorKey,
		subs:        make(map[int]func()),
	}
	if m.store == nil {
		m.store = kv.NewMemory()
	}
	if m.http == nil {
		m.http = http.DefaultClient
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.cap <= 0 {
		m.cap = DefaultCap
	}
	if m.printer == nil {
		m.printer = locale.Default()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = newVisitorKey
	}
	return m
}

// Subscribe registers fn to be called after every state change. The
// returned function removes the subscription.
func (m *Manager) Subscribe(fn func()) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// State returns a snapshot of the conversation.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked()
	return State{
		Turns:  append([]Turn(nil), m.history...),
		Typing: m.typing,
		Busy:   m.busy,
		Input:  m.input,
	}
}

func (m *Manager) historyKeyLocked() string {
	return historyKeyPrefix + m.visitorKeyLocked()
}

// LoadHistory reads the stored history. Missing or corrupt data yields an
// empty history; the error is logged, never returned.
func (m *Manager) LoadHistory() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.ensureLoadedLocked()
	return append([]Turn(nil), m.history...)
}

func (m *Manager) ensureLoadedLocked() {
	if m.loaded {
		return
	}
	m.loaded = true
	m.history = nil

	raw, ok, err := m.store.Get(m.historyKeyLocked())
	if err != nil {
		m.logger.Debug("chat: reading history failed", "error", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	turns, err := decodeHistory(raw)
	if err != nil {
		m.logger.Debug("chat: stored history is corrupt, starting fresh", "error", err)
		return
	}
	m.history = append([]Turn(nil), tail(turns, m.cap)...)
}

// Append adds turn to the history, trims it to the retention cap and writes
// it back. Storage failures leave the in-memory history intact.
func (m *Manager) Append(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = m.now()
	}

	m.mu.Lock()
	m.ensureLoadedLocked()
	m.history = append(m.history, turn)
	if len(m.history) > m.cap {
		m.history = append([]Turn(nil), tail(m.history, m.cap)...)
	}
	m.persistLocked()
	m.mu.Unlock()

	m.notify()
}

func (m *Manager) persistLocked() {
	data, err := json.Marshal(m.history)
	if err != nil {
		m.logger.Debug("chat: encoding history failed", "error", err)
		return
	}
	if err := m.store.Set(m.historyKeyLocked(), string(data)); err != nil {
		m.logger.Debug("chat: persisting history failed", "error", err)
	}
}

// ClearHistory forgets every stored turn for this visitor.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	if err := m.store.Remove(m.historyKeyLocked()); err != nil {
		m.logger.Debug("chat: clearing history failed", "error", err)
	}
	m.history = nil
	m.loaded = true
	m.mu.Unlock()

	m.notify()
}

// SetInput populates the input box without sending. The FAQ panel uses it
// to hand over a question.
func (m *Manager) SetInput(text string) {
	m.mu.Lock()
	m.input = text
	m.mu.Unlock()
	m.notify()
}

// Input returns the current input box contents.
func (m *Manager) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input
}

// Busy reports whether the send control is disabled.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Submit sends the current input and clears the box. While a send is in
// flight the control is disabled and the input is left untouched.
func (m *Manager) Submit(ctx context.Context) Outcome {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return OutcomeBusy
	}
	text := m.input
	if strings.TrimSpace(text) != "" {
		m.input = ""
	}
	m.mu.Unlock()

	return m.Send(ctx, text)
}

// Send posts text to the chat API and records both sides of the exchange.
// Every failure becomes a localized assistant turn; Send never fails.
func (m *Manager) Send(ctx context.Context, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return OutcomeSkipped
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return OutcomeBusy
	}
	m.busy = true
	m.mu.Unlock()
	defer m.setBusy(false)

	m.Append(Turn{Role: RoleUser, Content: text})

	m.setTyping(true)
	var hideOnce sync.Once
	hide := func() { hideOnce.Do(func() { m.setTyping(false) }) }
	defer hide()

	outcome, reply := m.exchange(ctx, text)

	hide()
	m.Append(Turn{Role: RoleAssistant, Content: reply})
	return outcome
}

func (m *Manager) setBusy(v bool) {
	m.mu.Lock()
	m.busy = v
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) setTyping(v bool) {
	m.mu.Lock()
	m.typing = v
	m.mu.Unlock()
	m.notify()
}

type chatRequest struct {
	Message string `json:"message"`
	UserKey string `json:"userKey"`
}

// exchange performs the request and returns the outcome plus the text to
// show as the assistant's turn.
func (m *Manager) exchange(ctx context.Context, text string) (Outcome, string) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if m.typingDelay > 0 {
		t := time.NewTimer(m.typingDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return m.networkFailure(ctx, ctx.Err())
		case <-t.C:
		}
	}

	body, err := transport.Do(ctx, m.http, transport.Request{
		Method: http.MethodPost,
		URL:    m.endpoint,
		Body:   chatRequest{Message: text, UserKey: m.VisitorKey()},
	})
	if err != nil {
		return m.networkFailure(ctx, err)
	}

	if !body.OK() {
		m.logger.Warn("chat: request rejected", "status", body.Status)
		if msg := body.ErrorMessage(); msg != "" {
			return OutcomeHTTPError, m.printer.T(locale.HTTPError, msg)
		}
		return OutcomeHTTPError, m.printer.T(locale.HTTPErrorStatus, body.Status)
	}

	reply := strings.TrimSpace(body.String("reply"))
	if reply == "" {
		return OutcomeSuccess, m.printer.T(locale.NoReply)
	}
	return OutcomeSuccess, reply
}

func (m *Manager) networkFailure(ctx context.Context, err error) (Outcome, string) {
	var ne *transport.NetworkError
	timeout := transport.IsTimeout(ctx, err) || (errors.As(err, &ne) && ne.Timeout)
	if timeout {
		m.logger.Warn("chat: request timed out", "timeout", m.timeout)
		return OutcomeTimeout, m.printer.T(locale.Timeout)
	}
	m.logger.Warn("chat: request failed", "error", err)
	return OutcomeNetworkError, m.printer.T(locale.NetworkError)
}
