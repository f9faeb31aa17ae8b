package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/ppg/ppgchat/internal/faq"
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/transport"
	"github.com/ppg/ppgchat/internal/ui"
)

// Editor is the admin panel's view model. It owns the displayed list and
// the status lines, re-fetches the list after every mutation, and turns
// every failure into a localized message.
type Editor struct {
	client  *Client
	printer *locale.Printer
	logger  *slog.Logger

	mu       sync.Mutex
	entries  []faq.Entry
	status   string
	loginMsg string
	editing  string
}

// NewEditor creates an Editor over c.
func NewEditor(c *Client, p *locale.Printer) *Editor {
	if p == nil {
		p = locale.Default()
	}
	return &Editor{client: c, printer: p, logger: c.logger}
}

func (e *Editor) setStatus(s string) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *Editor) setLoginMsg(s string) {
	e.mu.Lock()
	e.loginMsg = s
	e.mu.Unlock()
}

// Status returns the editor status line.
func (e *Editor) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LoginMessage returns the login form's message line.
func (e *Editor) LoginMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loginMsg
}

// Entries returns the displayed list.
func (e *Editor) Entries() []faq.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]faq.Entry(nil), e.entries...)
}

// Authenticated reports whether the editor (rather than the login form) is shown.
func (e *Editor) Authenticated() bool { return e.client.LoggedIn() }

// Init restores a stored session, if any, and loads the list. A rejected
// token logs the user out with a session-expired message.
func (e *Editor) Init(ctx context.Context) {
	if e.client.APIBase() == "" {
		e.setLoginMsg(e.printer.T(locale.AdminNoAPIBase))
		return
	}
	if !e.client.LoggedIn() {
		return
	}
	e.setStatus(e.printer.T(locale.AdminLoading))
	entries, err := e.client.Bootstrap(ctx)
	if errors.Is(err, ErrLoginRequired) {
		e.clear()
		e.setLoginMsg(e.printer.T(locale.AdminSessionExpired))
		e.setStatus("")
		return
	}
	if err != nil {
		e.setStatus(e.describe(err, locale.AdminLoadFailed))
		return
	}
	e.show(entries)
	e.setStatus(e.printer.T(locale.AdminLoaded, len(entries)))
}

// Login signs in and loads the list. It reports success.
func (e *Editor) Login(ctx context.Context, password string) bool {
	e.setLoginMsg("")
	e.setStatus("")
	if _, err := e.client.Login(ctx, password); err != nil {
		e.setLoginMsg(e.describe(err, locale.AdminLoginFailed))
		return false
	}
	e.setLoginMsg(e.printer.T(locale.AdminLoginOK))
	e.Reload(ctx)
	return true
}

// Logout clears the session and the displayed list.
func (e *Editor) Logout() {
	e.client.Logout()
	e.clear()
	e.setStatus(e.printer.T(locale.AdminLoggedOut))
	e.setLoginMsg("")
}

func (e *Editor) clear() {
	e.mu.Lock()
	e.entries = nil
	e.editing = ""
	e.mu.Unlock()
}

func (e *Editor) show(entries []faq.Entry) {
	e.mu.Lock()
	e.entries = entries
	e.mu.Unlock()
}

// Reload re-fetches the list.
func (e *Editor) Reload(ctx context.Context) bool {
	e.setStatus(e.printer.T(locale.AdminLoading))
	n, err := e.refetch(ctx)
	if err != nil {
		e.setStatus(e.describe(err, locale.AdminLoadFailed))
		return false
	}
	e.setStatus(e.printer.T(locale.AdminLoaded, n))
	return true
}

func (e *Editor) refetch(ctx context.Context) (int, error) {
	entries, err := e.client.ListFAQ(ctx)
	if err != nil {
		return 0, err
	}
	e.show(entries)
	return len(entries), nil
}

// mutate runs op and, on success, re-fetches the list and sets the status
// to done(). It reports whether both steps succeeded.
func (e *Editor) mutate(ctx context.Context, op func() error, done func() string) bool {
	e.setStatus(e.printer.T(locale.AdminSaving))
	if err := op(); err != nil {
		e.setStatus(e.describe(err, locale.AdminSaveFailed))
		return false
	}
	if _, err := e.refetch(ctx); err != nil {
		e.setStatus(e.describe(err, locale.AdminLoadFailed))
		return false
	}
	e.setStatus(done())
	return true
}

func (e *Editor) message(key locale.Key, args ...any) func() string {
	return func() string { return e.printer.T(key, args...) }
}

// Add creates an entry.
func (e *Editor) Add(ctx context.Context, entry faq.Entry) bool {
	return e.mutate(ctx, func() error {
		_, err := e.client.AddFAQ(ctx, entry)
		return err
	}, e.message(locale.AdminAdded))
}

// Edit marks the entry with id as being edited in the view.
func (e *Editor) Edit(id string) {
	e.mu.Lock()
	e.editing = id
	e.mu.Unlock()
}

// Update saves changes to the entry with id.
func (e *Editor) Update(ctx context.Context, id string, entry faq.Entry) bool {
	ok := e.mutate(ctx, func() error {
		_, err := e.client.UpdateFAQ(ctx, id, entry)
		return err
	}, e.message(locale.AdminUpdated))
	if ok {
		e.Edit("")
	}
	return ok
}

// Delete removes the entry with id.
func (e *Editor) Delete(ctx context.Context, id string) bool {
	return e.mutate(ctx, func() error {
		return e.client.DeleteFAQ(ctx, id)
	}, e.message(locale.AdminDeleted))
}

// Import replaces the whole list with the JSON array in text.
func (e *Editor) Import(ctx context.Context, text string) bool {
	if text == "" {
		text = "[]"
	}
	var entries []faq.Entry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		e.setStatus(e.printer.T(locale.AdminInvalidJSON))
		return false
	}
	var count int
	return e.mutate(ctx, func() error {
		n, err := e.client.ReplaceFAQ(ctx, entries)
		count = n
		return err
	}, func() string { return e.printer.T(locale.AdminSaved, count) })
}

// Export returns the displayed list as indented JSON.
func (e *Editor) Export() string {
	entries := e.Entries()
	if entries == nil {
		entries = []faq.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		e.logger.Debug("admin: encoding entries failed", "error", err)
		return "[]"
	}
	return string(data)
}

// describe maps err to the text shown to the admin.
func (e *Editor) describe(err error, fallback locale.Key) string {
	var (
		ve *ValidationError
		nj *transport.NonJSONError
		ne *transport.NetworkError
		ae *AuthError
		pe *APIError
	)
	switch {
	case errors.As(err, &ve):
		switch ve.Field {
		case "password":
			return e.printer.T(locale.AdminPasswordRequired)
		case "api_base":
			return e.printer.T(locale.AdminNoAPIBase)
		case "entry":
			return e.printer.T(locale.AdminFieldsRequired)
		}
		return ve.Error()
	case errors.Is(err, ErrNoToken):
		return e.printer.T(locale.AdminNoToken)
	case errors.As(err, &nj):
		return e.printer.T(locale.AdminNonJSON)
	case errors.As(err, &ne):
		return e.printer.T(locale.AdminNetworkError)
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.As(err, &pe) && pe.Message != "":
		return pe.Message
	}
	return e.printer.T(fallback)
}

// View renders the login form or, when signed in, the editable list.
func (e *Editor) View() *ui.Node {
	e.mu.Lock()
	entries := append([]faq.Entry(nil), e.entries...)
	status, loginMsg, editing := e.status, e.loginMsg, e.editing
	e.mu.Unlock()

	authed := e.Authenticated()
	login := ui.El("div",
		ui.El("input").ID("pw").Attr("type", "password"),
		ui.El("button", ui.Text("Login")).ID("loginBtn").Attr("type", "button"),
		ui.El("div", ui.Text(loginMsg)).ID("loginMsg"),
	).ID("loginCard").Class("card")
	if authed {
		login.Attr("hidden", "")
	}

	list := ui.El("div").ID("faq-rows").Class("faq-rows")
	for _, en := range entries {
		row := ui.El("div",
			ui.El("div", ui.Text(en.Q)).Class("q"),
			ui.El("div", ui.Text(en.A)).Class("a"),
			ui.If(en.Tag != "", ui.El("span", ui.Text(en.Tag)).Class("tag")),
			ui.El("button", ui.Text(e.printer.T(locale.AdminEdit))).Class("edit").Attr("data-id", en.ID),
			ui.El("button", ui.Text(e.printer.T(locale.AdminDelete))).Class("delete").Attr("data-id", en.ID),
		).Class("faq-row").Attr("data-id", en.ID)
		if editing != "" && en.ID == editing {
			row.Class("editing")
		}
		list.Append(row)
	}

	editor := ui.El("div",
		ui.El("div", ui.Text(status)).ID("status"),
		list,
		ui.El("button", ui.Text("Logout")).ID("logoutBtn").Attr("type", "button"),
	).ID("editorCard").Class("card")
	if !authed {
		editor.Attr("hidden", "")
	}

	return ui.El("div", login, editor).ID("admin").Class("admin")
}
