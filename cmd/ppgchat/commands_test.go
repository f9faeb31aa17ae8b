package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppg/ppgchat/internal/fakeapi"
	"github.com/ppg/ppgchat/internal/faq"
)

const testPassword = "s3cret"

func setupEnv(t *testing.T) (*fakeapi.Backend, string) {
	t.Helper()
	backend := fakeapi.New(fakeapi.Options{
		Password: testPassword,
		FAQ: []faq.Entry{
			{ID: "pay", Q: "How do I pay?", A: "QR or card", Tag: "payment"},
			{ID: "hours", Q: "Opening hours", A: "9 to 6"},
		},
	})
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("PPG_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("PPG_STORAGE_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("PPG_STORAGE_BACKEND", "file")
	t.Setenv("PPG_HISTORY_SCOPE", "durable")
	t.Setenv("PPG_CHAT_API_URL", srv.URL+"/")
	t.Setenv("PPG_FAQ_API_URL", srv.URL)
	t.Setenv("PPG_ADMIN_API", srv.URL)
	t.Setenv("PPG_LOCALE", "en")
	t.Setenv("PPG_LOG_LEVEL", "error")

	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
	return backend, dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestChat_OneShot(t *testing.T) {
	backend, _ := setupEnv(t)

	out, err := run(t, "", "chat", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, out, "ppg> echo: hello there")

	reqs := backend.ChatRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hello there", reqs[0].Message)
	assert.True(t, strings.HasPrefix(reqs[0].UserKey, "user_"))

	out, err = run(t, "", "history", "show")
	require.NoError(t, err)
	assert.Contains(t, out, reqs[0].UserKey)
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "echo: hello there")
}

func TestChat_VisitorKeyIsStable(t *testing.T) {
	backend, _ := setupEnv(t)

	_, err := run(t, "", "chat", "one")
	require.NoError(t, err)
	_, err = run(t, "", "chat", "two")
	require.NoError(t, err)

	reqs := backend.ChatRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].UserKey, reqs[1].UserKey)
}

func TestChat_ServerError(t *testing.T) {
	backend, _ := setupEnv(t)
	backend.FailChat(500, `{"error":"boom"}`)

	out, err := run(t, "", "chat", "hi")
	require.Error(t, err)
	assert.Contains(t, out, "boom")
}

func TestChat_REPL(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "hi\n\n/history\n/clear\n/quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Hi! How can I help you?")
	assert.Contains(t, out, "ppg> echo: hi")
	assert.Contains(t, out, "history cleared")

	out, err = run(t, "", "history", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No history.")
}

func TestChat_SessionScopeForgets(t *testing.T) {
	setupEnv(t)
	t.Setenv("PPG_HISTORY_SCOPE", "session")

	_, err := run(t, "", "chat", "hi")
	require.NoError(t, err)

	out, err := run(t, "", "history", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No history.")
}

func TestChat_SQLiteBackend(t *testing.T) {
	_, dir := setupEnv(t)
	t.Setenv("PPG_STORAGE_BACKEND", "sqlite")

	_, err := run(t, "", "chat", "kept in sqlite")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "data", "ppgchat.db"))
	require.NoError(t, err)

	out, err := run(t, "", "history", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "kept in sqlite")
}

func TestFAQ_Commands(t *testing.T) {
	backend, _ := setupEnv(t)

	out, err := run(t, "", "faq", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. How do I pay? [payment]")
	assert.Contains(t, out, "2. Opening hours")

	out, err = run(t, "", "faq", "list", "--tag", "PAYMENT")
	require.NoError(t, err)
	assert.Contains(t, out, "How do I pay?")
	assert.NotContains(t, out, "Opening hours")

	out, err = run(t, "", "faq", "search", "hours")
	require.NoError(t, err)
	assert.Contains(t, out, "Opening hours")
	assert.NotContains(t, out, "How do I pay?")

	out, err = run(t, "", "faq", "search", "refund")
	require.NoError(t, err)
	assert.Contains(t, out, "No results")

	out, err = run(t, "", "faq", "ask", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "ppg> echo: Opening hours")
	assert.Len(t, backend.ChatRequests(), 1)

	_, err = run(t, "", "faq", "ask", "9")
	assert.Error(t, err)
}

func TestAdmin_Lifecycle(t *testing.T) {
	backend, _ := setupEnv(t)

	_, err := run(t, "", "admin", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	_, err = run(t, "", "admin", "login", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")

	out, err := run(t, testPassword+"\n", "admin", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")

	out, err = run(t, "", "admin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pay  How do I pay? [payment]")
	assert.Contains(t, out, "Loaded 2 entries")

	out, err = run(t, "", "admin", "add", "--q", "Refunds?", "--a", "Within 7 days")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry added")
	require.Len(t, backend.Entries(), 3)

	_, err = run(t, "", "admin", "add", "--q", "no answer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	out, err = run(t, "", "admin", "update", "hours", "--q", "Opening hours", "--a", "10 to 7")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry updated")

	out, err = run(t, "", "admin", "delete", "pay")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry deleted")
	for _, e := range backend.Entries() {
		assert.NotEqual(t, "pay", e.ID)
	}

	out, err = run(t, "", "admin", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"a": "10 to 7"`)

	out, err = run(t, `[{"q":"only","a":"one"}]`, "admin", "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved ✅ (1 entries)")
	assert.Len(t, backend.Entries(), 1)

	out, err = run(t, "", "admin", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, "", "admin", "list")
	assert.Error(t, err)
}

func TestAdmin_ExpiredSession(t *testing.T) {
	backend, _ := setupEnv(t)
	_, err := run(t, "", "admin", "login", "--password", testPassword)
	require.NoError(t, err)
	backend.RevokeTokens()

	_, err = run(t, "", "admin", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session expired")
}

func TestAdmin_Health(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "", "admin", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: true")
}

func TestConfig_SetAndShow(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "config", "set", "history.cap", "50")
	require.NoError(t, err)

	out, err := run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "history.cap = 50")

	_, err = run(t, "", "config", "set", "history.cap", "many")
	assert.Error(t, err)
	_, err = run(t, "", "config", "set", "no.such.key", "x")
	assert.Error(t, err)
}

func TestReadPassword_NonTerminal(t *testing.T) {
	pw, err := readPassword(strings.NewReader("hunter2\r\nrest"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	pw, err = readPassword(strings.NewReader("no newline"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "no newline", pw)
}
