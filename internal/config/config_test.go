package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when loading an empty config file.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "# empty\n")

	cfg, err := loadWith(openFileBackend(path))
	require.NoError(t, err)

	assert.Equal(t, "https://ppg-chat-api.2551prommin.workers.dev/", cfg.Chat.APIURL)
	assert.Equal(t, 35*time.Second, cfg.ChatTimeout())
	assert.Equal(t, time.Duration(0), cfg.TypingDelay())
	assert.Equal(t, 200, cfg.History.Cap)
	assert.Equal(t, ScopeDurable, cfg.History.Scope)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "th", cfg.Locale)
	assert.False(t, cfg.FAQ.AutoSend)
}

// TestYAMLParsing verifies nested and flat YAML keys are both read.
func TestYAMLParsing(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
chat:
  api_url: "http://localhost:8787/chat"
  timeout: 10s
faq:
  api_url: "http://localhost:8787"
  auto_send: true
history:
  cap: 80
  scope: session
storage.backend: sqlite
storage.data_dir: /tmp/ppgchat-test
locale: en
`)

	cfg, err := loadWith(openFileBackend(path))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8787/chat", cfg.Chat.APIURL)
	assert.Equal(t, 10*time.Second, cfg.ChatTimeout())
	assert.Equal(t, "http://localhost:8787", cfg.FAQ.APIURL)
	assert.True(t, cfg.FAQ.AutoSend)
	assert.Equal(t, 80, cfg.History.Cap)
	assert.Equal(t, ScopeSession, cfg.History.Scope)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ppgchat-test", cfg.Storage.DataDir)
	assert.Equal(t, "en", cfg.Locale)
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "history:\n  cap: 80\n")

	t.Setenv("PPG_HISTORY_CAP", "120")
	t.Setenv("PPG_ADMIN_API", "https://admin.example.com")
	t.Setenv("PPG_CHAT_TIMEOUT", "not-a-duration")

	cfg, err := loadWith(openFileBackend(path))
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.History.Cap)
	assert.Equal(t, "https://admin.example.com", cfg.Admin.APIBase)
	assert.Equal(t, "35s", cfg.Chat.Timeout, "invalid env duration is ignored")
}

func TestValidateRejectsUnknownScope(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "history:\n  scope: forever\n")

	_, err := loadWith(openFileBackend(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.scope")
}

func TestValidateRejectsNonPositiveCap(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "history:\n  cap: 0\n")

	_, err := loadWith(openFileBackend(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.cap")
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := defaults()
	cfg.Chat.Timeout = "soon"
	assert.Equal(t, 35*time.Second, cfg.ChatTimeout())
}

func TestSetKey_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	b := openFileBackend(path)
	require.NoError(t, setKey(b, "history.cap", "80"))
	require.NoError(t, setKey(b, "faq.auto_send", "true"))
	require.NoError(t, setKey(b, "chat.timeout", "20s"))

	cfg, err := loadWith(openFileBackend(path))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.History.Cap)
	assert.True(t, cfg.FAQ.AutoSend)
	assert.Equal(t, 20*time.Second, cfg.ChatTimeout())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "history:\n")
}

func TestSetKey_Validation(t *testing.T) {
	b := openFileBackend(filepath.Join(t.TempDir(), "config.yaml"))

	assert.Error(t, setKey(b, "history.cap", "many"))
	assert.Error(t, setKey(b, "faq.auto_send", "perhaps"))
	assert.Error(t, setKey(b, "chat.timeout", "later"))

	err := setKey(b, "no.such.key", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestShowAllCoversEveryKey(t *testing.T) {
	infos := ShowAll(defaults())
	require.Len(t, infos, len(ValidKeys()))
	for _, info := range infos {
		assert.NotEmpty(t, info.EnvVar, info.Key)
	}
}
