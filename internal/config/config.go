package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	ScopeDurable = "durable"
	ScopeSession = "session"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Chat    ChatConfig
	FAQ     FAQConfig
	Admin   AdminConfig
	History HistoryConfig
	Storage StorageConfig
	Locale  string
	Log     LogConfig
}

type ChatConfig struct {
	APIURL      string
	Timeout     string
	TypingDelay string
}

type FAQConfig struct {
	APIURL   string
	AutoSend bool
}

type AdminConfig struct {
	APIBase string
}

type HistoryConfig struct {
	Cap   int
	Scope string
}

type StorageConfig struct {
	Backend string
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Chat: ChatConfig{
			APIURL:      "https://ppg-chat-api.2551prommin.workers.dev/",
			Timeout:     "35s",
			TypingDelay: "0s",
		},
		FAQ: FAQConfig{
			APIURL: "https://ppgadmin.2551prommin.workers.dev",
		},
		Admin: AdminConfig{
			APIBase: "https://ppgadmin.2551prommin.workers.dev",
		},
		History: HistoryConfig{
			Cap:   200,
			Scope: ScopeDurable,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: defaultDataDir(),
		},
		Locale: "th",
		Log:    LogConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "ppgchat-data"
		}
	}
	return filepath.Join(dir, "ppgchat")
}

// Load reads configuration from the YAML file at
// $XDG_CONFIG_HOME/ppgchat/config.yaml (or $PPG_CONFIG when set), then
// applies PPG_* environment overrides.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	switch c.History.Scope {
	case ScopeDurable, ScopeSession:
	default:
		return fmt.Errorf("history.scope must be %q or %q, got %q", ScopeDurable, ScopeSession, c.History.Scope)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of file, sqlite, memory; got %q", c.Storage.Backend)
	}
	if c.History.Cap <= 0 {
		return fmt.Errorf("history.cap must be positive, got %d", c.History.Cap)
	}
	if c.Chat.APIURL == "" {
		return fmt.Errorf("chat.api_url is required")
	}
	return nil
}

// ChatTimeout parses chat.timeout, falling back to 35s.
func (c Config) ChatTimeout() time.Duration {
	return parseDuration("chat.timeout", c.Chat.Timeout, 35*time.Second)
}

// TypingDelay parses chat.typing_delay, falling back to no delay.
func (c Config) TypingDelay() time.Duration {
	return parseDuration("chat.typing_delay", c.Chat.TypingDelay, 0)
}

func parseDuration(key, raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback, "error", err)
		return fallback
	}
	return d
}
