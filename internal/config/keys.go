package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "chat.api_url", typ: kString, env: "PPG_CHAT_API_URL",
		apply:   func(cfg *Config, v any) { cfg.Chat.APIURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.APIURL },
	},
	{
		key: "chat.timeout", typ: kDuration, env: "PPG_CHAT_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Chat.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Timeout },
	},
	{
		key: "chat.typing_delay", typ: kDuration, env: "PPG_CHAT_TYPING_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Chat.TypingDelay = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.TypingDelay },
	},
	{
		key: "faq.api_url", typ: kString, env: "PPG_FAQ_API_URL",
		apply:   func(cfg *Config, v any) { cfg.FAQ.APIURL = v.(string) },
		extract: func(cfg Config) any { return cfg.FAQ.APIURL },
	},
	{
		key: "faq.auto_send", typ: kBool, env: "PPG_FAQ_AUTO_SEND",
		apply:   func(cfg *Config, v any) { cfg.FAQ.AutoSend = v.(bool) },
		extract: func(cfg Config) any { return cfg.FAQ.AutoSend },
	},
	{
		key: "admin.api_base", typ: kString, env: "PPG_ADMIN_API",
		apply:   func(cfg *Config, v any) { cfg.Admin.APIBase = v.(string) },
		extract: func(cfg Config) any { return cfg.Admin.APIBase },
	},
	{
		key: "history.cap", typ: kInt, env: "PPG_HISTORY_CAP",
		apply:   func(cfg *Config, v any) { cfg.History.Cap = v.(int) },
		extract: func(cfg Config) any { return cfg.History.Cap },
	},
	{
		key: "history.scope", typ: kString, env: "PPG_HISTORY_SCOPE",
		apply:   func(cfg *Config, v any) { cfg.History.Scope = v.(string) },
		extract: func(cfg Config) any { return cfg.History.Scope },
	},
	{
		key: "storage.backend", typ: kString, env: "PPG_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "storage.data_dir", typ: kString, env: "PPG_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "locale", typ: kString, env: "PPG_LOCALE",
		apply:   func(cfg *Config, v any) { cfg.Locale = v.(string) },
		extract: func(cfg Config) any { return cfg.Locale },
	},
	{
		key: "log.level", typ: kString, env: "PPG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString, kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kDuration:
			if _, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, raw)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
