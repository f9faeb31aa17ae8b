package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppg/ppgchat/internal/config"
	"github.com/ppg/ppgchat/internal/kv"
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/storage"
)

// env is what every subcommand needs: loaded config, the opened stores
// and the printer for the selected language.
type env struct {
	cfg     config.Config
	printer *locale.Printer

	// durable backs the admin session and, for history.scope=durable, the
	// chat visitor key and history.
	durable kv.Store
	closer  io.Closer
}

// chatStore returns the scope the conversation lives in.
func (e *env) chatStore() kv.Store {
	if e.cfg.History.Scope == config.ScopeSession {
		return kv.NewMemory()
	}
	return e.durable
}

func (e *env) Close() error {
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

var loadConfig = config.Load

func newRootCmd() *cobra.Command {
	var (
		noColor  bool
		logLevel string
		lang     string
	)
	e := &env{}

	root := &cobra.Command{
		Use:           "ppgchat",
		Short:         "PPG customer chat and FAQ admin client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if lang != "" {
				cfg.Locale = lang
			}
			setupLogging(cmd.ErrOrStderr(), cfg.Log.Level)

			e.cfg = cfg
			e.printer = locale.New(cfg.Locale)
			e.durable, e.closer, err = openDurable(cfg.Storage)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.Close()
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&lang, "lang", "", "message language (th, en)")

	root.AddCommand(
		newChatCmd(e),
		newHistoryCmd(e),
		newFAQCmd(e),
		newAdminCmd(e),
		newConfigCmd(),
		newDevBackendCmd(),
	)
	return root
}

func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

// openDurable opens the configured durable store.
func openDurable(sc config.StorageConfig) (kv.Store, io.Closer, error) {
	switch sc.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	case config.BackendSQLite:
		s, err := storage.Open(sc.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage: %w", err)
		}
		return s, s, nil
	default:
		if err := os.MkdirAll(sc.DataDir, 0o700); err != nil {
			slog.Warn("could not create data dir, storage writes will fail", "dir", sc.DataDir, "error", err)
		}
		return kv.OpenFile(filepath.Join(sc.DataDir, "store.json")), nil, nil
	}
}
