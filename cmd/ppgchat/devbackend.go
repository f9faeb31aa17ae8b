package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppg/ppgchat/internal/fakeapi"
	"github.com/ppg/ppgchat/internal/faq"
)

func newDevBackendCmd() *cobra.Command {
	var (
		addr     string
		password string
		seed     string
		delay    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Serve a local fake of the chat and admin APIs",
		Long: `Serve a local fake of the chat worker and the FAQ admin worker.

Point the client at it with:
  PPG_CHAT_API_URL=http://127.0.0.1:8787/ PPG_FAQ_API_URL=http://127.0.0.1:8787 PPG_ADMIN_API=http://127.0.0.1:8787 ppgchat chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []faq.Entry
			if seed != "" {
				data, err := os.ReadFile(seed)
				if err != nil {
					return fmt.Errorf("reading seed: %w", err)
				}
				if err := json.Unmarshal(data, &entries); err != nil {
					return fmt.Errorf("parsing seed %s: %w", seed, err)
				}
			}
			backend := fakeapi.New(fakeapi.Options{Password: password, FAQ: entries, Logger: slog.Default()})
			backend.DelayChat(delay)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, backend.Handler(), cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&password, "password", "admin", "admin password accepted by /api/login")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON file with the initial FAQ array")
	cmd.Flags().DurationVar(&delay, "chat-delay", 0, "hold every chat answer this long")
	return cmd
}

func serve(ctx context.Context, addr string, h http.Handler, cmd *cobra.Command) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: h,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		printStep(cmd.OutOrStdout(), "dev backend listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		printStep(cmd.OutOrStdout(), "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
