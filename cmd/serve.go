package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"oltd/internal/history"
	"oltd/internal/log"
	"oltd/internal/registry"
	"oltd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		log.Info("command history enabled", "path", cfg.History.Path)
	}

	sessions := registry.New(cfg.Session.IdleTimeout.Duration)
	defer sessions.Shutdown()

	api := server.New(server.Options{
		Registry: sessions,
		History:  store,
		Defaults: server.Defaults{
			ConnectTimeout:     cfg.Session.ConnectTimeout.Duration,
			CommandTimeout:     cfg.Session.CommandTimeout.Duration,
			LongCommandTimeout: cfg.Session.LongCommandTimeout.Duration,
			PageLimit:          cfg.Session.PageLimit,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown incomplete", "error", err)
		}
	}
	return nil
}
