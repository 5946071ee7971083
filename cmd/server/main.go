package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/siege-picker/internal/config"
	"github.com/DoyleJ11/siege-picker/internal/httpapi"
	"github.com/DoyleJ11/siege-picker/internal/hub"
	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/logger"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/profile"
	"go.uber.org/zap"
)

func main() {
	os.Exit(serve())
}

// serve runs the server and returns the process exit code. Logs are synced
// before it returns.
func serve() int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := operator.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", zap.String("path", cfg.CatalogPath), zap.Int("operators", catalog.Len()))

	store, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	h := hub.NewHub(ctx, profile.Deps{
		Store:    store,
		Catalog:  catalog,
		Selector: lineup.NewSelector(catalog),
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, catalog, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("storage", string(cfg.Storage.Backend)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	select {
	case h.Inbox() <- hub.ShutdownHub{}:
	case <-h.Done():
	}
	<-h.Done()
	return nil
}
