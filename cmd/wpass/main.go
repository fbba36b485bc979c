package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericfisherdev/wpass/internal/adapter/driven/bench"
	"github.com/ericfisherdev/wpass/internal/adapter/driven/jsonfile"
	sqliteadapter "github.com/ericfisherdev/wpass/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/wpass/internal/adapter/driven/tcplink"
	"github.com/ericfisherdev/wpass/internal/adapter/driven/terminal"
	httphandler "github.com/ericfisherdev/wpass/internal/adapter/driving/http"
	"github.com/ericfisherdev/wpass/internal/application"
	"github.com/ericfisherdev/wpass/internal/config"
	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"store_backend", cfg.StoreBackend,
		"data_path", cfg.DataPath,
		"link_addr", cfg.LinkAddr,
		"bench_addr", cfg.BenchAddr,
		"unlock_steps", len(cfg.UnlockPattern),
		"sealed", cfg.SecretKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the credential backend and load the store.
	backend, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()
	store := application.LoadCredentialStore(ctx, backend, logger)

	// 4. Bind the host link.
	link, err := tcplink.Listen(cfg.LinkAddr, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := link.Close(); closeErr != nil {
			logger.Error("error closing link", "error", closeErr)
		}
	}()
	logger.Info("link listening", "addr", link.Addr().String())

	// 5. Wire device adapters.
	display := terminal.NewDisplay(os.Stdout, nil)
	panel := bench.NewPanel(cfg.ActiveLow, nil)

	var emitter driven.TextEmitter = terminal.NewLogEmitter(logger)
	if cfg.EmitTarget == config.EmitStdout {
		emitter = terminal.NewWriterEmitter(os.Stdout)
	}

	debounce := application.DebounceConfig{
		PressedLevel:     !cfg.ActiveLow,
		StableSamples:    cfg.DebounceSamples,
		LongPress:        cfg.LongPress,
		MultiPressWindow: cfg.MultiPressWindow,
	}
	buttons := application.Buttons{
		Left:   application.NewDebouncer(debounce, nil),
		Middle: application.NewDebouncer(debounce, nil),
		Right:  application.NewDebouncer(debounce, nil),
	}
	pins := application.Pins{
		Left:   panel.Pin(model.ButtonLeft),
		Middle: panel.Pin(model.ButtonMiddle),
		Right:  panel.Pin(model.ButtonRight),
	}

	// 6. Create the controller and device loop.
	channel := application.NewCommandChannel(link, nil, nil, logger)
	controller := application.NewController(store, channel, display, emitter, buttons, logger)
	device := application.NewDevice(
		controller,
		channel,
		display,
		application.NewUnlockGesture(cfg.UnlockPattern),
		pins,
		buttons,
		cfg.TickInterval,
		logger,
	)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		device.Start(ctx)
	}()

	// 7. Create the bench HTTP server.
	handler := httphandler.NewServeMux(httphandler.NewHandler(panel, display, link, logger), logger)
	srv := &http.Server{
		Addr:              cfg.BenchAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("bench server starting", "addr", cfg.BenchAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- fmt.Errorf("bench server: %w", err)
		}
	}()

	// 8. Log startup complete.
	logger.Info("wpass started", "tick_interval", cfg.TickInterval)

	// 9. Wait for shutdown signal or a fatal server error.
	select {
	case <-ctx.Done():
	case err = <-srvErr:
		stop()
	}
	logger.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight bench requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("bench server shutdown error", "error", shutdownErr)
	}
	<-loopDone

	// 11. Log shutdown complete.
	logger.Info("shutdown complete", "unsaved", controller.Unsaved())
	return err
}

// openBackend returns the configured credential backend and a func that
// releases it.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.CredentialBackend, func(), error) {
	if cfg.StoreBackend != config.BackendSQLite {
		if cfg.SecretKey != nil {
			logger.Warn("WPASS_SECRET_KEY is ignored by the json backend")
		}
		return jsonfile.NewStore(cfg.DataPath), func() {}, nil
	}

	db, err := sqliteadapter.Open(ctx, cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}
	logger.Info("database opened", "path", db.Path(), "schema_version", db.SchemaVersion())

	repo, err := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return repo, closeDB, nil
}
