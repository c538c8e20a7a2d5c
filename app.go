package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"leadflow/internal/bot"
	"leadflow/internal/config"
	"leadflow/internal/health"
	"leadflow/internal/infra/gsheets"
	"leadflow/internal/infra/sqlite"
	"leadflow/internal/logging"
	"leadflow/internal/metrics"
	"leadflow/internal/notify"
	"leadflow/internal/poller"
	"leadflow/internal/storage"
	"leadflow/internal/table"
)

// runService starts the intake bot, the status poller and the health server
// and blocks until ctx is cancelled.
func runService(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.DebugMode})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("🚀 Starting leadflow",
		zap.String("backend", cfg.StoreBackend),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("admins", len(cfg.AdminIDs)),
		zap.Bool("debug", cfg.DebugMode))

	tbl, closeTable, err := openTable(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTable()

	store := storage.New(tbl,
		storage.WithLogger(logger.Named("store")),
		storage.WithLocation(cfg.Location))

	// A broken header is repaired again on the first append.
	if _, err := store.EnsureHeader(ctx); err != nil {
		logger.Warn("⚠️  Could not verify header row", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	tg, err := newTelegram(cfg, logger)
	if err != nil {
		return err
	}

	dispatcher := notify.New(tg,
		notify.WithAdmins(cfg.AdminIDs),
		notify.WithLogger(logger.Named("notify")),
		notify.WithMetrics(m))

	monitor := health.NewMonitor()
	health.StartServer(ctx, health.NewServer(monitor, registry), cfg.HealthCheckPort, logger.Named("health"))

	p := poller.New(store, dispatcher,
		poller.WithInterval(cfg.PollInterval),
		poller.WithLogger(logger.Named("poller")),
		poller.WithMonitor(monitor),
		poller.WithMetrics(m))

	handler := bot.NewHandler(tg, store, dispatcher,
		bot.WithAdmins(cfg.AdminIDs),
		bot.WithLogger(logger.Named("bot")),
		bot.WithMetrics(m),
		bot.WithClock(func() time.Time { return time.Now().In(cfg.Location) }))

	errc := make(chan error, 2)
	go func() { errc <- p.Run(ctx) }()
	go func() { errc <- handler.Run(ctx, tg.Updates(ctx, longPollTimeout)) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
		}
	}
	logger.Info("👋 Shutdown complete")
	return firstErr
}

// openTable connects the configured backend. The returned func releases it.
func openTable(ctx context.Context, cfg *config.Config, logger *zap.Logger) (table.Table, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendSheets:
		var creds option.ClientOption
		switch {
		case cfg.CredentialsJSON != "":
			creds = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
		case cfg.CredentialsFile != "":
			creds = option.WithCredentialsFile(cfg.CredentialsFile)
		default:
			return nil, noop, errors.New("GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE is required for the sheets backend")
		}
		t, err := gsheets.New(ctx, gsheets.Config{
			SpreadsheetID:     cfg.SpreadsheetID,
			SheetName:         cfg.SheetName,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}, logger.Named("gsheets"), creds)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("✓ Connected to Google Sheets",
			zap.String("spreadsheet", cfg.SpreadsheetID),
			zap.String("sheet", cfg.SheetName))
		return t, noop, nil

	case config.BackendSQLite:
		t, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("✓ Opened SQLite store", zap.String("path", cfg.SQLitePath))
		return t, func() {
			if err := t.Close(); err != nil {
				logger.Warn("⚠️  Failed to close SQLite store", zap.Error(err))
			}
		}, nil

	case config.BackendMemory:
		logger.Warn("⚠️  Using in-memory store, records are lost on exit")
		return table.NewMemory(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
