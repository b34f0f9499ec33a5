package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"tradejournal/config"
	"tradejournal/internal/adapters/httpapi"
	"tradejournal/internal/adapters/logger"
	"tradejournal/internal/adapters/sqlite"
	"tradejournal/internal/app"
	"tradejournal/internal/instruments"
	"tradejournal/internal/lifecycle"
	"tradejournal/internal/pnl"
	"tradejournal/internal/risk"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize the calculation core
	table := instruments.New()
	sizer := risk.NewPositionSizer(table)
	calculator := pnl.NewCalculator(table)
	engine, err := lifecycle.NewEngine(sizer, calculator)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize lifecycle engine")
		log.Fatalf("FATAL: Failed to initialize lifecycle engine: %v", err)
	}

	// 5. Initialize the journal service
	service, err := app.NewJournalService(cfg, appLogger, repo, table, engine)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize journal service")
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	// 6. Run the HTTP server until SIGINT/SIGTERM
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(runCtx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	server := httpapi.NewServer(cfg.HTTPAddr, service, appLogger)
	if err := server.Start(runCtx); err != nil {
		appLogger.Error(runCtx, err, "HTTP server stopped with error")
		os.Exit(1)
	}
	appLogger.Info(runCtx, "Journal service stopped.")
}
