package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/config"
	appHTTP "github.com/shoptrack/shoptrack-backend-go/internal/handler/http"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/cron"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/database"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/jwt"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/sse"
	"github.com/shoptrack/shoptrack-backend-go/internal/repository/postgresql"
	timeEntryService "github.com/shoptrack/shoptrack-backend-go/internal/service/timeentry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.Options{
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	timeEntryRepo := postgresql.NewTimeEntryRepository(db)
	shopRepo := postgresql.NewShopRepository(db)
	workOrderRepo := postgresql.NewWorkOrderRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.Leeway)
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}

	hub := sse.NewHub()

	timeEntrySvc := timeEntryService.NewTimeEntryService(
		transactor,
		timeEntryRepo,
		shopRepo,
		workOrderRepo,
		hub,
		cfg.TimeClock,
		cfg.Payroll,
	)

	scheduler := cron.NewScheduler(ctx)
	cron.NewTimeEntryJobs(timeEntrySvc, cfg.TimeClock).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	timeEntryHandler := appHTTP.NewTimeEntryHandler(timeEntrySvc, JWTService, hub)
	payrollHandler := appHTTP.NewPayrollHandler(timeEntrySvc)
	reportHandler := appHTTP.NewReportHandler(timeEntrySvc)

	router := appHTTP.NewRouter(
		cfg,
		JWTService,
		timeEntryHandler,
		payrollHandler,
		reportHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "version", cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
