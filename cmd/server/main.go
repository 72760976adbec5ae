package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/nfc-inventory/internal/adapter/handler"
	"github.com/rl1809/nfc-inventory/internal/adapter/report"
	"github.com/rl1809/nfc-inventory/internal/adapter/scanner"
	"github.com/rl1809/nfc-inventory/internal/adapter/storage"
	"github.com/rl1809/nfc-inventory/internal/config"
	"github.com/rl1809/nfc-inventory/internal/core/service"
	"github.com/rl1809/nfc-inventory/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// MySQL
	db, err := storage.OpenMySQL(cfg.MySQL)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.MySQL.Timeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		// Keep serving: data operations report the store as unavailable until it comes back.
		logger.Error("mysql unreachable, continuing without store", "error", err)
	} else {
		logger.Info("connected to mysql", "addr", cfg.MySQL.Host, "database", cfg.MySQL.Database)
		if !cfg.MySQL.SkipMigrations {
			if err := storage.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
	}

	// Attempt guard: Redis when configured, in-process otherwise.
	var guard port.AttemptGuard = storage.NewMemoryGuard()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable, duplicate scan pairs are not suppressed until it recovers", "error", err)
		} else {
			logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		}
		guard = storage.NewRedisGuard(rdb)
	}

	// Services
	store := storage.NewMySQLAdapter(db)
	stockService := service.NewStockService(store, logger)
	reportService := service.NewReportService(store, report.NewExporter(), logger)
	workflow := service.NewWorkflow(store, guard, cfg.Workflow.FreshnessWindow, logger)

	// The poller is the reader's only consumer; manual scans go through it.
	var poller *service.Poller
	var requester handler.ScanRequester
	if !cfg.Scanner.Disabled {
		src, closeSrc, err := openScannerSource(cfg.Scanner.Device)
		if err != nil {
			return err
		}
		defer closeSrc()
		notifier := scanner.NewBellNotifier(os.Stdout, !cfg.Scanner.Mute, logger)
		tagScanner := scanner.NewLineReader(src, cfg.Scanner.Timeout, notifier)
		poller = service.NewPoller(tagScanner, workflow, cfg.Scanner.PollInterval, logger)
		requester = poller
	}

	g, gctx := errgroup.WithContext(ctx)

	// Scan poller
	if poller != nil {
		g.Go(func() error {
			logger.Info("scan poller started", "device", deviceName(cfg.Scanner.Device))
			poller.Run(gctx)
			logger.Info("scan poller stopped")
			return nil
		})
	}

	// gRPC server
	grpcServer := grpc.NewServer()
	healthReporter := handler.NewHealthReporter(store, cfg.GRPC.HealthInterval, logger)
	healthReporter.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g.Go(func() error {
		healthReporter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	// HTTP server
	httpHandler := handler.NewHTTPHandler(stockService, reportService, workflow, requester)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpHandler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
		return nil
	})

	err = g.Wait()
	logger.Info("connections closed")
	return err
}

func openScannerSource(device string) (io.Reader, func(), error) {
	if device == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(device)
	if err != nil {
		return nil, nil, fmt.Errorf("open scanner device %s: %w", device, err)
	}
	return f, func() { f.Close() }, nil
}

func deviceName(device string) string {
	if device == "" {
		return "stdin"
	}
	return device
}
