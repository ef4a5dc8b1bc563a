package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teambridge/internal/config"
	"teambridge/internal/constants"
	"teambridge/internal/database"
	"teambridge/internal/queue"
	"teambridge/internal/retry"
	"teambridge/internal/service"
	"teambridge/internal/tracing"
	"teambridge/pkg/gameserv"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("TeamBridge %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting TeamBridge")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize OpenTelemetry tracing
	tracingManager := tracing.NewTracingManager(tracing.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}, logger)

	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// The history store is optional; without a path the admin history
	// surface reports unavailable and dispatches go unrecorded.
	var history *database.Database
	if cfg.History.Path != "" {
		backoff := retry.NewBackoff(retry.BackoffConfig{
			InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
			Multiplier:   2.0,
			MaxAttempts:  constants.DefaultHistoryInitAttempts,
			Jitter:       true,
		})

		err = backoff.Retry(ctx, func() error {
			var initErr error
			history, initErr = database.New(cfg.History.Path)
			if initErr != nil {
				logger.Warnf("Failed to initialize history store: %v", initErr)
			}
			return initErr
		})
		if err != nil {
			return fmt.Errorf("failed to initialize history store after retries: %w", err)
		}
		defer func() {
			if err := history.Close(); err != nil {
				logger.Warnf("Failed to close history store: %v", err)
			}
		}()
	} else {
		logger.Info("History store disabled, no path configured")
	}

	clientCfg := gameserv.ClientConfig{
		BaseURL:    cfg.GameAPI.BaseURL,
		APIKey:     cfg.GameAPI.APIKey,
		Timeout:    time.Duration(cfg.GameAPI.TimeoutSec) * time.Second,
		RetryCount: cfg.GameAPI.RetryCount,
	}
	game := gameserv.NewClient(clientCfg)

	var teams gameserv.TeamService
	if cfg.Teams.DisableAPI {
		teams = gameserv.AbsentTeamService()
	} else {
		teams = gameserv.ProbeTeamService(ctx, game, clientCfg, logger)
	}

	settings := service.NewSettings(cfg)

	ticks := service.NewTickScheduler(constants.DefaultTickQueueSize, logger)
	ticks.Start(ctx)
	defer ticks.Stop()

	var historyRecorder service.HistoryRecorder
	if history != nil {
		historyRecorder = history
	}

	pendingInterval := time.Duration(cfg.Queue.PendingIntervalSec) * time.Second
	dispatcher := service.NewDispatcher(game, teams, settings, ticks, historyRecorder, logger, pendingInterval)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	offlineQueue := queue.New(queue.NewStore(cfg.Queue.FilePath), logger)
	offlineQueue.Load()
	offlineQueue.Start(ctx)
	defer offlineQueue.Stop()

	reconciler := service.NewReconciler(offlineQueue, dispatcher,
		time.Duration(cfg.Queue.SweepIntervalSec)*time.Second, logger)
	go reconciler.Start(ctx)
	defer reconciler.Stop()

	reload := func(reloadCtx context.Context) error {
		newCfg, err := config.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
		settings.Replace(newCfg)

		if newCfg.Teams.DisableAPI {
			dispatcher.ReplaceTeamService(gameserv.AbsentTeamService())
		} else {
			dispatcher.ReplaceTeamService(gameserv.ProbeTeamService(reloadCtx, game, clientCfg, logger))
		}
		return nil
	}

	server := NewServer(settings, dispatcher, offlineQueue, history, reload, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownGraceSec*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
