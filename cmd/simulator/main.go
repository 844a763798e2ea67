package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/hal/sim"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/config"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tactility/internal/runtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	dev := flag.Bool("dev", cfg.Development.Enabled, "Enable the development HTTP service")
	devAddr := flag.String("dev-addr", cfg.Development.Addr, "Development service address")
	level := flag.String("log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	autostart := flag.String("autostart", cfg.Loader.AutoStart, "App started after boot")
	flag.Parse()

	cfg.Development.Enabled = *dev
	cfg.Development.Addr = *devAddr
	cfg.Logging.Level = *level
	cfg.Logging.Development = cfg.Logging.Development || *dev
	cfg.Loader.AutoStart = *autostart

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	rt := runtime.New(cfg, logger, metrics)
	board := sim.NewBoard(rt.Locks())
	board.SdCard.Insert()

	if err := rt.Boot(board); err != nil {
		logger.Fatal("Boot failed", zap.Error(err))
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The main goroutine is the UI goroutine
	rt.Run(ctx)

	logger.Info("Shutting down gracefully...")
	rt.Close()
}
