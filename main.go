package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/logging"
	"github.com/icodeforyou/darksky-go/publish"
	"github.com/icodeforyou/darksky-go/task"
	"github.com/icodeforyou/darksky-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleLevel := &slog.LevelVar{}
	consoleLevel.Set(cnfg.Logging.GetConsoleLevel())
	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("darksky is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	dbLevel := &slog.LevelVar{}
	dbLevel.Set(cnfg.Logging.GetDbLevel())
	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, dbLevel, cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	err = config.Watch(*configPath, logger.With("module", "config"), func(c *config.AppConfig) {
		consoleLevel.Set(c.Logging.GetConsoleLevel())
		dbLevel.Set(c.Logging.GetDbLevel())
		logger.Info("log levels reloaded",
			slog.String("console", consoleLevel.Level().String()),
			slog.String("db", dbLevel.Level().String()))
	})
	if err != nil {
		logger.Warn("config file will not be watched", slog.Any("error", err))
	}

	fetcher := darksky.NewHTTPFetcher(cnfg.DarkSky.GetTimeout())
	tasks := task.NewTasks(db, fetcher, cnfg)

	if cnfg.Mqtt.Enabled() {
		pub := publish.New(cnfg.Mqtt)
		if err := pub.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer pub.Disconnect()
		tasks.OnForecast(pub.Listener())
	} else {
		logger.Info("no mqtt host configured, publishing disabled")
	}

	server := www.StartServer(db, tasks, cnfg, Version)

	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
