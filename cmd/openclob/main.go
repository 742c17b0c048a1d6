package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	match "github.com/openclob/openclob"
	"github.com/openclob/openclob/console"
	"github.com/openclob/openclob/ledger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Optional .env file; environment variables override the config file.
	_ = godotenv.Load()

	cfg := console.DefaultConfig()
	if *configPath != "" {
		loaded, err := console.LoadConfig(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := newLogger(cfg.Logging.Level)
	match.SetLogger(logger)

	book := match.NewOrderBook(cfg.Book.Instrument, match.NewMemoryPublishLog(),
		match.WithCommandBuffer(cfg.Book.CommandBuffer))

	go func() {
		if err := book.Start(); err != nil {
			logger.Error("order book loop failed", "error", err)
		}
	}()

	c := console.New(cfg, book, ledger.NewAccounts(), os.Stdout, logger)
	if err := c.Run(os.Stdin); err != nil {
		logger.Error("console failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := book.Shutdown(ctx); err != nil {
		logger.Error("shutdown did not drain in time", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
