package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"talenthub/internal/app/server"
	"talenthub/internal/platform/config"
	"talenthub/internal/platform/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("talenthub exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", ".env", "path to a dotenv file loaded before reading the environment")
	framework := pflag.String("framework", "", "competency framework YAML imported at startup")
	migrateOnly := pflag.Bool("migrate-only", false, "apply migrations and exit")
	pflag.Parse()

	config.LoadEnvFile(*envFile)
	cfg := config.Load()
	if *framework != "" {
		cfg.FrameworkFile = *framework
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if err := cfg.Validate(); err != nil {
			return err
		}
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()
		return db.Migrate(pool)
	}

	app, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}
