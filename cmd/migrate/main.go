package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"bankist.app/internal/bank"
	"bankist.app/internal/config"
	"bankist.app/internal/migrate"
	"bankist.app/internal/obs"
	"bankist.app/internal/store/pg"
)

func main() {
	logger := obs.Logger()
	defer func() { _ = logger.Sync() }()

	cfg := config.Load(logger)
	dsn := flag.String("dsn", cfg.PGDSN, "PostgreSQL DSN")
	flag.Parse()

	if *dsn == "" {
		logger.Fatal("missing DSN: provide via -dsn or BANKIST_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down|seed|status]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), migrate.WithLogger(logger))

	cmd := flag.Arg(0)
	switch cmd {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		if err == nil {
			logger.Info("migrations up to date", zap.Int("applied", len(applied)))
		}
	case "down":
		_, err = mgr.Down(ctx)
		if errors.Is(err, migrate.ErrNothingApplied) {
			logger.Info("nothing to roll back")
			err = nil
		}
	case "seed":
		var added int
		added, err = store.Seed(ctx, bank.DemoAccounts())
		if err == nil {
			logger.Info("demo accounts seeded", zap.Int("added", added))
		}
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		logger.Fatal("unknown command", zap.String("command", cmd))
	}
	if err != nil {
		logger.Fatal("migrate failed", zap.String("command", cmd), zap.Error(err))
	}
}
