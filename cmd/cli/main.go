package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nimasrn/split-ledger/internal/achievement"
	"github.com/nimasrn/split-ledger/internal/bootstrap"
	"github.com/nimasrn/split-ledger/internal/config"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/migrations"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/pg"
)

const usage = `usage: cli [--env=path] <command>

commands:
  migrate up      apply every pending migration
  migrate down    roll back the latest migration
  migrate status  print the migration status
  seed            upsert the achievement catalog`

func main() {
	if err := config.Load(bootstrap.EnvPath(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(commandArgs(os.Args[1:])); err != nil {
		logger.Error("cli: command failed", "error", err)
		os.Exit(1)
	}
}

func commandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "--") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Println(usage)
		return nil
	}
	cfg := config.Get()

	switch args[0] {
	case "migrate":
		sub := "up"
		if len(args) > 1 {
			sub = args[1]
		}
		switch sub {
		case "up":
			return pg.Migrate(cfg.WritePostgres(), migrations.FS, ".")
		case "down":
			return pg.Rollback(cfg.WritePostgres(), migrations.FS, ".")
		case "status":
			return pg.MigrationStatus(cfg.WritePostgres(), migrations.FS, ".")
		}
		return fmt.Errorf("unknown migrate command %q", sub)
	case "seed":
		db, err := bootstrap.Database(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		catalog := achievement.Catalog()
		if err := repository.NewAchievementRepository(db).Seed(ctx, catalog); err != nil {
			return err
		}
		logger.Info("achievement catalog seeded", "count", len(catalog))
		return nil
	}
	fmt.Println(usage)
	return fmt.Errorf("unknown command %q", args[0])
}
