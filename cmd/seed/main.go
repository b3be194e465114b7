package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/quickdeals/internal/registry"
	"github.com/angelmondragon/quickdeals/internal/seed"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/logger"
	"github.com/angelmondragon/quickdeals/pkg/migrate"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "seed", "command: seed|counts|up|status|version|create|validate")
	only := flag.String("db", "", "restrict to one configured database name")

	// Command-specific flags
	name := flag.String("name", "", "migration name (for create)")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	// Commands that do NOT require config or a database
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateFS(migrate.Migrations()); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	specs := cfg.Databases.Specs
	if *only != "" {
		specs = nil
		for _, spec := range cfg.Databases.Specs {
			if spec.Name == *only {
				specs = append(specs, spec)
			}
		}
		if len(specs) == 0 {
			fmt.Fprintf(os.Stderr, "unknown database %q (configured: %v)\n", *only, cfg.Databases.Specs.Names())
			os.Exit(1)
		}
	}

	var seeder *seed.Seeder
	if *cmd == "seed" {
		seeder, err = seed.New(seed.OptionsFromConfig(cfg.Seed), logg)
		requireResource(ctx, logg, "seeder", err)
	}

	for _, spec := range specs {
		dbCtx := logg.WithDatabase(ctx, spec.Name)
		if err := run(dbCtx, *cmd, *version, spec, cfg, seeder, logg); err != nil {
			logg.Error(dbCtx, "command failed", err)
			fmt.Fprintf(os.Stderr, "%s: %s failed: %v\n", spec.Name, *cmd, err)
			os.Exit(1)
		}
	}
}

func run(ctx context.Context, cmd, version string, spec config.DatabaseSpec, cfg *config.Config, seeder *seed.Seeder, logg *logger.Logger) error {
	client, err := db.Open(ctx, spec.Path, db.Options{MaxOpenConns: 1}, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}

	switch cmd {
	case "seed":
		counts, err := seeder.Seed(ctx, client, registry.PlanFor(spec, cfg.Seed.Platforms, cfg.Seed.Products))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s): %d platforms, %d products, %d prices\n", spec.Name, spec.Path, counts.Platforms, counts.Products, counts.Prices)

	case "counts":
		counts, err := seed.NewRepository(client.DB()).Counts(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s): %d platforms, %d products, %d prices\n", spec.Name, spec.Path, counts.Platforms, counts.Products, counts.Prices)

	case "up":
		return migrate.Up(ctx, sqlDB)

	case "status":
		statuses, err := migrate.Status(ctx, sqlDB)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			fmt.Printf("%s: %-8s %d %s\n", spec.Name, st.State, st.Source.Version, st.Source.Path)
		}

	case "version":
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, version)

	default:
		return fmt.Errorf("unknown -cmd value: %s", cmd)
	}
	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
