// Package main provides the operator CLI.
// Usage: workshopctl migrate
//        workshopctl backup snapshot.json.zst
//        workshopctl restore snapshot.json.zst
//        workshopctl seed-defaults all
//        workshopctl alerts --day 2026-08-28 --email
package main

import (
	"context"
	"fmt"
	"os"

	"workshop/internal/app"
	"workshop/internal/config"
	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		runMigrate()
	case "backup":
		runBackup(ctx)
	case "restore":
		runRestore(ctx)
	case "seed-defaults":
		runSeedDefaults(ctx)
	case "alerts":
		runAlerts(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Workshop Back Office CLI

Usage:
  workshopctl <command> [options]

Commands:
  migrate        Apply pending database migrations
  backup         Write a codebook envelope to a file (.zst compresses)
  restore        Restore a codebook envelope from a file
  seed-defaults  Seed built-in rows for one codebook or all
  alerts         Run the minimum-stock scan, optionally mail the digest
  help           Show this help

Environment Variables:
  WORKSHOP_CONFIG   Path to the config file (default config.yaml)

Examples:
  workshopctl backup snapshot.json.zst
  workshopctl restore snapshot.json
  workshopctl seed-defaults order_status
  workshopctl alerts --day 2026-08-28 --email`)
}

func loadConfig() config.Config {
	configPath := os.Getenv("WORKSHOP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	return cfg
}

// wire builds the full application for a one-shot command. The CLI holds
// the same single-writer lock as the server, so it refuses to run while
// the server is up.
func wire(ctx context.Context, cfg config.Config) *app.App {
	log, err := logger.New(logger.Config{Level: "warn"})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fail(err)
	}
	return a
}

// fail prints the error with its application code and exits non-zero.
func fail(err error) {
	if appErr, ok := apperror.AsAppError(err); ok {
		fmt.Printf("Error [%s]: %s\n", appErr.Code, appErr.Message)
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func runMigrate() {
	cfg := loadConfig()
	if err := postgres.Migrate(cfg.Postgres.DSN); err != nil {
		fail(err)
	}
	fmt.Println("Migrations applied")
}

func runBackup(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: workshopctl backup <file>")
		os.Exit(1)
	}
	path := os.Args[2]

	a := wire(ctx, loadConfig())
	defer a.Close()

	if err := a.Backup.WriteFile(ctx, path); err != nil {
		fail(err)
	}
	fmt.Printf("Backup written to %s\n", path)
}

func runRestore(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: workshopctl restore <file>")
		os.Exit(1)
	}
	path := os.Args[2]

	a := wire(ctx, loadConfig())
	defer a.Close()

	stats, err := a.Backup.ReadFile(ctx, path)
	if err != nil {
		fail(err)
	}

	for name, st := range stats {
		fmt.Printf("  %-16s imported=%d updated=%d skipped=%d\n", name, st.Imported, st.Updated, st.Skipped)
	}
	fmt.Println("Restore complete")
}

func runSeedDefaults(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: workshopctl seed-defaults <codebook|all>")
		os.Exit(1)
	}
	target := os.Args[2]

	a := wire(ctx, loadConfig())
	defer a.Close()

	var handles []codebook.Handle
	if target == "all" {
		handles = a.Registry.All()
	} else {
		h, err := a.Registry.Get(target)
		if err != nil {
			fail(err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		st, err := h.SeedDefaults(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("  %-16s imported=%d skipped=%d\n", h.Name(), st.Imported, st.Skipped)
	}
}

func runAlerts(ctx context.Context) {
	day := types.Today()
	sendMail := false

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--day":
			if i+1 < len(os.Args) {
				parsed, err := types.ParseDate(os.Args[i+1])
				if err != nil {
					fmt.Printf("Error: invalid day %q, want YYYY-MM-DD\n", os.Args[i+1])
					os.Exit(1)
				}
				day = parsed
				i++
			}
		case "--email":
			sendMail = true
		}
	}

	cfg := loadConfig()
	a := wire(ctx, cfg)
	defer a.Close()

	run, err := a.Alerts.Run(ctx, day)
	if err != nil {
		fail(err)
	}

	for _, entry := range run.Entries {
		fmt.Printf("  [%s] %s %s: on hand %s, minimum %s\n",
			entry.Severity, entry.Item.Code, entry.Item.Name,
			entry.Item.Quantity.String(), entry.Item.MinQuantity.String())
	}
	fmt.Printf("Scan complete: %d entries, %d newly logged\n", len(run.Entries), run.Inserted)

	if sendMail {
		if a.Mailer == nil {
			fmt.Println("Error: smtp is not enabled in the config")
			os.Exit(1)
		}
		if err := a.Mailer.SendAlertDigest(ctx, run); err != nil {
			fail(err)
		}
		fmt.Println("Digest mailed")
	}
}
