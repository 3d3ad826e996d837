// Command migrate applies the embedded schema migrations.
package main

import (
	"fmt"
	"os"

	"go-pos-ws/internal/config"
	applog "go-pos-ws/internal/logger"
	"go-pos-ws/pkg/database"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		action  = pflag.StringP("action", "a", "up", "Migration action: up, down, to, force, version")
		steps   = pflag.Int("steps", 1, "Number of steps for down migration")
		version = pflag.Int("version", -1, "Target version for to or force")
	)
	pflag.Parse()

	cfg := config.LoadEnv()
	log, err := applog.New(cfg.App.Env, cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Database.Driver == "memory" {
		log.Fatal("STORAGE=memory has no schema to migrate")
	}

	m, err := database.NewMigrator(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("failed to close migrator", zap.Error(err))
		}
	}()

	switch *action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down(*steps)
	case "to":
		if *version < 0 {
			log.Fatal("--version is required for to")
		}
		err = m.To(uint(*version))
	case "force":
		// Version 0 is allowed and resets to the empty schema
		if *version < 0 {
			log.Fatal("--version is required for force")
		}
		err = m.Force(*version)
	case "version":
		v, dirty, verr := m.Version()
		if verr == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
		err = verr
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s --action=[up|down|to|force|version] [options]\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
}
