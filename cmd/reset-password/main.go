package main

import (
	"context"
	"fmt"
	"os"

	"go-pos-ws/internal/config"
	applog "go-pos-ws/internal/logger"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/service"
	"go-pos-ws/pkg/database"
	"go-pos-ws/pkg/jwt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		email    = pflag.StringP("email", "e", "admin@example.com", "Account to reset")
		password = pflag.StringP("password", "p", "", "New password (min 6 characters)")
	)
	pflag.Parse()

	// 1. Load Env
	cfg := config.LoadEnv()
	log, err := applog.New(cfg.App.Env, cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *password == "" {
		log.Fatal("--password is required")
	}

	// 2. Setup Database
	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	// 3. Reset; existing sessions of the account are ended
	auth := service.NewAuthService(store.Users(), jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL), notify.NewDispatcher(nil, log), cfg.JWT.IdleTime)
	if err := auth.ForceResetPassword(ctx, *email, *password); err != nil {
		log.Fatal("failed to reset password", zap.String("email", *email), zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
