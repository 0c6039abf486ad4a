package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/pkg/config"
	"github.com/lunchtableguy/mmeg-sub000/pkg/database"
	"github.com/lunchtableguy/mmeg-sub000/pkg/logger"
)

func main() {
	email := pflag.StringP("email", "e", "", "account email")
	password := pflag.StringP("password", "p", "", "new password (min 8 characters)")
	keepSessions := pflag.Bool("keep-sessions", false, "do not revoke issued tokens")
	pflag.Parse()

	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}
	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic("build logger: " + err.Error())
	}
	defer log.Sync()

	if *email == "" || len(*password) < 8 {
		pflag.Usage()
		os.Exit(2)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN(), log, cfg.IsProduction())
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	users := repository.NewUserRepo(db)
	ctx := context.Background()

	// 3. Find user
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Fatal("user not found", zap.String("email", *email))
		}
		log.Fatal("lookup user", zap.Error(err))
	}

	// 4. Hash and store the new password
	var tmp model.User
	if err := tmp.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, tmp.Password); err != nil {
		log.Fatal("update password", zap.Error(err))
	}

	// 5. Revoke sessions
	if !*keepSessions {
		if err := users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
			log.Fatal("revoke sessions", zap.Error(err))
		}
	}

	log.Info("password reset",
		zap.String("email", user.Email),
		zap.String("role", user.Role.String()),
		zap.Bool("sessions_revoked", !*keepSessions))
}
