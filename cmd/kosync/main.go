package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mfalicoff/kosync/internal/api"
	"github.com/mfalicoff/kosync/internal/core/service"
	"github.com/mfalicoff/kosync/internal/infrastructure/config"
	mongodb "github.com/mfalicoff/kosync/internal/infrastructure/db/mongo"
	redisdb "github.com/mfalicoff/kosync/internal/infrastructure/db/redis"
	"github.com/mfalicoff/kosync/pkg/logger"
)

// @title           kosync
// @description     Self-hosted KOReader progress sync server.
// @version         1.0
// @BasePath        /
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	repo := mongodb.NewUserRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	adminHash, err := service.HashSecret(cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash admin password")
	}
	if err := repo.EnsureAdmin(ctx, adminHash); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	e := api.NewRouter(api.Options{
		RegistrationEnabled: !cfg.RegistrationDisabled,
		TrustedProxies:      cfg.TrustedProxies,
	}, db, rdb, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	return redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
}
