package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minicrm/crm-api/internal/api"
	"github.com/minicrm/crm-api/internal/api/handler"
	"github.com/minicrm/crm-api/internal/core/ports"
	"github.com/minicrm/crm-api/internal/core/service"
	mongodb "github.com/minicrm/crm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/minicrm/crm-api/internal/infrastructure/db/redis"
	"github.com/minicrm/crm-api/internal/pkg/config"
	"github.com/minicrm/crm-api/internal/pkg/jwtauth"
	"github.com/minicrm/crm-api/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "crm-api",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongodb")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	var (
		redisClient *goredis.Client
		statsCache  ports.LeadStatsCache
	)
	readiness := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
		"redis":   nil,
	}
	if cfg.Redis.Enabled {
		redisClient, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			ClientName: "crm-api",
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, lead stats will not be cached")
		} else {
			statsCache = redisdb.NewLeadStatsCache(redisClient, cfg.Redis.LeadStatsTTL)
			readiness["redis"] = func(ctx context.Context) error { return redisdb.Ping(ctx, redisClient) }
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
		}
	}

	tokens := jwtauth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	users := mongodb.NewUserRepository(db)
	customers := mongodb.NewCustomerRepository(db)
	leads := mongodb.NewLeadRepository(db)

	e := api.NewRouter(api.RouterOptions{
		Auth:         service.NewAuthService(users, tokens, cfg.Auth.AdminSecretKey, log),
		Users:        service.NewUserService(users),
		Customers:    service.NewCustomerService(customers, leads, statsCache, log),
		Leads:        service.NewLeadService(leads, customers, users, statsCache, log),
		Tokens:       tokens,
		Logger:       log,
		Prefix:       cfg.APIPrefix,
		AllowOrigins: cfg.CORSAllowOrigins,
		Readiness:    readiness,
	})

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("http server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	shutdown(log, cfg, e.Shutdown, mongoClient, redisClient)
}

func shutdown(log zerolog.Logger, cfg *config.Config, stopServer func(context.Context) error, mongoClient *mongo.Client, redisClient *goredis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := stopServer(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}

	log.Info().Msg("server exited cleanly")
}
