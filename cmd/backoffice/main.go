// Command backoffice runs the agency back-office server: MySQL-backed
// content and staff storage, Redis-backed sessions, and the gin HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	backoffice "github.com/brightpixel/backoffice"
	"github.com/brightpixel/backoffice/internal/config"
	"github.com/brightpixel/backoffice/internal/content"
	"github.com/brightpixel/backoffice/internal/httpapi"
	"github.com/brightpixel/backoffice/password"
)

func main() {
	configPath := flag.String("config", "backoffice.yaml", "path to the YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	store := content.NewStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.AutoMigrate(ctx); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	engineCfg := engineConfig(cfg)

	engine, err := backoffice.New().
		WithConfig(engineCfg).
		WithRedis(redisClient).
		WithStaffProvider(store).
		WithDashboardSource(store).
		WithAuditSink(backoffice.NewJSONWriterSink(os.Stdout)).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := seedSuperAdmin(ctx, store, engineCfg, cfg, logger); err != nil {
		return err
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Addr:          cfg.HTTP.Addr,
		CookieTTL:     engineCfg.Session.AbsoluteLifetime,
		SecureCookies: cfg.HTTP.SecureCookies,
		ReadTimeout:   cfg.HTTP.ReadTimeout.Std(),
		WriteTimeout:  cfg.HTTP.WriteTimeout.Std(),
		IdleTimeout:   cfg.HTTP.IdleTimeout.Std(),
	}, engine, store, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func engineConfig(cfg *config.ServerConfig) backoffice.Config {
	engineCfg := backoffice.DefaultConfig()

	engineCfg.JWT.PrivateKey = []byte(cfg.Auth.JWTSecret)
	if cfg.Auth.Issuer != "" {
		engineCfg.JWT.Issuer = cfg.Auth.Issuer
	}
	if cfg.Auth.AccessTTL > 0 {
		engineCfg.JWT.AccessTTL = cfg.Auth.AccessTTL.Std()
	}
	if cfg.Auth.InactivityTimeout > 0 {
		engineCfg.Inactivity.Timeout = cfg.Auth.InactivityTimeout.Std()
	}
	if cfg.Auth.WarningLead > 0 {
		engineCfg.Inactivity.WarningLead = cfg.Auth.WarningLead.Std()
	}
	if cfg.Auth.AbsoluteLifetime > 0 {
		engineCfg.Session.AbsoluteLifetime = cfg.Auth.AbsoluteLifetime.Std()
	}

	return engineCfg
}

// seedSuperAdmin ensures the configured super-admin account exists. The
// hash is derived here so the plaintext never reaches the store.
func seedSuperAdmin(ctx context.Context, store *content.Store, engineCfg backoffice.Config, cfg *config.ServerConfig, logger *slog.Logger) error {
	hasher, err := password.NewHasher(password.Config{
		Memory:      engineCfg.Password.Memory,
		Time:        engineCfg.Password.Time,
		Parallelism: engineCfg.Password.Parallelism,
		SaltLength:  engineCfg.Password.SaltLength,
		KeyLength:   engineCfg.Password.KeyLength,
		MinLength:   engineCfg.Password.MinLength,
	})
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(cfg.Admin.InitialPassword)
	if err != nil {
		return err
	}

	staffID, err := store.SeedSuperAdmin(ctx, cfg.Admin.Email, cfg.Admin.DisplayName, hash)
	if err != nil {
		return err
	}

	logger.Info("super admin ready", "staff_id", staffID, "email", cfg.Admin.Email)
	return nil
}
