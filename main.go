package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/msomdec/inscripciones/internal/config"
	"github.com/msomdec/inscripciones/internal/handler"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/repository/disk"
	"github.com/msomdec/inscripciones/internal/repository/gormdb"
	"github.com/msomdec/inscripciones/internal/service"
	"github.com/msomdec/inscripciones/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(conf.Log.Level)
	if err != nil {
		return err
	}

	var sinks []logging.Sink
	if conf.Log.ErrorFile != "" {
		sinks = append(sinks, logging.NewFileSink(conf.Log.ErrorFile))
	}
	if conf.Log.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: conf.Log.RedisAddr,
			DB:   conf.Log.RedisDB,
		})
		defer rdb.Close()
		sinks = append(sinks, logging.NewRedisSink(rdb, conf.Log.RedisKey, conf.Log.RedisMax))
	}

	logger, buffer := logging.New(logging.Options{
		Level:      level,
		BufferSize: conf.Log.BufferSize,
		Sinks:      sinks,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, conf.Trace)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	db, err := gormdb.Open(conf.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database migrations applied", "driver", db.Driver())

	catalog := service.NewDisciplineCatalog(gormdb.NewDisciplineRepository(db), logger)
	if err := catalog.Seed(ctx); err != nil {
		return err
	}
	logger.Info("disciplines seeded")

	auth := service.NewAuthService(gormdb.NewUserRepository(db), conf.Auth.SessionSecret, conf.Auth.BcryptCost, conf.Auth.SessionTTL)
	created, err := auth.EnsureAdmin(ctx, conf.Auth.AdminEmail, conf.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", "email", conf.Auth.AdminEmail)
	}

	store, err := disk.New(conf.Storage.BasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	audit := gormdb.NewSystemLogRepository(db)
	files := service.NewFileService(store, conf.Storage.MaxUploadBytes, logger)
	regs := service.NewRegistrationService(gormdb.NewRegistrationRepository(db), audit, catalog, files, logger)

	router := handler.NewRouter(handler.Dependencies{
		Auth:          auth,
		Registrations: regs,
		Files:         files,
		Disciplines:   catalog,
		Audit:         audit,
		Logs:          buffer,
		DB:            db,
		LoginLimiter:  service.NewTokenBucket(ctx, conf.Auth.LoginRateLimit, conf.Auth.LoginBurst),
		CookieSecure:  conf.Server.CookieSecure,
		Log:           logger,
	})

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
