// Command calderd runs a reference HTTP server around the calder engine.
//
// It wires a storage backend from configuration, registers the demo
// user-onboarding workflow, and serves the REST API. Real deployments are
// expected to embed the engine and register their own workflows; this
// binary exists to exercise the full stack end to end.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/calderhq/calder"
	"github.com/calderhq/calder/internal/config"
	"github.com/calderhq/calder/internal/httpapi"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registerOnboardingWorkflow(eng)

	logger.Info("engine initialized", "store", cfg.Store.Driver)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	httpapi.NewServer(eng, logger).Register(e)

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("calderd listening", "addr", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func buildEngine(cfg *config.Config, logger *slog.Logger) (calder.Engine, func(), error) {
	obs := calder.NewLoggingObserver(logger)

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		eng, err := calder.NewSQLiteEngineWithObserver(db, obs)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return eng, func() { _ = db.Close() }, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		return calder.NewRedisEngineWithObserver(client, obs), func() { _ = client.Close() }, nil

	default:
		return calder.NewInMemoryEngineWithObserver(obs), func() {}, nil
	}
}

// registerOnboardingWorkflow registers the demo workflow served by this
// binary: create a user record, wait for an email-verification signal,
// then score the lead.
func registerOnboardingWorkflow(eng calder.Engine) {
	calder.NewWorkflow("user-onboarding").
		Step("create-user", func(ctx context.Context, sc *calder.StepContext) calder.Outcome {
			in, _ := sc.Input.(map[string]any)
			email, _ := in["email"].(string)
			if email == "" {
				return calder.Failf("input is missing an email")
			}
			sc.Log("user created", map[string]any{"email": email})
			return calder.Done(map[string]any{"email": email})
		}).
		WaitForSignal("await-verification", "verified").
		StepWithRetry("score-lead", func(ctx context.Context, sc *calder.StepContext) calder.Outcome {
			// Stand-in for an external scoring service call.
			score := 50 + rand.Intn(50)
			sc.Log("lead scored", map[string]any{"score": score})
			return calder.Done(map[string]any{"score": score})
		}, calder.Retry(3).WithBackoff(time.Second).Policy()).
		MustRegister(eng)
}
