package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "go.uber.org/zap"

    "github.com/foodbridge/distribution-api/internal/config"
    "github.com/foodbridge/distribution-api/internal/database"
    "github.com/foodbridge/distribution-api/internal/logger"
    "github.com/foodbridge/distribution-api/internal/queue"
    "github.com/foodbridge/distribution-api/internal/router"
    "github.com/foodbridge/distribution-api/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()
    logger.Init(cfg.Env)
    defer logger.Sync()
    log := logger.Get()

    db, err := database.Open(cfg)
    if err != nil {
        log.Fatal("database connection failed", zap.Error(err))
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Warn("redis unavailable, rate limiting and response cache disabled")
    } else {
        defer rdb.Close()
    }

    publisher := service.NewPublisher()
    defer publisher.Close()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    consumer := queue.NewConsumer("logs")
    go consumer.Run(ctx)

    e := router.New(cfg, db, rdb, publisher)

    go func() {
        if err := e.Start(":" + cfg.Port); err != nil {
            log.Info("http server stopped", zap.Error(err))
        }
    }()
    log.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

    <-ctx.Done()
    log.Info("shutting down")

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Error("shutdown error", zap.Error(err))
    }
}
