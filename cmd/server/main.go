package main

import (
    "context"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/cinetick/seatlock/internal/config"
    "github.com/cinetick/seatlock/internal/database"
    "github.com/cinetick/seatlock/internal/handler"
    "github.com/cinetick/seatlock/internal/lock"
    "github.com/cinetick/seatlock/internal/observability"
    "github.com/cinetick/seatlock/internal/queue"
    "github.com/cinetick/seatlock/internal/repository"
    "github.com/cinetick/seatlock/internal/reservation"
    "github.com/cinetick/seatlock/internal/router"
    queue_publisher "github.com/cinetick/seatlock/internal/service"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()
    logger := observability.NewLogger(cfg.Debug)

    // Seat registry: MySQL when configured, in-process memory otherwise.
    var store reservation.SeatStore
    switch cfg.StoreDriver {
    case "mysql":
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            logger.Error("mysql connect failed: ", err)
            return
        }
        defer db.Close()
        store = repository.NewSeatRepo(db)
    default:
        store = repository.NewMemorySeatStore()
    }

    locks := lock.NewManager(cfg.LockTTL, cfg.SweepInterval, logger)
    gateway := reservation.NewGateway(store, locks, queue_publisher.NewPublisher(logger), logger)

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // TTL sweeper: the correctness backstop for clients that never
    // release.  Runs regardless of traffic.
    go locks.Run(ctx)

    // Audit consumer for committed bookings; reconnects on its own.
    go func() {
        if err := queue.StartCommitConsumer(logger); err != nil {
            logger.Warn("commit consumer stopped: ", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    router.Register(e, handler.NewSeatHandler(gateway, logger), cfg.SessionSecret, config.NewRedisClient())

    addr := ":" + cfg.Port
    logger.WithField("addr", addr).WithField("env", cfg.Env).WithField("store", cfg.StoreDriver).Info("seatlock listening")

    if err := e.Start(addr); err != nil {
        logger.Error("server exited: ", err)
    }
}
