// Package router wires HTTP routes to their handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/cinetick/seatlock/internal/config"
    "github.com/cinetick/seatlock/internal/handler"
    "github.com/cinetick/seatlock/internal/middleware"
)

// Register mounts every route of the service on the provided Echo
// instance.  The holder session middleware runs on all /v1 routes so
// that even the first poll of an anonymous client gets a session token;
// rate limiting applies to the whole group and the response cache only
// to the seat map read.
func Register(e *echo.Echo, h *handler.SeatHandler, sessionSecret string, rdb *redis.Client) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)
    // Prometheus scrape endpoint.
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

    g := e.Group("/v1")
    g.Use(middleware.HolderSession(sessionSecret))
    g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    // The seat map poll is the hot path; it alone goes through the
    // response cache, whose TTL is capped at the client poll interval.
    seatMap := g.Group("/showtimes/:id/seats")
    seatMap.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    seatMap.GET("", h.GetShowtimeSeats)

    // Seat-click operations.
    g.POST("/seats/lock", h.LockSeats)
    g.POST("/seats/release", h.ReleaseSeats)
    g.POST("/seats/toggle", h.ToggleSeat)
    g.POST("/seats/check-availability", h.CheckAvailability)

    // Operations tooling: maintenance toggle.
    g.PUT("/seats/:id/status", h.UpdateSeatStatus)

    // Scheduling collaborator: seat map lifecycle.
    g.POST("/showtimes", h.CreateShowtime)
    g.DELETE("/showtimes/:id", h.DeleteShowtime)

    // Booking finalizer: commit locked seats into occupancy.
    g.POST("/bookings/commit", h.CommitBooking)
}
