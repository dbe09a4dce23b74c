// Package handler exposes the HTTP surface of the reservation gateway:
// the seat map read that clients poll, the lock/release/toggle
// operations behind seat clicks, availability checks, the maintenance
// toggle for operations tooling, and the commit entry point consumed by
// the booking finalizer.
package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cinetick/seatlock/internal/middleware"
    "github.com/cinetick/seatlock/internal/model"
    "github.com/cinetick/seatlock/internal/observability"
    "github.com/cinetick/seatlock/internal/repository"
    "github.com/cinetick/seatlock/internal/reservation"
)

// SeatHandler serves the seat reservation endpoints.  The holder
// identity is resolved by the session middleware; handlers never trust
// a holder id from the request body except on the commit path, where
// the booking finalizer acts on behalf of a customer session.
type SeatHandler struct {
    Gateway *reservation.Gateway
    Logger  observability.Logger
}

// NewSeatHandler constructs a SeatHandler.  The gateway must be non-nil.
func NewSeatHandler(gw *reservation.Gateway, logger observability.Logger) *SeatHandler {
    if gw == nil {
        panic("nil gateway passed to NewSeatHandler")
    }
    return &SeatHandler{Gateway: gw, Logger: logger}
}

// GetShowtimeSeats handles GET /v1/showtimes/:id/seats.  It returns one
// entry per physical seat with the lock overlay and per-member pair
// combined status applied; pairs are not collapsed, the client merges
// them using combinedStatus.  This is the read behind the ~1s poll.
func (h *SeatHandler) GetShowtimeSeats(c echo.Context) error {
    showtimeID := c.Param("id")
    if showtimeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    views, err := h.Gateway.GetSeats(c.Request().Context(), showtimeID, middleware.Holder(c))
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// LockSeats handles POST /v1/seats/lock.  The body carries a seatIds
// array; each id is expanded to its pair group and the union is
// acquired all or nothing.  Contention returns 200 with success=false
// and the conflicting ids — losing a race for a seat is expected
// traffic, not an error.
func (h *SeatHandler) LockSeats(c echo.Context) error {
    var body struct {
        SeatIDs []string `json:"seatIds"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    res, err := h.Gateway.Lock(c.Request().Context(), middleware.Holder(c), body.SeatIDs)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// ReleaseSeats handles POST /v1/seats/release.  Release is idempotent
// by contract: ids not locked by this session, or unknown entirely, are
// ignored so the client's unmount cleanup can never fail.
func (h *SeatHandler) ReleaseSeats(c echo.Context) error {
    var body struct {
        SeatIDs []string `json:"seatIds"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Gateway.Release(c.Request().Context(), middleware.Holder(c), body.SeatIDs); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{})
}

// ToggleSeat handles POST /v1/seats/toggle: the seat-click operation.
// If the seat's full pair group is locked by this session it is
// released, otherwise a lock is attempted.
func (h *SeatHandler) ToggleSeat(c echo.Context) error {
    var body struct {
        SeatID string `json:"seatId"`
    }
    if err := c.Bind(&body); err != nil || body.SeatID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatId is required"})
    }
    res, err := h.Gateway.ToggleSelect(c.Request().Context(), middleware.Holder(c), body.SeatID)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// CheckAvailability handles POST /v1/seats/check-availability and
// returns a per-id boolean: whether this session could lock the seat
// right now.
func (h *SeatHandler) CheckAvailability(c echo.Context) error {
    var body struct {
        SeatIDs []string `json:"seatIds"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    avail, err := h.Gateway.CheckAvailability(c.Request().Context(), middleware.Holder(c), body.SeatIDs)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"availability": avail})
}

// UpdateSeatStatus handles PUT /v1/seats/:id/status, the maintenance
// toggle used by operations tooling.  Only AVAILABLE and MAINTENANCE
// may be written here: OCCUPIED is reachable solely through the commit
// path and LOCKED never touches the registry at all.
func (h *SeatHandler) UpdateSeatStatus(c echo.Context) error {
    seatID := c.Param("id")
    var body struct {
        Status model.SeatStatus `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    switch body.Status {
    case model.StatusAvailable, model.StatusMaintenance:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE or MAINTENANCE"})
    }
    if err := h.Gateway.SetSeatStatus(c.Request().Context(), seatID, body.Status); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"seatId": seatID, "status": body.Status})
}

// fail maps gateway and repository errors onto HTTP responses.
// Contention never reaches this path; what does is either a bad
// request, a missing resource, a non-retryable seat state, or a defect.
func (h *SeatHandler) fail(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrSeatNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
    case errors.Is(err, repository.ErrShowtimeNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
    case errors.Is(err, repository.ErrShowtimeExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "showtime already exists"})
    case errors.Is(err, repository.ErrSeatExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seat id already registered"})
    case errors.Is(err, reservation.ErrNoSeats):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatIds is required"})
    case errors.Is(err, reservation.ErrMixedShowtimes):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must belong to one showtime"})
    case errors.Is(err, reservation.ErrSeatUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
    case errors.Is(err, reservation.ErrStaleLock):
        return c.JSON(http.StatusConflict, echo.Map{"error": "lock expired, restart seat selection"})
    case errors.Is(err, repository.ErrInvalidTransition):
        if h.Logger != nil {
            h.Logger.Error("invalid status transition: ", err)
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    default:
        if h.Logger != nil {
            h.Logger.Error("request failed: ", err)
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
