package handler

import (
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/cinetick/seatlock/internal/middleware"
)

// CommitBooking handles POST /v1/bookings/commit, the entry point the
// booking finalizer calls once a booking record and bill exist.  Every
// seat must still be locked by the committing session; a lock that
// expired mid-checkout fails the whole commit with 409 so the finalizer
// sends the customer back to seat selection.  The finalizer may pass
// the customer's holder id explicitly (service-to-service call) or
// forward the customer's session token; a missing bookingId gets one
// minted here.
func (h *SeatHandler) CommitBooking(c echo.Context) error {
    var body struct {
        SeatIDs   []string `json:"seatIds"`
        BookingID string   `json:"bookingId"`
        Holder    string   `json:"holder"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    holder := body.Holder
    if holder == "" {
        holder = middleware.Holder(c)
    }
    bookingID := body.BookingID
    if bookingID == "" {
        bookingID = uuid.NewString()
    }
    if err := h.Gateway.Commit(c.Request().Context(), holder, body.SeatIDs, bookingID); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"bookingId": bookingID, "seatIds": body.SeatIDs})
}
