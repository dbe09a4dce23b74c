package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinetick/seatlock/internal/model"
)

// seatSpec is one seat in a showtime creation request.
type seatSpec struct {
    SeatID   string         `json:"seatId"`
    Position string         `json:"position"`
    Type     model.SeatType `json:"type"`
    Price    uint32         `json:"price"`
}

// CreateShowtime handles POST /v1/showtimes.  The external scheduling
// system calls it once per showtime to register the seat map; seats
// start AVAILABLE and live until the showtime is deleted.
func (h *SeatHandler) CreateShowtime(c echo.Context) error {
    var body struct {
        ShowtimeID string     `json:"showtimeId"`
        MovieTitle string     `json:"movieTitle"`
        Room       string     `json:"room"`
        StartsAt   time.Time  `json:"startsAt"`
        Seats      []seatSpec `json:"seats"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.ShowtimeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtimeId is required"})
    }
    if len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
    }
    seats := make([]model.Seat, 0, len(body.Seats))
    seen := make(map[string]struct{}, len(body.Seats))
    for _, sp := range body.Seats {
        if sp.SeatID == "" || sp.Position == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "every seat needs seatId and position"})
        }
        if _, dup := seen[sp.SeatID]; dup {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat id: " + sp.SeatID})
        }
        seen[sp.SeatID] = struct{}{}
        switch sp.Type {
        case model.SeatTypeRegular, model.SeatTypeVIP, model.SeatTypePair:
        case "":
            sp.Type = model.SeatTypeRegular
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown seat type: " + string(sp.Type)})
        }
        seats = append(seats, model.Seat{
            ID:         sp.SeatID,
            ShowtimeID: body.ShowtimeID,
            Position:   sp.Position,
            Type:       sp.Type,
            PriceCents: sp.Price,
            Status:     model.StatusAvailable,
        })
    }
    st := model.Showtime{
        ID:         body.ShowtimeID,
        MovieTitle: body.MovieTitle,
        Room:       body.Room,
        StartsAt:   body.StartsAt,
    }
    if err := h.Gateway.Store().CreateShowtime(c.Request().Context(), st, seats); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"showtimeId": st.ID, "seats": len(seats)})
}

// DeleteShowtime handles DELETE /v1/showtimes/:id.  Seat rows live and
// die with their showtime; any leftover locks become inert and are
// reclaimed by the sweeper.
func (h *SeatHandler) DeleteShowtime(c echo.Context) error {
    showtimeID := c.Param("id")
    if showtimeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    if err := h.Gateway.Store().DeleteShowtime(c.Request().Context(), showtimeID); err != nil {
        return h.fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
