package model

import (
    "strconv"
    "unicode"
)

// SeatType classifies a seat within a showtime.  PAIR seats are sold in
// adjacent couples and are always locked, released and occupied as one
// unit; the grouping itself is derived at read time and never stored.
type SeatType string

const (
    SeatTypeRegular SeatType = "REGULAR" // standard seat
    SeatTypeVIP     SeatType = "VIP"     // premium seat
    SeatTypePair    SeatType = "PAIR"    // couple seat, grouped with its row neighbour
)

// SeatStatus is the effective availability of a seat.  The registry only
// ever persists AVAILABLE, OCCUPIED and MAINTENANCE; LOCKED is an overlay
// computed from the lock manager on every read and must never be written
// to durable storage.
type SeatStatus string

const (
    StatusAvailable   SeatStatus = "AVAILABLE"
    StatusLocked      SeatStatus = "LOCKED"
    StatusOccupied    SeatStatus = "OCCUPIED"
    StatusMaintenance SeatStatus = "MAINTENANCE"
)

// Persistable reports whether a status may be stored in the seat registry.
// LOCKED is transient by definition and unknown strings are rejected so a
// typo can never poison the seat table.
func (s SeatStatus) Persistable() bool {
    switch s {
    case StatusAvailable, StatusOccupied, StatusMaintenance:
        return true
    }
    return false
}

// Seat describes one physical seat of a showtime.  Seats are scoped to a
// single showtime: two showings in the same room get independent seat rows.
//
// Fields:
//  ID         – opaque identifier, unique across the deployment.
//  ShowtimeID – showtime this seat belongs to.
//  Position   – row letter followed by column number, e.g. "A12".
//  Type       – REGULAR, VIP or PAIR.
//  PriceCents – price in a currency-agnostic cent unit.
//  Status     – authoritative status (never LOCKED, see SeatStatus).
type Seat struct {
    ID         string     `json:"seatId"`
    ShowtimeID string     `json:"showtimeId"`
    Position   string     `json:"position"`
    Type       SeatType   `json:"type"`
    PriceCents uint32     `json:"price"`
    Status     SeatStatus `json:"status"`
}

// Row returns the row label of the seat position: the leading run of
// letters.  A malformed position degrades to its first character, which
// mirrors how the booking client normalises seat data.
func (s Seat) Row() string {
    for i, r := range s.Position {
        if unicode.IsDigit(r) {
            return s.Position[:i]
        }
    }
    return s.Position
}

// Col returns the column number of the seat position.  Positions without
// a parsable number yield 0.
func (s Seat) Col() int {
    for i, r := range s.Position {
        if unicode.IsDigit(r) {
            n, err := strconv.Atoi(s.Position[i:])
            if err != nil {
                return 0
            }
            return n
        }
    }
    return 0
}
