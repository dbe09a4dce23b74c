package model

import "time"

// SeatLock is a short-lived exclusive claim on a seat held by one client
// session.  It is distinct from the seat's durable status: an active lock
// overlays LOCKED on top of an AVAILABLE registry row.  At most one
// active (non-expired) lock exists per seat at any time.
type SeatLock struct {
    SeatID     string    `json:"seatId"`
    ShowtimeID string    `json:"showtimeId"`
    Holder     string    `json:"holder"`
    AcquiredAt time.Time `json:"acquiredAt"`
    ExpiresAt  time.Time `json:"expiresAt"`
}

// Active reports whether the lock is still valid at the given instant.
func (l SeatLock) Active(now time.Time) bool {
    return now.Before(l.ExpiresAt)
}
