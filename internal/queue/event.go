// Package queue defines message payloads exchanged over the message
// broker and the background consumer that audits committed bookings.
package queue

// SeatsCommittedEvent is published when a booking finalizer commits a
// holder's locked seats into permanent occupancy.  It carries enough
// information for downstream consumers to log, notify, or feed
// analytics without querying the seat registry.
type SeatsCommittedEvent struct {
    BookingID   string   `json:"booking_id"`
    ShowtimeID  string   `json:"showtime_id"`
    SeatIDs     []string `json:"seat_ids"`
    Holder      string   `json:"holder"`
    TotalCents  uint32   `json:"total_cents"`
    CommittedAt string   `json:"committed_at"`
}
