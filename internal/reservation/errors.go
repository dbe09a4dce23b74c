package reservation

import "errors"

// ErrSeatUnavailable is returned when an operation targets a seat that
// is OCCUPIED or under MAINTENANCE.  Unlike lock contention this is not
// retryable for that seat; handlers translate it into HTTP 409.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrStaleLock is returned by Commit when a seat is no longer locked by
// the committing holder, typically because the lock expired while the
// customer sat in checkout.  The caller must restart seat selection.
var ErrStaleLock = errors.New("lock expired before commit")

// ErrMixedShowtimes is returned when one multi-seat request references
// seats from more than one showtime.  Atomicity is only guaranteed per
// showtime, so such requests are rejected outright.
var ErrMixedShowtimes = errors.New("seats span multiple showtimes")

// ErrNoSeats is returned when a request carries no usable seat ids.
var ErrNoSeats = errors.New("no seat ids provided")
