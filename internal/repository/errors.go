// Package repository provides the durable seat registry: the source of
// truth for seat identity and authoritative status per showtime.  Two
// implementations exist, a MySQL-backed SeatRepo and an in-process
// MemorySeatStore; both enforce the same rule that the transient LOCKED
// state is never written to storage.
//
// The sentinel errors below are shared across implementations so that
// higher layers can distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrSeatNotFound is returned when a referenced seat does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrShowtimeNotFound is returned when a referenced showtime does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrShowtimeExists is returned when creating a showtime whose id is
// already registered. Handlers should translate this into an HTTP 409.
var ErrShowtimeExists = errors.New("showtime already exists")

// ErrSeatExists is returned when a showtime registration carries a seat
// id that is already registered, under this or any other showtime.
// Seat ids are resolved globally by every lock and commit operation, so
// a collision would let one showtime's traffic corrupt another's seats.
// Handlers should translate this into an HTTP 409.
var ErrSeatExists = errors.New("seat id already registered")

// ErrInvalidTransition is returned when a status write would store a
// value the registry must never persist (LOCKED, or an unknown status).
// This indicates a programming or data error, not expected contention,
// and is the one registry failure worth logging at error level.
var ErrInvalidTransition = errors.New("invalid status transition")
