package repository

import (
    "context"
    "sync"

    "github.com/cinetick/seatlock/internal/model"
)

// MemorySeatStore keeps the seat registry in process memory.  It backs
// single-node deployments that do not need MySQL durability (the lock
// overlay is in-memory anyway) and is the store used throughout the
// test suite.  All methods are safe for concurrent use.
type MemorySeatStore struct {
    mu        sync.RWMutex
    showtimes map[string]model.Showtime
    seats     map[string]model.Seat            // seat id -> seat
    byShow    map[string][]string              // showtime id -> seat ids in insert order
}

// NewMemorySeatStore returns an empty in-memory seat registry.
func NewMemorySeatStore() *MemorySeatStore {
    return &MemorySeatStore{
        showtimes: make(map[string]model.Showtime),
        seats:     make(map[string]model.Seat),
        byShow:    make(map[string][]string),
    }
}

// ListByShowtime returns all seats of a showtime with their
// authoritative status, or ErrShowtimeNotFound for an unknown id.
func (m *MemorySeatStore) ListByShowtime(_ context.Context, showtimeID string) ([]model.Seat, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if _, ok := m.showtimes[showtimeID]; !ok {
        return nil, ErrShowtimeNotFound
    }
    ids := m.byShow[showtimeID]
    out := make([]model.Seat, 0, len(ids))
    for _, id := range ids {
        out = append(out, m.seats[id])
    }
    return out, nil
}

// GetSeats loads the given seat ids in request order.  Any unknown id
// fails the whole call with ErrSeatNotFound.
func (m *MemorySeatStore) GetSeats(_ context.Context, seatIDs []string) ([]model.Seat, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := make([]model.Seat, 0, len(seatIDs))
    for _, id := range seatIDs {
        s, ok := m.seats[id]
        if !ok {
            return nil, ErrSeatNotFound
        }
        out = append(out, s)
    }
    return out, nil
}

// SetStatus writes a new authoritative status for one seat.  LOCKED and
// unknown values are rejected with ErrInvalidTransition.
func (m *MemorySeatStore) SetStatus(_ context.Context, seatID string, status model.SeatStatus) error {
    if !status.Persistable() {
        return ErrInvalidTransition
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return ErrSeatNotFound
    }
    s.Status = status
    m.seats[seatID] = s
    return nil
}

// CreateShowtime registers a showtime and its seat map.  Seat statuses
// must be persistable; the id must not already exist.
func (m *MemorySeatStore) CreateShowtime(_ context.Context, st model.Showtime, seats []model.Seat) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.showtimes[st.ID]; ok {
        return ErrShowtimeExists
    }
    batch := make(map[string]struct{}, len(seats))
    for _, s := range seats {
        if !s.Status.Persistable() {
            return ErrInvalidTransition
        }
        // Seat ids are global: a reused id would let the new showtime
        // shadow, and its deletion destroy, another showtime's seat.
        if _, ok := m.seats[s.ID]; ok {
            return ErrSeatExists
        }
        if _, ok := batch[s.ID]; ok {
            return ErrSeatExists
        }
        batch[s.ID] = struct{}{}
    }
    m.showtimes[st.ID] = st
    ids := make([]string, 0, len(seats))
    for _, s := range seats {
        s.ShowtimeID = st.ID
        m.seats[s.ID] = s
        ids = append(ids, s.ID)
    }
    m.byShow[st.ID] = ids
    return nil
}

// DeleteShowtime drops a showtime and every seat scoped to it.
func (m *MemorySeatStore) DeleteShowtime(_ context.Context, showtimeID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.showtimes[showtimeID]; !ok {
        return ErrShowtimeNotFound
    }
    for _, id := range m.byShow[showtimeID] {
        delete(m.seats, id)
    }
    delete(m.byShow, showtimeID)
    delete(m.showtimes, showtimeID)
    return nil
}
