// Package reservation implements the client-facing reservation gateway.
// It composes the seat registry, the lock manager and the pair resolver
// under one atomic contract: every multi-seat mutation for a showtime is
// serialized through a per-showtime mutex, so two concurrent requests can
// never each grant half of an overlapping pair group.
package reservation

import (
    "context"
    "errors"
    "sort"
    "time"

    "github.com/cinetick/seatlock/internal/lock"
    "github.com/cinetick/seatlock/internal/model"
    "github.com/cinetick/seatlock/internal/observability"
    "github.com/cinetick/seatlock/internal/pair"
    "github.com/cinetick/seatlock/internal/queue"
    "github.com/cinetick/seatlock/internal/repository"
)

// SeatStore is the registry contract the gateway depends on.  It is
// satisfied by repository.SeatRepo (MySQL) and repository.MemorySeatStore.
type SeatStore interface {
    ListByShowtime(ctx context.Context, showtimeID string) ([]model.Seat, error)
    GetSeats(ctx context.Context, seatIDs []string) ([]model.Seat, error)
    SetStatus(ctx context.Context, seatID string, status model.SeatStatus) error
    CreateShowtime(ctx context.Context, st model.Showtime, seats []model.Seat) error
    DeleteShowtime(ctx context.Context, showtimeID string) error
}

// EventPublisher receives the event emitted when locked seats are
// committed into permanent occupancy.  A nil publisher disables events.
type EventPublisher interface {
    PublishSeatsCommitted(ctx context.Context, ev queue.SeatsCommittedEvent) error
}

// SeatView is one seat as presented to the polling client: the embedded
// Status carries the effective (overlay) value, CombinedStatus folds in
// the seat's pair partner, and Mine marks locks owned by the requesting
// session.  Pairs are not collapsed; the client merges members using
// CombinedStatus.
type SeatView struct {
    model.Seat
    CombinedStatus model.SeatStatus `json:"combinedStatus"`
    Mine           bool             `json:"mine"`
}

// LockResult is the typed outcome of Lock and ToggleSelect.  Contention
// is reported here, never as a Go error: losing a race for a seat is
// expected steady-state traffic.
type LockResult struct {
    Success        bool      `json:"success"`
    Released       bool      `json:"released,omitempty"`
    ConflictingIDs []string  `json:"conflictingIds,omitempty"`
    ExpiresAt      time.Time `json:"expiresAt,omitempty"`
}

// Gateway exposes the reservation operations the booking UI and the
// booking finalizer call.
type Gateway struct {
    store     SeatStore
    locks     *lock.Manager
    publisher EventPublisher
    logger    observability.Logger

    showtimes *keyedMutex
}

// NewGateway wires a Gateway.  store and locks must be non-nil;
// publisher may be nil when no broker is configured.
func NewGateway(store SeatStore, locks *lock.Manager, publisher EventPublisher, logger observability.Logger) *Gateway {
    if store == nil || locks == nil {
        panic("nil dependency passed to NewGateway")
    }
    return &Gateway{
        store:     store,
        locks:     locks,
        publisher: publisher,
        logger:    logger,
        showtimes: newKeyedMutex(),
    }
}

// Locks exposes the underlying lock manager, mainly so the server can
// run its sweeper.
func (g *Gateway) Locks() *lock.Manager { return g.locks }

// Store exposes the underlying seat store for admin operations.
func (g *Gateway) Store() SeatStore { return g.store }

// GetSeats returns the seat map of a showtime with the lock overlay and
// pair grouping applied.  It is the read behind the client's ~1s poll;
// one poll interval of staleness on remote lock changes is the accepted
// consistency bound.
func (g *Gateway) GetSeats(ctx context.Context, showtimeID, holder string) ([]SeatView, error) {
    seats, err := g.store.ListByShowtime(ctx, showtimeID)
    if err != nil {
        return nil, err
    }
    active := g.locks.ActiveLocks(showtimeID)

    effective := make(map[string]model.SeatStatus, len(seats))
    for _, s := range seats {
        effective[s.ID] = overlayStatus(s.Status, active, s.ID)
    }

    out := make([]SeatView, 0, len(seats))
    for _, s := range seats {
        group := pair.GroupOf(s.ID, seats)
        statuses := make([]model.SeatStatus, 0, len(group))
        for _, id := range group {
            statuses = append(statuses, effective[id])
        }
        l, locked := active[s.ID]
        view := SeatView{Seat: s, CombinedStatus: pair.CombinedStatus(statuses), Mine: locked && l.Holder == holder}
        view.Status = effective[s.ID]
        out = append(out, view)
    }
    return out, nil
}

// Lock attempts to claim the requested seats for holder.  Each id is
// expanded to its full pair group and the union is acquired all or
// nothing.  Occupied or maintenance members fail the request with their
// ids listed, as does an active lock held by another session; in both
// cases the result, not an error, carries the outcome.
func (g *Gateway) Lock(ctx context.Context, holder string, seatIDs []string) (LockResult, error) {
    ids := dedupe(seatIDs)
    if len(ids) == 0 {
        return LockResult{}, ErrNoSeats
    }
    showtimeID, err := g.resolveShowtime(ctx, ids)
    if err != nil {
        return LockResult{}, err
    }

    unlock := g.showtimes.lock(showtimeID)
    defer unlock()

    seats, err := g.store.ListByShowtime(ctx, showtimeID)
    if err != nil {
        return LockResult{}, err
    }
    group := expandGroups(ids, seats)

    // Occupied and maintenance seats can never be locked; report them
    // before touching the lock manager so the result lists every
    // blocked member of the expanded group.
    var blocked []string
    byID := seatIndex(seats)
    for _, id := range group {
        switch byID[id].Status {
        case model.StatusOccupied, model.StatusMaintenance:
            blocked = append(blocked, id)
        }
    }
    if len(blocked) > 0 {
        observability.LockAttempts.WithLabelValues("unavailable").Inc()
        return LockResult{Success: false, ConflictingIDs: blocked}, nil
    }

    res := g.locks.Acquire(showtimeID, group, holder)
    if !res.OK {
        observability.LockAttempts.WithLabelValues("conflict").Inc()
        if g.logger != nil {
            g.logger.WithField("holder", holder).WithField("conflicts", res.ConflictingIDs).Debug("seat lock conflict")
        }
        return LockResult{Success: false, ConflictingIDs: res.ConflictingIDs}, nil
    }
    observability.LockAttempts.WithLabelValues("granted").Inc()
    return LockResult{Success: true, ExpiresAt: res.ExpiresAt}, nil
}

// Release drops holder's locks on the requested seats and their pair
// partners.  It is idempotent by contract: unknown ids and seats locked
// by other holders are ignored so that best-effort cleanup on client
// disconnect can never fail.
func (g *Gateway) Release(ctx context.Context, holder string, seatIDs []string) error {
    ids := dedupe(seatIDs)
    if len(ids) == 0 {
        return nil
    }
    known, err := g.store.GetSeats(ctx, ids)
    if errors.Is(err, repository.ErrSeatNotFound) {
        // Unknown ids are dropped one by one rather than failing the
        // whole call; release must stay a no-op for stale client state.
        // Any other failure is infrastructure, not staleness, and
        // propagates so the client retries instead of leaking locks.
        known, err = g.filterKnown(ctx, ids)
    }
    if err != nil {
        return err
    }
    byShow := make(map[string][]string)
    for _, s := range known {
        byShow[s.ShowtimeID] = append(byShow[s.ShowtimeID], s.ID)
    }
    for showtimeID, ids := range byShow {
        unlock := g.showtimes.lock(showtimeID)
        seats, err := g.store.ListByShowtime(ctx, showtimeID)
        if err != nil {
            unlock()
            return err
        }
        g.locks.Release(showtimeID, expandGroups(ids, seats), holder)
        unlock()
    }
    return nil
}

// ToggleSelect is the operation behind a seat click: when the seat's
// full pair group is currently locked by holder it releases the group,
// otherwise it attempts to lock it.
func (g *Gateway) ToggleSelect(ctx context.Context, holder, seatID string) (LockResult, error) {
    showtimeID, err := g.resolveShowtime(ctx, []string{seatID})
    if err != nil {
        return LockResult{}, err
    }

    unlock := g.showtimes.lock(showtimeID)
    defer unlock()

    seats, err := g.store.ListByShowtime(ctx, showtimeID)
    if err != nil {
        return LockResult{}, err
    }
    group := pair.GroupOf(seatID, seats)

    mine := true
    for _, id := range group {
        h, ok := g.locks.HolderOf(showtimeID, id)
        if !ok || h != holder {
            mine = false
            break
        }
    }
    if mine {
        g.locks.Release(showtimeID, group, holder)
        return LockResult{Success: true, Released: true}, nil
    }

    byID := seatIndex(seats)
    var blocked []string
    for _, id := range group {
        switch byID[id].Status {
        case model.StatusOccupied, model.StatusMaintenance:
            blocked = append(blocked, id)
        }
    }
    if len(blocked) > 0 {
        observability.LockAttempts.WithLabelValues("unavailable").Inc()
        return LockResult{Success: false, ConflictingIDs: blocked}, nil
    }
    res := g.locks.Acquire(showtimeID, group, holder)
    if !res.OK {
        observability.LockAttempts.WithLabelValues("conflict").Inc()
        return LockResult{Success: false, ConflictingIDs: res.ConflictingIDs}, nil
    }
    observability.LockAttempts.WithLabelValues("granted").Inc()
    return LockResult{Success: true, ExpiresAt: res.ExpiresAt}, nil
}

// CheckAvailability reports, per requested seat id, whether holder
// could lock it right now: the seat is AVAILABLE in the registry and
// carries no active lock owned by another session.
func (g *Gateway) CheckAvailability(ctx context.Context, holder string, seatIDs []string) (map[string]bool, error) {
    ids := dedupe(seatIDs)
    if len(ids) == 0 {
        return nil, ErrNoSeats
    }
    seats, err := g.store.GetSeats(ctx, ids)
    if err != nil {
        return nil, err
    }
    out := make(map[string]bool, len(seats))
    for _, s := range seats {
        if s.Status != model.StatusAvailable {
            out[s.ID] = false
            continue
        }
        h, locked := g.locks.HolderOf(s.ShowtimeID, s.ID)
        out[s.ID] = !locked || h == holder
    }
    return out, nil
}

// Commit finalizes a booking: every seat must currently be locked by
// holder, after which the registry status turns OCCUPIED and the locks
// are cleared.  A lock that expired between selection and checkout
// fails the whole commit with ErrStaleLock; the finalizer is expected
// to send the customer back to seat selection.  Seats are committed
// exactly as listed — the finalizer passes the already-expanded group.
func (g *Gateway) Commit(ctx context.Context, holder string, seatIDs []string, bookingID string) error {
    ids := dedupe(seatIDs)
    if len(ids) == 0 {
        return ErrNoSeats
    }
    seats, err := g.store.GetSeats(ctx, ids)
    if err != nil {
        return err
    }
    showtimeID := seats[0].ShowtimeID
    for _, s := range seats {
        if s.ShowtimeID != showtimeID {
            return ErrMixedShowtimes
        }
    }

    unlock := g.showtimes.lock(showtimeID)
    defer unlock()

    var total uint32
    for _, s := range seats {
        switch s.Status {
        case model.StatusOccupied, model.StatusMaintenance:
            return ErrSeatUnavailable
        }
        h, ok := g.locks.HolderOf(showtimeID, s.ID)
        if !ok || h != holder {
            observability.StaleCommits.Inc()
            return ErrStaleLock
        }
        total += s.PriceCents
    }

    for _, s := range seats {
        if err := g.store.SetStatus(ctx, s.ID, model.StatusOccupied); err != nil {
            if g.logger != nil {
                g.logger.WithField("seat", s.ID).Error("commit status write failed: ", err)
            }
            return err
        }
    }
    g.locks.Clear(showtimeID, ids)
    observability.Commits.Add(float64(len(ids)))

    if g.publisher != nil {
        ev := queue.SeatsCommittedEvent{
            BookingID:   bookingID,
            ShowtimeID:  showtimeID,
            SeatIDs:     ids,
            Holder:      holder,
            TotalCents:  total,
            CommittedAt: time.Now().UTC().Format(time.RFC3339),
        }
        if err := g.publisher.PublishSeatsCommitted(ctx, ev); err != nil && g.logger != nil {
            // Event delivery is best effort; the commit itself stands.
            g.logger.Warn("seats committed event publish failed: ", err)
        }
    }
    return nil
}

// SetSeatStatus writes an authoritative status for one seat under the
// showtime's mutex, so the write cannot interleave with a concurrent
// lock validation on the same showtime.  Moving a seat into
// MAINTENANCE drops any lock still held on it; the holder's next poll
// shows the seat gone from their selection.
func (g *Gateway) SetSeatStatus(ctx context.Context, seatID string, status model.SeatStatus) error {
    showtimeID, err := g.resolveShowtime(ctx, []string{seatID})
    if err != nil {
        return err
    }
    unlock := g.showtimes.lock(showtimeID)
    defer unlock()
    if err := g.store.SetStatus(ctx, seatID, status); err != nil {
        return err
    }
    if status == model.StatusMaintenance {
        g.locks.Clear(showtimeID, []string{seatID})
    }
    return nil
}

// resolveShowtime loads the requested seats and returns their common
// showtime id, rejecting requests that span showtimes.
func (g *Gateway) resolveShowtime(ctx context.Context, seatIDs []string) (string, error) {
    seats, err := g.store.GetSeats(ctx, seatIDs)
    if err != nil {
        return "", err
    }
    if len(seats) == 0 {
        return "", ErrNoSeats
    }
    showtimeID := seats[0].ShowtimeID
    for _, s := range seats {
        if s.ShowtimeID != showtimeID {
            return "", ErrMixedShowtimes
        }
    }
    return showtimeID, nil
}

// filterKnown returns the seats among ids that exist.  Unknown ids are
// dropped; any other store failure is returned.
func (g *Gateway) filterKnown(ctx context.Context, ids []string) ([]model.Seat, error) {
    known := make([]model.Seat, 0, len(ids))
    for _, id := range ids {
        seats, err := g.store.GetSeats(ctx, []string{id})
        if errors.Is(err, repository.ErrSeatNotFound) {
            continue
        }
        if err != nil {
            return nil, err
        }
        if len(seats) == 1 {
            known = append(known, seats[0])
        }
    }
    return known, nil
}

// overlayStatus computes a seat's effective status: durable OCCUPIED
// and MAINTENANCE win outright, an active lock overlays LOCKED on an
// AVAILABLE row, otherwise the registry value stands.
func overlayStatus(stored model.SeatStatus, active map[string]model.SeatLock, seatID string) model.SeatStatus {
    switch stored {
    case model.StatusOccupied, model.StatusMaintenance:
        return stored
    }
    if _, ok := active[seatID]; ok {
        return model.StatusLocked
    }
    return stored
}

// expandGroups unions the pair groups of the given ids, sorted and
// deduplicated, so a request for one half of a couple always covers
// both halves exactly once.
func expandGroups(ids []string, seats []model.Seat) []string {
    set := make(map[string]struct{}, len(ids)*2)
    for _, id := range ids {
        for _, member := range pair.GroupOf(id, seats) {
            set[member] = struct{}{}
        }
    }
    out := make([]string, 0, len(set))
    for id := range set {
        out = append(out, id)
    }
    sort.Strings(out)
    return out
}

// seatIndex builds a lookup of seats by id.
func seatIndex(seats []model.Seat) map[string]model.Seat {
    byID := make(map[string]model.Seat, len(seats))
    for _, s := range seats {
        byID[s.ID] = s
    }
    return byID
}

// dedupe removes empty and duplicate ids preserving order.
func dedupe(ids []string) []string {
    seen := make(map[string]struct{}, len(ids))
    out := make([]string, 0, len(ids))
    for _, id := range ids {
        if id == "" {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
