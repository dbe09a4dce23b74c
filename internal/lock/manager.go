// Package lock implements time-bounded exclusive claims on seats.  The
// manager is the sole owner of lock lifetime: locks are granted with a
// fresh TTL, refreshed on re-acquisition by the same holder, and
// reclaimed by a background sweeper when the holder never releases them.
// Lock state lives entirely in process memory; durable seat status is
// the registry's business.
package lock

import (
    "context"
    "time"

    "github.com/cinetick/seatlock/internal/model"
    "github.com/cinetick/seatlock/internal/observability"
)

// DefaultTTL is the lock lifetime granted on acquisition.  It balances
// the time a customer needs to finish checkout against how long a
// crashed client can starve a seat.
const DefaultTTL = 90 * time.Second

// DefaultSweepInterval is how often the background sweeper scans for
// expired locks.  It must stay materially shorter than the TTL so the
// staleness window after a client crash is bounded by seconds.
const DefaultSweepInterval = 5 * time.Second

// AcquireResult reports the outcome of an all-or-nothing acquisition.
// When OK is false, ConflictingIDs lists every requested seat that held
// an active lock owned by another holder; nothing was granted.
type AcquireResult struct {
    OK             bool
    ConflictingIDs []string
    ExpiresAt      time.Time
}

// Manager grants and revokes seat locks.  Locks are sharded per
// showtime; operations on different showtimes never contend.  The
// per-shard mutex makes multi-seat acquisition atomic: two overlapping
// acquire calls are serialized, so each sees either all or none of the
// other's locks.
type Manager struct {
    ttl   time.Duration
    sweep time.Duration
    now   func() time.Time // injectable clock for expiry tests

    shards *shardMap
    logger observability.Logger
}

// NewManager returns a Manager with the given TTL and sweep interval.
// Non-positive values fall back to the defaults.
func NewManager(ttl, sweep time.Duration, logger observability.Logger) *Manager {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    if sweep <= 0 {
        sweep = DefaultSweepInterval
    }
    return &Manager{
        ttl:    ttl,
        sweep:  sweep,
        now:    time.Now,
        shards: newShardMap(),
        logger: logger,
    }
}

// TTL returns the configured lock lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// SetClock replaces the manager's time source.  Expiry is defined
// relative to this clock, which lets tests step time forward instead of
// sleeping through real TTLs.
func (m *Manager) SetClock(now func() time.Time) {
    if now != nil {
        m.now = now
    }
}

// Acquire atomically attempts to claim every seat in seatIDs for
// holder.  It succeeds only if no requested seat carries an active lock
// owned by a different holder; on any conflict nothing is granted and
// the contended ids are reported.  Re-acquiring one's own locks
// refreshes their TTL, which is what keeps a healthy client's selection
// alive across repeated toggles.
func (m *Manager) Acquire(showtimeID string, seatIDs []string, holder string) AcquireResult {
    sh := m.shards.get(showtimeID)
    sh.mu.Lock()
    defer sh.mu.Unlock()

    now := m.now()
    var conflicts []string
    for _, id := range seatIDs {
        if l, ok := sh.locks[id]; ok && l.Active(now) && l.Holder != holder {
            conflicts = append(conflicts, id)
        }
    }
    if len(conflicts) > 0 {
        return AcquireResult{OK: false, ConflictingIDs: conflicts}
    }
    expiresAt := now.Add(m.ttl)
    for _, id := range seatIDs {
        if _, ok := sh.locks[id]; !ok {
            observability.ActiveLocks.Inc()
        }
        sh.locks[id] = model.SeatLock{
            SeatID:     id,
            ShowtimeID: showtimeID,
            Holder:     holder,
            AcquiredAt: now,
            ExpiresAt:  expiresAt,
        }
    }
    return AcquireResult{OK: true, ExpiresAt: expiresAt}
}

// Release removes the locks on seatIDs that are owned by holder.
// Releasing a seat locked by someone else, or not locked at all, is a
// no-op: clients release on disconnect without knowing what they still
// hold, and that cleanup must never fail.
func (m *Manager) Release(showtimeID string, seatIDs []string, holder string) {
    sh := m.shards.get(showtimeID)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    for _, id := range seatIDs {
        if l, ok := sh.locks[id]; ok && l.Holder == holder {
            delete(sh.locks, id)
            observability.ActiveLocks.Dec()
        }
    }
}

// Clear unconditionally removes the locks on seatIDs regardless of
// owner.  Used by the commit path once seats turn OCCUPIED.
func (m *Manager) Clear(showtimeID string, seatIDs []string) {
    sh := m.shards.get(showtimeID)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    for _, id := range seatIDs {
        if _, ok := sh.locks[id]; ok {
            delete(sh.locks, id)
            observability.ActiveLocks.Dec()
        }
    }
}

// IsLocked reports whether an active, non-expired lock exists on the
// seat.
func (m *Manager) IsLocked(showtimeID, seatID string) bool {
    _, ok := m.HolderOf(showtimeID, seatID)
    return ok
}

// HolderOf returns the holder of the active lock on a seat, if any.
// Expired locks are invisible even before the sweeper removes them.
func (m *Manager) HolderOf(showtimeID, seatID string) (string, bool) {
    sh := m.shards.get(showtimeID)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    l, ok := sh.locks[seatID]
    if !ok || !l.Active(m.now()) {
        return "", false
    }
    return l.Holder, true
}

// ActiveLocks returns a snapshot of the active locks for a showtime,
// keyed by seat id.  The reservation gateway overlays this on registry
// state to compute effective seat status.
func (m *Manager) ActiveLocks(showtimeID string) map[string]model.SeatLock {
    sh := m.shards.get(showtimeID)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    now := m.now()
    out := make(map[string]model.SeatLock, len(sh.locks))
    for id, l := range sh.locks {
        if l.Active(now) {
            out[id] = l
        }
    }
    return out
}

// Sweep removes every expired lock across all showtimes and returns the
// number reclaimed.  Expired locks are already invisible to reads; the
// sweep exists so memory and metrics do not grow with abandoned
// sessions, and so expiry happens even when no client polls.
func (m *Manager) Sweep() int {
    now := m.now()
    reclaimed := 0
    for _, sh := range m.shards.all() {
        sh.mu.Lock()
        for id, l := range sh.locks {
            if !l.Active(now) {
                delete(sh.locks, id)
                reclaimed++
            }
        }
        sh.mu.Unlock()
    }
    if reclaimed > 0 {
        observability.ActiveLocks.Sub(float64(reclaimed))
        observability.ExpiredLocks.Add(float64(reclaimed))
        if m.logger != nil {
            m.logger.WithField("reclaimed", reclaimed).Debug("lock sweep reclaimed expired locks")
        }
    }
    return reclaimed
}

// Run drives the TTL sweeper until ctx is cancelled.  It is timer
// driven, not client driven: a showtime with no traffic still gets its
// stale locks reclaimed within one sweep interval past expiry.
func (m *Manager) Run(ctx context.Context) {
    ticker := time.NewTicker(m.sweep)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            m.Sweep()
        }
    }
}
