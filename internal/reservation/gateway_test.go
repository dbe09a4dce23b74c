package reservation

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/cinetick/seatlock/internal/lock"
    "github.com/cinetick/seatlock/internal/model"
    "github.com/cinetick/seatlock/internal/queue"
    "github.com/cinetick/seatlock/internal/repository"
)

// capturePublisher records committed-seat events instead of talking to
// a broker.
type capturePublisher struct {
    mu     sync.Mutex
    events []queue.SeatsCommittedEvent
}

func (p *capturePublisher) PublishSeatsCommitted(_ context.Context, ev queue.SeatsCommittedEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

type fakeClock struct {
    mu sync.Mutex
    t  time.Time
}

func (f *fakeClock) now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.t
}

func (f *fakeClock) advance(d time.Duration) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.t = f.t.Add(d)
}

// newTestGateway seeds two showtimes:
//
//	st1: A1 A2 regular, A3 vip, B1..B4 pair (chunks B1+B2, B3+B4),
//	     C1 pair without a partner, D1 regular
//	st2: E1 regular
func newTestGateway(t *testing.T) (*Gateway, *capturePublisher, *fakeClock) {
    t.Helper()
    store := repository.NewMemorySeatStore()
    ctx := context.Background()

    seats := []model.Seat{
        {ID: "A1", Position: "A1", Type: model.SeatTypeRegular, PriceCents: 1000, Status: model.StatusAvailable},
        {ID: "A2", Position: "A2", Type: model.SeatTypeRegular, PriceCents: 1000, Status: model.StatusAvailable},
        {ID: "A3", Position: "A3", Type: model.SeatTypeVIP, PriceCents: 2000, Status: model.StatusAvailable},
        {ID: "B1", Position: "B1", Type: model.SeatTypePair, PriceCents: 1500, Status: model.StatusAvailable},
        {ID: "B2", Position: "B2", Type: model.SeatTypePair, PriceCents: 1500, Status: model.StatusAvailable},
        {ID: "B3", Position: "B3", Type: model.SeatTypePair, PriceCents: 1500, Status: model.StatusAvailable},
        {ID: "B4", Position: "B4", Type: model.SeatTypePair, PriceCents: 1500, Status: model.StatusAvailable},
        {ID: "C1", Position: "C1", Type: model.SeatTypePair, PriceCents: 1500, Status: model.StatusAvailable},
        {ID: "D1", Position: "D1", Type: model.SeatTypeRegular, PriceCents: 1000, Status: model.StatusAvailable},
    }
    if err := store.CreateShowtime(ctx, model.Showtime{ID: "st1", MovieTitle: "Example"}, seats); err != nil {
        t.Fatal(err)
    }
    if err := store.CreateShowtime(ctx, model.Showtime{ID: "st2"}, []model.Seat{
        {ID: "E1", Position: "A1", Type: model.SeatTypeRegular, PriceCents: 1000, Status: model.StatusAvailable},
    }); err != nil {
        t.Fatal(err)
    }

    locks := lock.NewManager(60*time.Second, 5*time.Second, nil)
    clk := &fakeClock{t: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
    locks.SetClock(clk.now)

    pub := &capturePublisher{}
    return NewGateway(store, locks, pub, nil), pub, clk
}

func viewByID(t *testing.T, views []SeatView, id string) SeatView {
    t.Helper()
    for _, v := range views {
        if v.ID == id {
            return v
        }
    }
    t.Fatalf("seat %s missing from views", id)
    return SeatView{}
}

func TestLockConflictAndRetry(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    res, err := gw.Lock(ctx, "alice", []string{"A1"})
    if err != nil || !res.Success {
        t.Fatalf("alice lock failed: res=%+v err=%v", res, err)
    }
    res, err = gw.Lock(ctx, "bob", []string{"A1"})
    if err != nil {
        t.Fatal(err)
    }
    if res.Success {
        t.Fatal("bob should conflict while alice holds A1")
    }
    if len(res.ConflictingIDs) != 1 || res.ConflictingIDs[0] != "A1" {
        t.Fatalf("conflicts = %v, want [A1]", res.ConflictingIDs)
    }
    if err := gw.Release(ctx, "alice", []string{"A1"}); err != nil {
        t.Fatal(err)
    }
    res, err = gw.Lock(ctx, "bob", []string{"A1"})
    if err != nil || !res.Success {
        t.Fatalf("bob retry after release failed: res=%+v err=%v", res, err)
    }
}

func TestPairLockLocksBoth(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    res, err := gw.Lock(ctx, "alice", []string{"B1"})
    if err != nil || !res.Success {
        t.Fatalf("pair lock failed: res=%+v err=%v", res, err)
    }
    views, err := gw.GetSeats(ctx, "st1", "alice")
    if err != nil {
        t.Fatal(err)
    }
    for _, id := range []string{"B1", "B2"} {
        v := viewByID(t, views, id)
        if v.Status != model.StatusLocked {
            t.Errorf("%s status = %s, want LOCKED", id, v.Status)
        }
        if v.CombinedStatus != model.StatusLocked {
            t.Errorf("%s combined = %s, want LOCKED", id, v.CombinedStatus)
        }
        if !v.Mine {
            t.Errorf("%s should be marked mine for alice", id)
        }
    }
    // The other chunk is untouched.
    if v := viewByID(t, views, "B3"); v.Status != model.StatusAvailable {
        t.Errorf("B3 status = %s, want AVAILABLE", v.Status)
    }

    // Releasing via the partner id drops both.
    if err := gw.Release(ctx, "alice", []string{"B2"}); err != nil {
        t.Fatal(err)
    }
    views, _ = gw.GetSeats(ctx, "st1", "alice")
    for _, id := range []string{"B1", "B2"} {
        if v := viewByID(t, views, id); v.Status != model.StatusAvailable {
            t.Errorf("%s status after release = %s, want AVAILABLE", id, v.Status)
        }
    }
}

func TestPairNeverSplitsAcrossHolders(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    if res, _ := gw.Lock(ctx, "bob", []string{"B2"}); !res.Success {
        t.Fatal("bob pair lock failed")
    }
    res, err := gw.Lock(ctx, "alice", []string{"B1"})
    if err != nil {
        t.Fatal(err)
    }
    if res.Success {
        t.Fatal("alice must not lock a pair bob already holds")
    }
    // Nothing of alice's request was granted.
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    for _, id := range []string{"B1", "B2"} {
        if v := viewByID(t, views, id); v.Mine {
            t.Errorf("%s leaked to alice", id)
        }
    }
}

func TestPairMemberUnavailableBlocksGroup(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    if err := gw.Store().SetStatus(ctx, "B3", model.StatusOccupied); err != nil {
        t.Fatal(err)
    }
    res, err := gw.Lock(ctx, "alice", []string{"B4"})
    if err != nil {
        t.Fatal(err)
    }
    if res.Success {
        t.Fatal("locking a pair with an occupied member must fail")
    }
    if len(res.ConflictingIDs) != 1 || res.ConflictingIDs[0] != "B3" {
        t.Fatalf("conflicts = %v, want [B3]", res.ConflictingIDs)
    }
    // B4 was not granted either: all or nothing.
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    if v := viewByID(t, views, "B4"); v.Status != model.StatusAvailable {
        t.Fatalf("B4 status = %s, want AVAILABLE", v.Status)
    }
}

func TestOddPairSeatDegradesToSingle(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    res, err := gw.Lock(ctx, "alice", []string{"C1"})
    if err != nil || !res.Success {
        t.Fatalf("degraded single-seat lock failed: res=%+v err=%v", res, err)
    }
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    if v := viewByID(t, views, "C1"); v.Status != model.StatusLocked {
        t.Fatalf("C1 status = %s, want LOCKED", v.Status)
    }
}

func TestCombinedStatusOccupiedBeatsLocked(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    if err := gw.Store().SetStatus(ctx, "B3", model.StatusOccupied); err != nil {
        t.Fatal(err)
    }
    // Force a lock onto the partner directly; the gateway itself would
    // refuse the group, but stale state must still render correctly.
    if res := gw.Locks().Acquire("st1", []string{"B4"}, "alice"); !res.OK {
        t.Fatal("direct acquire failed")
    }
    views, err := gw.GetSeats(ctx, "st1", "alice")
    if err != nil {
        t.Fatal(err)
    }
    if v := viewByID(t, views, "B4"); v.Status != model.StatusLocked {
        t.Fatalf("B4 overlay = %s, want LOCKED", v.Status)
    }
    for _, id := range []string{"B3", "B4"} {
        if v := viewByID(t, views, id); v.CombinedStatus != model.StatusOccupied {
            t.Errorf("%s combined = %s, want OCCUPIED", id, v.CombinedStatus)
        }
    }
}

func TestToggleSelect(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    res, err := gw.ToggleSelect(ctx, "alice", "B1")
    if err != nil || !res.Success || res.Released {
        t.Fatalf("first toggle should lock: res=%+v err=%v", res, err)
    }
    res, err = gw.ToggleSelect(ctx, "alice", "B2")
    if err != nil || !res.Success || !res.Released {
        t.Fatalf("second toggle (via partner) should release: res=%+v err=%v", res, err)
    }
    // Toggling someone else's locked seat attempts a lock and conflicts.
    gw.Lock(ctx, "bob", []string{"A1"})
    res, err = gw.ToggleSelect(ctx, "alice", "A1")
    if err != nil {
        t.Fatal(err)
    }
    if res.Success {
        t.Fatal("toggle on bob's seat should conflict for alice")
    }
}

func TestCheckAvailability(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    gw.Lock(ctx, "bob", []string{"A1"})
    if err := gw.Store().SetStatus(ctx, "D1", model.StatusOccupied); err != nil {
        t.Fatal(err)
    }

    avail, err := gw.CheckAvailability(ctx, "alice", []string{"A1", "A2", "D1"})
    if err != nil {
        t.Fatal(err)
    }
    if avail["A1"] {
        t.Error("A1 is locked by bob, not available to alice")
    }
    if !avail["A2"] {
        t.Error("A2 should be available")
    }
    if avail["D1"] {
        t.Error("D1 is occupied")
    }

    // The locking session still counts its own seats as available.
    avail, _ = gw.CheckAvailability(ctx, "bob", []string{"A1"})
    if !avail["A1"] {
        t.Error("A1 should read available to its own holder")
    }
}

func TestCommitHappyPath(t *testing.T) {
    gw, pub, _ := newTestGateway(t)
    ctx := context.Background()

    if res, _ := gw.Lock(ctx, "alice", []string{"A1", "A2"}); !res.Success {
        t.Fatal("setup lock failed")
    }
    if err := gw.Commit(ctx, "alice", []string{"A1", "A2"}, "bk-1"); err != nil {
        t.Fatalf("commit failed: %v", err)
    }
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    for _, id := range []string{"A1", "A2"} {
        if v := viewByID(t, views, id); v.Status != model.StatusOccupied {
            t.Errorf("%s status = %s, want OCCUPIED", id, v.Status)
        }
    }
    if gw.Locks().IsLocked("st1", "A1") || gw.Locks().IsLocked("st1", "A2") {
        t.Error("locks should be cleared after commit")
    }
    pub.mu.Lock()
    defer pub.mu.Unlock()
    if len(pub.events) != 1 {
        t.Fatalf("published %d events, want 1", len(pub.events))
    }
    ev := pub.events[0]
    if ev.BookingID != "bk-1" || ev.ShowtimeID != "st1" || ev.TotalCents != 2000 {
        t.Errorf("unexpected event: %+v", ev)
    }
}

func TestCommitStaleLock(t *testing.T) {
    gw, pub, clk := newTestGateway(t)
    ctx := context.Background()

    if res, _ := gw.Lock(ctx, "alice", []string{"A1"}); !res.Success {
        t.Fatal("setup lock failed")
    }
    clk.advance(61 * time.Second) // lock expired one second ago
    err := gw.Commit(ctx, "alice", []string{"A1"}, "bk-2")
    if !errors.Is(err, ErrStaleLock) {
        t.Fatalf("err = %v, want ErrStaleLock", err)
    }
    // The seat stayed available and no event went out.
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    if v := viewByID(t, views, "A1"); v.Status != model.StatusAvailable {
        t.Errorf("A1 status = %s, want AVAILABLE", v.Status)
    }
    pub.mu.Lock()
    defer pub.mu.Unlock()
    if len(pub.events) != 0 {
        t.Errorf("stale commit published %d events", len(pub.events))
    }
}

func TestCommitForeignLock(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    gw.Lock(ctx, "alice", []string{"A1"})
    if err := gw.Commit(ctx, "bob", []string{"A1"}, "bk-3"); !errors.Is(err, ErrStaleLock) {
        t.Fatalf("err = %v, want ErrStaleLock for foreign holder", err)
    }
}

func TestExpiryVisibleThroughGetSeats(t *testing.T) {
    gw, _, clk := newTestGateway(t)
    ctx := context.Background()

    gw.Lock(ctx, "alice", []string{"A1"})
    clk.advance(65 * time.Second) // TTL 60s, no release call
    views, err := gw.GetSeats(ctx, "st1", "bob")
    if err != nil {
        t.Fatal(err)
    }
    if v := viewByID(t, views, "A1"); v.Status != model.StatusAvailable {
        t.Fatalf("A1 status = %s, want AVAILABLE after expiry", v.Status)
    }
}

func TestReleaseUnknownSeatsIsNoOp(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    if err := gw.Release(ctx, "alice", []string{"nope", "A1"}); err != nil {
        t.Fatalf("release with unknown ids errored: %v", err)
    }
    if err := gw.Release(ctx, "alice", nil); err != nil {
        t.Fatalf("empty release errored: %v", err)
    }
}

func TestLockRejectsMixedShowtimes(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    _, err := gw.Lock(context.Background(), "alice", []string{"A1", "E1"})
    if !errors.Is(err, ErrMixedShowtimes) {
        t.Fatalf("err = %v, want ErrMixedShowtimes", err)
    }
}

func TestLockUnknownSeat(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    _, err := gw.Lock(context.Background(), "alice", []string{"nope"})
    if !errors.Is(err, repository.ErrSeatNotFound) {
        t.Fatalf("err = %v, want ErrSeatNotFound", err)
    }
}

// faultyStore wraps a SeatStore and fails every GetSeats call with a
// fixed infrastructure error.
type faultyStore struct {
    SeatStore
    err error
}

func (f *faultyStore) GetSeats(context.Context, []string) ([]model.Seat, error) {
    return nil, f.err
}

func TestReleasePropagatesStoreErrors(t *testing.T) {
    store := repository.NewMemorySeatStore()
    if err := store.CreateShowtime(context.Background(), model.Showtime{ID: "st1"}, []model.Seat{
        {ID: "A1", Position: "A1", Type: model.SeatTypeRegular, Status: model.StatusAvailable},
    }); err != nil {
        t.Fatal(err)
    }
    dbDown := errors.New("connection refused")
    locks := lock.NewManager(time.Minute, 5*time.Second, nil)
    gw := NewGateway(&faultyStore{SeatStore: store, err: dbDown}, locks, nil, nil)

    // A store outage must surface, not degrade into a silent no-op.
    if err := gw.Release(context.Background(), "alice", []string{"A1"}); !errors.Is(err, dbDown) {
        t.Fatalf("err = %v, want the store error", err)
    }
}

func TestSetSeatStatus(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    if res, _ := gw.Lock(ctx, "alice", []string{"A1"}); !res.Success {
        t.Fatal("setup lock failed")
    }
    if err := gw.SetSeatStatus(ctx, "A1", model.StatusMaintenance); err != nil {
        t.Fatal(err)
    }
    // The stale lock is dropped with the seat out of service.
    if gw.Locks().IsLocked("st1", "A1") {
        t.Fatal("maintenance write should clear the existing lock")
    }
    views, _ := gw.GetSeats(ctx, "st1", "alice")
    if v := viewByID(t, views, "A1"); v.Status != model.StatusMaintenance {
        t.Fatalf("A1 status = %s, want MAINTENANCE", v.Status)
    }
    if res, _ := gw.Lock(ctx, "bob", []string{"A1"}); res.Success {
        t.Fatal("maintenance seat must not be lockable")
    }

    // Back in service the seat is lockable again.
    if err := gw.SetSeatStatus(ctx, "A1", model.StatusAvailable); err != nil {
        t.Fatal(err)
    }
    if res, _ := gw.Lock(ctx, "bob", []string{"A1"}); !res.Success {
        t.Fatal("restored seat should be lockable")
    }

    if err := gw.SetSeatStatus(ctx, "nope", model.StatusMaintenance); !errors.Is(err, repository.ErrSeatNotFound) {
        t.Fatalf("err = %v, want ErrSeatNotFound", err)
    }
}

func TestConcurrentLockSingleWinner(t *testing.T) {
    gw, _, _ := newTestGateway(t)
    ctx := context.Background()

    const sessions = 16
    var wg sync.WaitGroup
    wins := make(chan int, sessions)
    for i := 0; i < sessions; i++ {
        wg.Add(1)
        go func(n int) {
            defer wg.Done()
            res, err := gw.Lock(ctx, string(rune('a'+n)), []string{"B1"})
            if err == nil && res.Success {
                wins <- n
            }
        }(i)
    }
    wg.Wait()
    close(wins)
    count := 0
    for range wins {
        count++
    }
    if count != 1 {
        t.Fatalf("%d sessions won the pair, want exactly 1", count)
    }
}
