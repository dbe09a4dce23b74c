package lock

import (
    "sync"

    "github.com/cinetick/seatlock/internal/model"
)

// shard holds the lock table of one showtime behind its own mutex.
// Sharding keeps showtimes independent: a busy premiere cannot delay
// acquisitions for a matinee in another room.
type shard struct {
    mu    sync.Mutex
    locks map[string]model.SeatLock
}

// shardMap lazily creates shards per showtime id.  Shards are never
// removed; the set of live showtimes is small and bounded by the
// schedule, and an empty shard is a map header and a mutex.
type shardMap struct {
    mu     sync.RWMutex
    shards map[string]*shard
}

func newShardMap() *shardMap {
    return &shardMap{shards: make(map[string]*shard)}
}

func (sm *shardMap) get(showtimeID string) *shard {
    sm.mu.RLock()
    sh, ok := sm.shards[showtimeID]
    sm.mu.RUnlock()
    if ok {
        return sh
    }
    sm.mu.Lock()
    defer sm.mu.Unlock()
    if sh, ok = sm.shards[showtimeID]; ok {
        return sh
    }
    sh = &shard{locks: make(map[string]model.SeatLock)}
    sm.shards[showtimeID] = sh
    return sh
}

func (sm *shardMap) all() []*shard {
    sm.mu.RLock()
    defer sm.mu.RUnlock()
    out := make([]*shard, 0, len(sm.shards))
    for _, sh := range sm.shards {
        out = append(out, sh)
    }
    return out
}
