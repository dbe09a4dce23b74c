package reservation

import "sync"

// keyedMutex serializes operations per showtime.  Multi-seat atomicity
// only has to hold within one showtime, so each showtime gets its own
// mutex and operations on different showtimes run fully in parallel.
type keyedMutex struct {
    mu      sync.Mutex
    mutexes map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
    return &keyedMutex{mutexes: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
    k.mu.Lock()
    m, ok := k.mutexes[key]
    if !ok {
        m = &sync.Mutex{}
        k.mutexes[key] = m
    }
    k.mu.Unlock()
    m.Lock()
    return m.Unlock
}
