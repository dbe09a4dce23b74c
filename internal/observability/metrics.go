package observability

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    // LockAttempts counts seat lock acquisitions by outcome:
    // granted, conflict, unavailable.
    LockAttempts = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "seatlock_lock_attempts_total",
            Help: "Total seat lock acquisition attempts by outcome",
        },
        []string{"outcome"},
    )

    // ActiveLocks tracks the number of currently active seat locks.
    ActiveLocks = promauto.NewGauge(
        prometheus.GaugeOpts{
            Name: "seatlock_active_locks",
            Help: "Number of active seat locks",
        },
    )

    // ExpiredLocks counts locks removed by the TTL sweeper rather than
    // released by their holder.
    ExpiredLocks = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "seatlock_expired_locks_total",
            Help: "Total seat locks reclaimed by TTL expiry",
        },
    )

    // Commits counts seats transitioned to OCCUPIED by booking commits.
    Commits = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "seatlock_committed_seats_total",
            Help: "Total seats committed to OCCUPIED",
        },
    )

    // StaleCommits counts commit attempts rejected because the holder's
    // lock had already expired.
    StaleCommits = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "seatlock_stale_commits_total",
            Help: "Total commits rejected due to an expired lock",
        },
    )
)
