// Package pair derives couple-seat groups and their combined status.
// PAIR seats in the same row are sorted by column and chunked into
// adjacent pairs; a seat's partner is the other member of its chunk.
// Nothing here is persisted: grouping depends on the current seat map
// and must be recomputed on every read.
package pair

import (
    "sort"

    "github.com/cinetick/seatlock/internal/model"
)

// GroupOf expands a seat id into its full contractual group.  Non-PAIR
// seats form a group of one.  For PAIR seats the same-row PAIR seats are
// sorted by column and chunked two at a time; the chunk containing the
// seat is its group.  A PAIR seat left without a partner (odd seat out
// caused by a data anomaly) degrades to single-seat behaviour rather
// than failing.
func GroupOf(seatID string, seats []model.Seat) []string {
    var target *model.Seat
    for i := range seats {
        if seats[i].ID == seatID {
            target = &seats[i]
            break
        }
    }
    if target == nil || target.Type != model.SeatTypePair {
        return []string{seatID}
    }
    row := target.Row()
    rowPairs := make([]model.Seat, 0, 4)
    for _, s := range seats {
        if s.Type == model.SeatTypePair && s.Row() == row {
            rowPairs = append(rowPairs, s)
        }
    }
    sort.Slice(rowPairs, func(i, j int) bool { return rowPairs[i].Col() < rowPairs[j].Col() })
    for i := 0; i+1 < len(rowPairs); i += 2 {
        a, b := rowPairs[i], rowPairs[i+1]
        if a.ID == seatID || b.ID == seatID {
            return []string{a.ID, b.ID}
        }
    }
    return []string{seatID}
}

// CombinedStatus folds the effective statuses of a group into one value
// for display: all members locked reads as LOCKED, any occupied member
// makes the group OCCUPIED, any maintenance member makes it MAINTENANCE,
// otherwise the group is AVAILABLE.  Occupied takes precedence over a
// stray lock so a half-sold pair can never be shown as merely selected.
func CombinedStatus(statuses []model.SeatStatus) model.SeatStatus {
    if len(statuses) == 0 {
        return model.StatusAvailable
    }
    allLocked := true
    anyOccupied := false
    anyMaintenance := false
    for _, st := range statuses {
        if st != model.StatusLocked {
            allLocked = false
        }
        switch st {
        case model.StatusOccupied:
            anyOccupied = true
        case model.StatusMaintenance:
            anyMaintenance = true
        }
    }
    switch {
    case allLocked:
        return model.StatusLocked
    case anyOccupied:
        return model.StatusOccupied
    case anyMaintenance:
        return model.StatusMaintenance
    default:
        return model.StatusAvailable
    }
}
