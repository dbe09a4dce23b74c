package model

import "time"

// Showtime is one scheduled screening of a movie in a room.  It is the
// scoping unit for all seat state: seats are created together with their
// showtime by the scheduling system and destroyed only when the showtime
// itself is deleted.
type Showtime struct {
    ID         string    `json:"showtimeId"`
    MovieTitle string    `json:"movieTitle"`
    Room       string    `json:"room"`
    StartsAt   time.Time `json:"startsAt"`
}
