package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/cinetick/seatlock/internal/model"
)

// SeatRepo provides MySQL-backed access to the showtimes and seats
// tables.  Seat rows carry only the authoritative status; the lock
// overlay lives in the lock manager and is applied by the reservation
// gateway at read time.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ListByShowtime returns every seat of a showtime with its authoritative
// status.  It returns ErrShowtimeNotFound when the showtime id is
// unknown so that callers can distinguish an empty hall from a bad id.
func (r *SeatRepo) ListByShowtime(ctx context.Context, showtimeID string) ([]model.Seat, error) {
    var exists bool
    err := r.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM showtimes WHERE id = ?)`, showtimeID,
    ).Scan(&exists)
    if err != nil {
        return nil, err
    }
    if !exists {
        return nil, ErrShowtimeNotFound
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, showtime_id, position, seat_type, price_cents, status
           FROM seats WHERE showtime_id = ? ORDER BY position`, showtimeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.Position, &s.Type, &s.PriceCents, &s.Status); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// GetSeats loads the given seat ids.  Every requested id must exist;
// a single unknown id fails the whole call with ErrSeatNotFound because
// multi-seat operations are all-or-nothing and must never silently drop
// a requested seat.
func (r *SeatRepo) GetSeats(ctx context.Context, seatIDs []string) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    query := `SELECT id, showtime_id, position, seat_type, price_cents, status
                FROM seats WHERE id IN (`
    args := make([]interface{}, 0, len(seatIDs))
    for i, id := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, id)
    }
    query += ")"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    byID := make(map[string]model.Seat, len(seatIDs))
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.Position, &s.Type, &s.PriceCents, &s.Status); err != nil {
            return nil, err
        }
        byID[s.ID] = s
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    // Preserve request order and detect missing ids.
    out := make([]model.Seat, 0, len(seatIDs))
    for _, id := range seatIDs {
        s, ok := byID[id]
        if !ok {
            return nil, ErrSeatNotFound
        }
        out = append(out, s)
    }
    return out, nil
}

// SetStatus writes a new authoritative status for a single seat.  The
// write is atomic and rejects LOCKED (or any unknown value) with
// ErrInvalidTransition: the registry never stores the overlay state.
func (r *SeatRepo) SetStatus(ctx context.Context, seatID string, status model.SeatStatus) error {
    if !status.Persistable() {
        return ErrInvalidTransition
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE seats SET status = ? WHERE id = ?`, status, seatID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Either the seat does not exist or the status is unchanged;
        // disambiguate with a lookup so callers get a clean NotFound.
        var exists bool
        if err := r.db.QueryRowContext(ctx,
            `SELECT EXISTS(SELECT 1 FROM seats WHERE id = ?)`, seatID,
        ).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return ErrSeatNotFound
        }
    }
    return nil
}

// CreateShowtime inserts a showtime together with its full seat map in
// one transaction.  Seat rows are created exactly once per showtime by
// the external scheduling system; every seat starts out with the status
// carried on the model (normally AVAILABLE).
func (r *SeatRepo) CreateShowtime(ctx context.Context, st model.Showtime, seats []model.Seat) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    for _, s := range seats {
        if !s.Status.Persistable() {
            return ErrInvalidTransition
        }
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO showtimes (id, movie_title, room, starts_at) VALUES (?, ?, ?, ?)`,
        st.ID, st.MovieTitle, st.Room, st.StartsAt.UTC()); err != nil {
        if isDuplicateKey(err) {
            return ErrShowtimeExists
        }
        return err
    }
    if len(seats) > 0 {
        query := `INSERT INTO seats (id, showtime_id, position, seat_type, price_cents, status) VALUES `
        args := make([]interface{}, 0, len(seats)*6)
        for i, s := range seats {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?, ?, ?)"
            args = append(args, s.ID, st.ID, s.Position, s.Type, s.PriceCents, s.Status)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            // seats.id is the primary key; a duplicate here means the
            // registration reuses a seat id some showtime already owns.
            if isDuplicateKey(err) {
                return ErrSeatExists
            }
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// DeleteShowtime removes a showtime and all of its seats.  Returns
// ErrShowtimeNotFound when the id is unknown.
func (r *SeatRepo) DeleteShowtime(ctx context.Context, showtimeID string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE showtime_id = ?`, showtimeID); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, showtimeID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrShowtimeNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}
