// Package postgres implements the booking ledger and user store over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/example/marina-booking/internal/booking"
	"github.com/example/marina-booking/internal/db"
)

type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

func (s *Store) SlotByID(ctx context.Context, slotID int64) (booking.Slot, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT id, name, hourly_rate::text FROM slots WHERE id=$1`, slotID)
	sl, err := scanSlot(row)
	if err != nil {
		if db.IsNotFound(err) {
			return booking.Slot{}, false, nil
		}
		return booking.Slot{}, false, err
	}
	return sl, true, nil
}

func (s *Store) AllSlots(ctx context.Context) ([]booking.Slot, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, hourly_rate::text FROM slots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Slot
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// Half-open interval intersection: an existing reservation clashes iff it
// starts before the requested end and ends after the requested start.
const overlapSQL = `
SELECT EXISTS(
	SELECT 1 FROM reservations
	WHERE slot_id=$1 AND start_at < $3 AND end_at > $2
)`

func (s *Store) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	var clash bool
	err := s.db.QueryRow(ctx, overlapSQL, slotID, start, end).Scan(&clash)
	return clash, err
}

func (s *Store) ReservationsForSlot(ctx context.Context, slotID int64) ([]booking.Reservation, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, slot_id, start_at, end_at, total_price::text, created_at
FROM reservations
WHERE slot_id=$1
ORDER BY start_at`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Reservation
	for rows.Next() {
		var r booking.Reservation
		var price string
		if err := rows.Scan(&r.ID, &r.UserID, &r.SlotID, &r.StartAt, &r.EndAt, &price, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.TotalPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("total_price for reservation %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ReservationsByUser(ctx context.Context, userID int64) ([]booking.UserReservation, error) {
	rows, err := s.db.Query(ctx, `
SELECT r.id, r.user_id, r.slot_id, r.start_at, r.end_at, r.total_price::text, r.created_at, s.name
FROM reservations r
JOIN slots s ON s.id = r.slot_id
WHERE r.user_id=$1
ORDER BY r.start_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.UserReservation
	for rows.Next() {
		var ur booking.UserReservation
		var price string
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.SlotID, &ur.StartAt, &ur.EndAt, &price, &ur.CreatedAt, &ur.SlotName); err != nil {
			return nil, err
		}
		if ur.TotalPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("total_price for reservation %s: %w", ur.ID, err)
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

// MultiplierFor takes the lowest-id row so a duplicate rule (which the
// schema does not forbid, matching the upstream data) resolves the same
// way every time.
func (s *Store) MultiplierFor(ctx context.Context, slotID int64, hour, dayOfWeek int) (decimal.Decimal, bool, error) {
	var mult string
	err := s.db.QueryRow(ctx, `
SELECT multiplier::text FROM pricing_rules
WHERE slot_id=$1 AND hour=$2 AND day_of_week=$3
ORDER BY id
LIMIT 1`, slotID, hour, dayOfWeek).Scan(&mult)
	if err != nil {
		if db.IsNotFound(err) {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, err
	}
	m, err := decimal.NewFromString(mult)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return m, true, nil
}

// WithSlotLock opens a transaction and takes FOR UPDATE on the slot row,
// so concurrent bookings for the same slot serialize on that row while
// other slots stay unblocked. fn's overlap re-check and append commit
// together or the transaction rolls back leaving no partial state.
func (s *Store) WithSlotLock(ctx context.Context, slotID int64, fn func(tx booking.LedgerTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM slots WHERE id=$1 FOR UPDATE`, slotID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: unknown slot %d", booking.ErrInvalidRequest, slotID)
		}
		return err
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	var clash bool
	err := t.tx.QueryRow(ctx, overlapSQL, slotID, start, end).Scan(&clash)
	return clash, err
}

func (t *pgTx) Append(ctx context.Context, r *booking.Reservation) error {
	err := t.tx.QueryRow(ctx, `
INSERT INTO reservations (id, user_id, slot_id, start_at, end_at, total_price)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`,
		r.ID, r.UserID, r.SlotID, r.StartAt, r.EndAt, r.TotalPrice.StringFixed(2),
	).Scan(&r.CreatedAt)
	return mapIntegrityErr(err)
}

// mapIntegrityErr turns a foreign-key violation on the reservation insert
// (unknown user or slot id) into an invalid request instead of a
// retriable store failure: retrying would hit the same constraint.
func mapIntegrityErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: %s", booking.ErrInvalidRequest, pgErr.ConstraintName)
	}
	return err
}

// CreateSlot and CreateRule back the admin CLI; slots and rules are
// provisioned there, never through the booking API.
func (s *Store) CreateSlot(ctx context.Context, name string, hourlyRate decimal.Decimal) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO slots (name, hourly_rate) VALUES ($1,$2) RETURNING id`,
		name, hourlyRate.StringFixed(2),
	).Scan(&id)
	return id, err
}

func (s *Store) CreateRule(ctx context.Context, slotID int64, hour, dayOfWeek int, multiplier decimal.Decimal) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
INSERT INTO pricing_rules (slot_id, hour, day_of_week, multiplier)
VALUES ($1,$2,$3,$4)
RETURNING id`,
		slotID, hour, dayOfWeek, multiplier.String(),
	).Scan(&id)
	return id, err
}

func scanSlot(row db.Row) (booking.Slot, error) {
	var sl booking.Slot
	var rate string
	if err := row.Scan(&sl.ID, &sl.Name, &rate); err != nil {
		return booking.Slot{}, err
	}
	var err error
	if sl.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return booking.Slot{}, fmt.Errorf("hourly_rate for slot %d: %w", sl.ID, err)
	}
	return sl, nil
}
