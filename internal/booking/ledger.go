package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the durable store of slots, pricing rules and committed
// reservations. Reads outside WithSlotLock are snapshot reads and may be
// slightly stale; the admission path re-checks under the lock.
type Ledger interface {
	SlotByID(ctx context.Context, slotID int64) (Slot, bool, error)
	AllSlots(ctx context.Context) ([]Slot, error)

	// HasOverlap reports whether any committed reservation for slotID
	// intersects [start, end). Half-open: touching boundaries do not count.
	HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error)

	// ReservationsForSlot returns the slot's committed reservations
	// ordered by start instant ascending.
	ReservationsForSlot(ctx context.Context, slotID int64) ([]Reservation, error)

	// ReservationsByUser returns userID's reservations joined with slot
	// names, ordered by start instant descending.
	ReservationsByUser(ctx context.Context, userID int64) ([]UserReservation, error)

	// MultiplierFor is the pricing.RuleSource lookup.
	MultiplierFor(ctx context.Context, slotID int64, hour, dayOfWeek int) (decimal.Decimal, bool, error)

	// WithSlotLock runs fn inside an atomic scope serialized against other
	// bookings on the same slot only. The overlap re-check and the append
	// inside fn commit together or not at all.
	WithSlotLock(ctx context.Context, slotID int64, fn func(tx LedgerTx) error) error
}

// LedgerTx is the view inside one per-slot atomic scope.
type LedgerTx interface {
	HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error)

	// Append commits the reservation, filling in CreatedAt.
	Append(ctx context.Context, r *Reservation) error
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. A reservation ending exactly when another
// begins does not overlap it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
