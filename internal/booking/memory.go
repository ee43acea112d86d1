package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryLedger is an in-process Ledger with the same per-slot atomicity
// semantics as the Postgres store. It backs tests and `server --dev`.
type MemoryLedger struct {
	mu           sync.Mutex
	nextSlotID   int64
	slots        []Slot
	rules        []memRule
	reservations map[int64][]Reservation
	slotLocks    map[int64]*sync.Mutex
}

type memRule struct {
	id         int
	slotID     int64
	hour       int
	dayOfWeek  int
	multiplier decimal.Decimal
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		reservations: make(map[int64][]Reservation),
		slotLocks:    make(map[int64]*sync.Mutex),
	}
}

// AddSlot provisions a slot; stands in for the admin CLI in dev mode.
func (l *MemoryLedger) AddSlot(name string, hourlyRate decimal.Decimal) Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSlotID++
	s := Slot{ID: l.nextSlotID, Name: name, HourlyRate: hourlyRate}
	l.slots = append(l.slots, s)
	return s
}

func (l *MemoryLedger) AddRule(slotID int64, hour, dayOfWeek int, multiplier decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules = append(l.rules, memRule{
		id:         len(l.rules) + 1,
		slotID:     slotID,
		hour:       hour,
		dayOfWeek:  dayOfWeek,
		multiplier: multiplier,
	})
}

func (l *MemoryLedger) SlotByID(_ context.Context, slotID int64) (Slot, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.slots {
		if s.ID == slotID {
			return s, true, nil
		}
	}
	return Slot{}, false, nil
}

func (l *MemoryLedger) AllSlots(_ context.Context) ([]Slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out, nil
}

func (l *MemoryLedger) HasOverlap(_ context.Context, slotID int64, start, end time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasOverlapLocked(slotID, start, end), nil
}

func (l *MemoryLedger) hasOverlapLocked(slotID int64, start, end time.Time) bool {
	for _, r := range l.reservations[slotID] {
		if Overlaps(r.StartAt, r.EndAt, start, end) {
			return true
		}
	}
	return false
}

func (l *MemoryLedger) ReservationsForSlot(_ context.Context, slotID int64) ([]Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Reservation, len(l.reservations[slotID]))
	copy(out, l.reservations[slotID])
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (l *MemoryLedger) ReservationsByUser(_ context.Context, userID int64) ([]UserReservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make(map[int64]string, len(l.slots))
	for _, s := range l.slots {
		names[s.ID] = s.Name
	}

	var out []UserReservation
	for slotID, rs := range l.reservations {
		for _, r := range rs {
			if r.UserID != userID {
				continue
			}
			out = append(out, UserReservation{Reservation: r, SlotName: names[slotID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, nil
}

func (l *MemoryLedger) MultiplierFor(_ context.Context, slotID int64, hour, dayOfWeek int) (decimal.Decimal, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// rules are kept in id order; first match is the lowest id
	for _, r := range l.rules {
		if r.slotID == slotID && r.hour == hour && r.dayOfWeek == dayOfWeek {
			return r.multiplier, true, nil
		}
	}
	return decimal.Decimal{}, false, nil
}

// WithSlotLock serializes per slot with a dedicated mutex, so bookings on
// different slots proceed concurrently.
func (l *MemoryLedger) WithSlotLock(_ context.Context, slotID int64, fn func(tx LedgerTx) error) error {
	l.mu.Lock()
	lock, ok := l.slotLocks[slotID]
	if !ok {
		lock = &sync.Mutex{}
		l.slotLocks[slotID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(&memTx{l: l})
}

type memTx struct{ l *MemoryLedger }

func (t *memTx) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	return t.l.HasOverlap(ctx, slotID, start, end)
}

func (t *memTx) Append(_ context.Context, r *Reservation) error {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now()
	t.l.reservations[r.SlotID] = append(t.l.reservations[r.SlotID], *r)
	return nil
}
