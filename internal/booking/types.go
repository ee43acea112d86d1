package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slot is a bookable physical berth. Immutable after provisioning.
type Slot struct {
	ID         int64
	Name       string
	HourlyRate decimal.Decimal
}

// Reservation is a committed booking. Append-only: never mutated or
// deleted once written to the ledger.
type Reservation struct {
	ID         string
	UserID     int64
	SlotID     int64
	StartAt    time.Time
	EndAt      time.Time
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// UserReservation is a reservation joined with its slot's display name,
// as returned by the my-reservations query.
type UserReservation struct {
	Reservation
	SlotName string
}

// BookRequest carries an admission attempt. Timestamps are naive local
// instants; the HTTP layer combines date+time fields before they get here.
type BookRequest struct {
	UserID  int64
	SlotID  int64
	StartAt time.Time
	EndAt   time.Time

	// NotifyEmail receives the confirmation; empty disables dispatch.
	NotifyEmail string
}

// Confirmation is handed to the notifier after a successful booking.
type Confirmation struct {
	To         string
	SlotName   string
	StartAt    time.Time
	EndAt      time.Time
	TotalPrice decimal.Decimal
}
