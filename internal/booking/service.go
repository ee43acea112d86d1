package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/marina-booking/internal/pricing"
)

// Notifier delivers booking confirmations. Delivery is best-effort and
// happens outside the booking transaction; failures never fail a booking.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, c Confirmation) error
}

// Service is the reservation admission controller. It owns the only state
// mutation in the system: appending a reservation to the ledger.
type Service struct {
	ledger Ledger
	notify Notifier // nil disables confirmations
}

func NewService(l Ledger, n Notifier) *Service {
	return &Service{ledger: l, notify: n}
}

// Book admits a reservation: validates the request, prices it, then
// re-checks overlap and appends inside one per-slot atomic scope, so two
// concurrent requests for the same slot can never both commit overlapping
// intervals. Exactly one of them gets ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, req BookRequest) (Reservation, error) {
	if !req.StartAt.Before(req.EndAt) {
		return Reservation{}, fmt.Errorf("%w: start must be before end", ErrInvalidRequest)
	}

	slot, ok, err := s.ledger.SlotByID(ctx, req.SlotID)
	if err != nil {
		return Reservation{}, storeErr(err)
	}
	if !ok {
		return Reservation{}, fmt.Errorf("%w: unknown slot %d", ErrInvalidRequest, req.SlotID)
	}

	// Pure function of the rule set; safe to compute outside the lock.
	mult, err := pricing.Resolve(ctx, s.ledger, req.SlotID, req.StartAt)
	if err != nil {
		return Reservation{}, storeErr(err)
	}

	res := Reservation{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		SlotID:     req.SlotID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		TotalPrice: pricing.Total(slot.HourlyRate, req.StartAt, req.EndAt, mult),
	}

	err = s.ledger.WithSlotLock(ctx, req.SlotID, func(tx LedgerTx) error {
		clash, err := tx.HasOverlap(ctx, req.SlotID, req.StartAt, req.EndAt)
		if err != nil {
			return err
		}
		if clash {
			return ErrSlotUnavailable
		}
		return tx.Append(ctx, &res)
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			return Reservation{}, ErrSlotUnavailable
		}
		return Reservation{}, storeErr(err)
	}

	s.dispatchConfirmation(slot, res, req.NotifyEmail)
	return res, nil
}

// Available returns every slot with no reservation intersecting
// [start, end). Non-locking snapshot read; a booking attempt re-validates.
func (s *Service) Available(ctx context.Context, start, end time.Time) ([]Slot, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidRequest)
	}
	slots, err := s.ledger.AllSlots(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	free := make([]Slot, 0, len(slots))
	for _, sl := range slots {
		clash, err := s.ledger.HasOverlap(ctx, sl.ID, start, end)
		if err != nil {
			return nil, storeErr(err)
		}
		if !clash {
			free = append(free, sl)
		}
	}
	return free, nil
}

// MyReservations returns the user's reservations, newest start first.
func (s *Service) MyReservations(ctx context.Context, userID int64) ([]UserReservation, error) {
	out, err := s.ledger.ReservationsByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Service) dispatchConfirmation(slot Slot, r Reservation, to string) {
	if s.notify == nil || to == "" {
		return
	}
	c := Confirmation{
		To:         to,
		SlotName:   slot.Name,
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		TotalPrice: r.TotalPrice,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notify.ReservationConfirmed(ctx, c); err != nil {
			log.Printf("confirmation for reservation %s failed: %v", r.ID, err)
		}
	}()
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrSlotUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
