package booking

import "errors"

var (
	// ErrInvalidRequest covers malformed intervals and unknown slot ids.
	// Not retriable.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSlotUnavailable means an overlapping reservation exists, found
	// either at check time or at commit time after losing a race.
	ErrSlotUnavailable = errors.New("slot unavailable for requested time")

	// ErrStoreUnavailable wraps ledger I/O failures. The atomic booking
	// scope leaves no partial state, so retrying the whole attempt is safe.
	ErrStoreUnavailable = errors.New("store unavailable")
)
