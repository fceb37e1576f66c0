package ledger

import "errors"

// Sentinel errors shared by the shift and LoA ledgers. The command façade
// translates these into caller-facing messages; anything else is treated as
// an internal failure.
var (
	// ErrNotFound is returned when no record exists for the given id or filter.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the caller lacks ownership or admin rights.
	ErrForbidden = errors.New("caller is not allowed to act on this record")

	// ErrInvalidState is returned when the action is not valid for the record's
	// current state, e.g. pausing an already-paused shift or resolving an
	// already-resolved LoA.
	ErrInvalidState = errors.New("action not valid for current record state")

	// ErrValidation is returned for unusable input, e.g. an invalid id list on
	// a bulk delete.
	ErrValidation = errors.New("invalid input")
)

// IsClientError reports whether the error should surface to the caller as a
// rejection rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrValidation)
}
