package domain

import "errors"

// Domain errors
var (
	// Event errors
	ErrEventNotFound  = errors.New("event not found")
	ErrEventNotOpened = errors.New("event is not opened for admission")

	// Admission errors
	ErrAlreadyJoined     = errors.New("user already joined this event")
	ErrEventFull         = errors.New("event capacity is full")
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrAdmissionConflict = errors.New("admission already persisted for this user and event")

	// Lock errors
	ErrLockNotAcquired = errors.New("could not acquire lock within wait time")
	ErrLockWaitTimeout = errors.New("database lock wait timed out")

	// Validation errors
	ErrInvalidEventID     = errors.New("invalid event id")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidAdmissionID = errors.New("invalid admission id")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrAdmissionNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrAdmissionConflict)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidAdmissionID)
}

// IsRetryableError checks if the caller may safely retry the request.
// Lock timeouts mean the admission decision was never evaluated, so a
// retry can still win a slot.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrLockNotAcquired) ||
		errors.Is(err, ErrLockWaitTimeout)
}
