package registry

import "errors"

var (
	ErrUnknownLocker = errors.New("locker does not exist")

	ErrEmptyTag = errors.New("occupant tag cannot be empty")

	// ErrInvalidState is returned when an operation requires an occupied
	// locker but the locker is available.
	ErrInvalidState = errors.New("locker is not occupied")

	ErrDuplicateLocker = errors.New("duplicate locker id")
)
