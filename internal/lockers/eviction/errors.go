package eviction

import "errors"

var (
	ErrNoLockerAvailable = errors.New("no locker is available")

	// ErrNotFull is returned when eviction is asked for while a locker is
	// still available.
	ErrNotFull = errors.New("eviction requires every locker to be occupied")
)
