package directory

import "errors"

var (
	ErrUnknownUser = errors.New("user is not registered")

	ErrNoAddress = errors.New("user has no notification address")

	ErrDuplicateTag = errors.New("duplicate tag")

	ErrDuplicateName = errors.New("duplicate name")

	ErrInvalidUser = errors.New("invalid user")
)
