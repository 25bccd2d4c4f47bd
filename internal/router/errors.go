package router

import "errors"

var (
	ErrUnknownSignal = errors.New("unknown signal")
	ErrDebounced     = errors.New("signal debounced")
	ErrQueueFull     = errors.New("signal queue full")
	// ErrStopRequested is the cause passed to the halt function when a quit
	// or shutdown button is pressed.
	ErrStopRequested = errors.New("stop requested")
)
