package router

import (
	"fmt"
	"strings"
)

type Signal string

const (
	SignalDoorbell Signal = "doorbell"
	SignalClose    Signal = "close"
	SignalAbort    Signal = "abort"
	// SignalQuit stops the controller process.
	SignalQuit Signal = "quit"
	// SignalShutdown stops the controller and bids the user farewell.
	SignalShutdown Signal = "shutdown"
)

const (
	msgQuitting     = "Quitting the system..."
	msgShuttingDown = "Shutting down the system. Have a great day!"
)

// ParseSignal accepts the signal names case-insensitively.
func ParseSignal(name string) (Signal, error) {
	switch sig := Signal(strings.ToLower(strings.TrimSpace(name))); sig {
	case SignalDoorbell, SignalClose, SignalAbort, SignalQuit, SignalShutdown:
		return sig, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}
}

// Farewell is the message shown when sig stops the controller.
func Farewell(sig Signal) string {
	if sig == SignalShutdown {
		return msgShuttingDown
	}
	return msgQuitting
}
