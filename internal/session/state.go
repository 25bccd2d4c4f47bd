package session

type State int

const (
	StateIdle State = iota
	StateCheckingIdentity
	StateCollectingPackage
	StateAwaitingTagScan
	StateAllocatingLocker
	StateAwaitingManualClose
	StateDenied
	StateTimedOut
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateCheckingIdentity:    "checking_identity",
	StateCollectingPackage:   "collecting_package",
	StateAwaitingTagScan:     "awaiting_tag_scan",
	StateAllocatingLocker:    "allocating_locker",
	StateAwaitingManualClose: "awaiting_manual_close",
	StateDenied:              "denied",
	StateTimedOut:            "timed_out",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is how the last session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePickedUp
	OutcomeNoPackages
	OutcomeDelivered
	OutcomeTimedOut
	OutcomeDenied
	OutcomeNoLockerAvailable
	OutcomeAborted
	OutcomeConfigurationError
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:               "none",
	OutcomePickedUp:           "picked_up",
	OutcomeNoPackages:         "no_packages",
	OutcomeDelivered:          "delivered",
	OutcomeTimedOut:           "timed_out",
	OutcomeDenied:             "denied",
	OutcomeNoLockerAvailable:  "no_locker_available",
	OutcomeAborted:            "aborted",
	OutcomeConfigurationError: "configuration_error",
	OutcomeFailed:             "failed",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
