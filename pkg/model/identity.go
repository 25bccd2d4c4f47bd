package model

type IdentityKind string

const (
	IdentityUnknown  IdentityKind = "unknown"
	IdentityResident IdentityKind = "resident"
	IdentityCarrier  IdentityKind = "carrier"
)

// Identity is what a recognizer concluded from one camera frame. Name is
// set only for residents.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	Name string       `json:"name,omitempty"`
}

func Unknown() Identity {
	return Identity{Kind: IdentityUnknown}
}

func Resident(name string) Identity {
	return Identity{Kind: IdentityResident, Name: name}
}

func Carrier() Identity {
	return Identity{Kind: IdentityCarrier}
}
