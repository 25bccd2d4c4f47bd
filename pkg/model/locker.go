package model

import "time"

type LockerStatus string

const (
	LockerAvailable LockerStatus = "available"
	LockerOccupied  LockerStatus = "occupied"
)

// Locker is one physical storage compartment. OccupantTag is set exactly
// when Status is LockerOccupied.
type Locker struct {
	ID            int          `bson:"_id" json:"id" validate:"required,min=1"`
	Status        LockerStatus `bson:"status" json:"status" validate:"required,oneof=available occupied"`
	OccupantTag   string       `bson:"occupant_tag,omitempty" json:"occupant_tag,omitempty" validate:"required_if=Status occupied,excluded_if=Status available"`
	OccupiedSince time.Time    `bson:"occupied_since,omitempty" json:"occupied_since,omitempty"`
}

func (l Locker) Occupied() bool {
	return l.Status == LockerOccupied
}

// Age is how long the locker has held its current package. Zero when
// available.
func (l Locker) Age(now time.Time) time.Duration {
	if !l.Occupied() {
		return 0
	}
	return now.Sub(l.OccupiedSince)
}
