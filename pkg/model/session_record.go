package model

import "time"

// SessionRecord is the audit trail of one finished access session.
type SessionRecord struct {
	ID        string    `bson:"_id" json:"id"`
	StartedAt time.Time `bson:"started_at" json:"started_at"`
	EndedAt   time.Time `bson:"ended_at" json:"ended_at"`
	Outcome   string    `bson:"outcome" json:"outcome"`
	Identity  string    `bson:"identity,omitempty" json:"identity,omitempty"`
	Tag       string    `bson:"tag,omitempty" json:"tag,omitempty"`
	Lockers   []int     `bson:"lockers,omitempty" json:"lockers,omitempty"`
	Evicted   *Locker   `bson:"evicted,omitempty" json:"evicted,omitempty"`
}
