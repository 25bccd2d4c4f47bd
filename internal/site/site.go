// Package site loads the static site definition: the lockers installed,
// the hardware channel each one is wired to, and the registered users.
package site

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"smartstorage/pkg/model"

	"gopkg.in/yaml.v3"
)

type LockerSpec struct {
	ID      int `yaml:"id" validate:"required,min=1"`
	Channel int `yaml:"channel" validate:"min=0,max=40"`
	// Occupant pre-assigns the locker to a resident tag at startup.
	Occupant string `yaml:"occupant,omitempty" validate:"omitempty,max=64"`
}

type Site struct {
	Name    string                 `yaml:"name" validate:"omitempty,max=100"`
	Lockers []LockerSpec           `yaml:"lockers" validate:"required,min=1,dive"`
	Users   []model.RegisteredUser `yaml:"users" validate:"required,min=1,dive"`
}

func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("site file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a site definition. Unknown keys are rejected.
func Parse(data []byte) (*Site, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Site
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := NewSiteValidator().Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Seed returns the initial locker states. Pre-occupied lockers are stamped
// with now.
func (s *Site) Seed(now time.Time) []model.Locker {
	out := make([]model.Locker, 0, len(s.Lockers))
	for _, l := range s.Lockers {
		locker := model.Locker{ID: l.ID, Status: model.LockerAvailable}
		if l.Occupant != "" {
			locker.Status = model.LockerOccupied
			locker.OccupantTag = l.Occupant
			locker.OccupiedSince = now
		}
		out = append(out, locker)
	}
	return out
}

// Channels maps locker id to hardware channel.
func (s *Site) Channels() map[int]int {
	out := make(map[int]int, len(s.Lockers))
	for _, l := range s.Lockers {
		out[l.ID] = l.Channel
	}
	return out
}
