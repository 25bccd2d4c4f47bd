// Package notify builds the e-mail notices sent to residents and delivers
// them over SMTP, Kafka, or the log.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindPickup     Kind = "pickup"
	KindDelivery   Kind = "delivery"
	KindExpiration Kind = "expiration"
)

const signature = "Smart Storage System"

type Notification struct {
	Kind      Kind   `json:"kind" validate:"required,oneof=pickup delivery expiration"`
	To        string `json:"to" validate:"required,email"`
	Name      string `json:"name" validate:"required"`
	Subject   string `json:"subject" validate:"required,max=200"`
	Body      string `json:"body" validate:"required"`
	Lockers   []int  `json:"lockers,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Sender delivers a notification. Implementations return an error when the
// transport fails; callers treat that as advisory.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

var validate = validator.New()

func (n Notification) Validate() error {
	return validate.Struct(n)
}

// Pickup is sent once per collecting resident, covering every locker opened.
func Pickup(name, to string, lockers []int) Notification {
	return Notification{
		Kind:    KindPickup,
		To:      to,
		Name:    name,
		Subject: "Package Picked Up Alert",
		Body:    letter(name, fmt.Sprintf("You've picked up your package(s) from %s.", describeLockers(lockers))),
		Lockers: lockers,
	}
}

func Delivery(name, to string, locker int) Notification {
	return Notification{
		Kind:    KindDelivery,
		To:      to,
		Name:    name,
		Subject: "Package Delivery Alert",
		Body:    letter(name, fmt.Sprintf("Your package has been delivered to locker %d!", locker)),
		Lockers: []int{locker},
	}
}

// Expiration tells a resident their package was removed to make room.
func Expiration(name, to string, locker int) Notification {
	return Notification{
		Kind:    KindExpiration,
		To:      to,
		Name:    name,
		Subject: "Package Expiration Alert",
		Body:    letter(name, fmt.Sprintf("Your time to pick up your package from locker %d is up. Please pick it up at your closest USPS!", locker)),
		Lockers: []int{locker},
	}
}

func letter(name, text string) string {
	return fmt.Sprintf("Dear %s,\n\n%s\n\n%s", name, text, signature)
}

func describeLockers(lockers []int) string {
	parts := make([]string, len(lockers))
	for i, id := range lockers {
		parts[i] = fmt.Sprint(id)
	}
	if len(lockers) == 1 {
		return "locker " + parts[0]
	}
	return "lockers " + strings.Join(parts, ", ")
}
