package session

import (
	"context"

	"smartstorage/internal/notify"
	"smartstorage/pkg/model"
)

// Camera returns the current frame.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Recognizer classifies the person in a frame. ok is false when nobody is
// visible; the caller keeps polling until its deadline.
type Recognizer interface {
	Identify(ctx context.Context, frame []byte) (id model.Identity, ok bool, err error)
}

// TagScanner reports the tag visible in a frame, if any.
type TagScanner interface {
	Scan(ctx context.Context, frame []byte) (tag string, ok bool, err error)
}

// Actuator commands a locker latch. An unmapped locker yields a
// CONFIGURATION_ERROR.
type Actuator interface {
	Open(ctx context.Context, locker int) error
	Close(ctx context.Context, locker int) error
}

type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// AuditLog stores finished sessions.
type AuditLog interface {
	Record(ctx context.Context, rec model.SessionRecord) error
}
