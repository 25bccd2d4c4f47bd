// Package contracts holds the interfaces pkg/app assembles the controller
// from.
package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler registers a component's admin routes.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Runner is a long-lived controller loop, such as the signal router or the
// locker store writer. Run returns once ctx is done.
type Runner interface {
	Run(ctx context.Context) error
}
