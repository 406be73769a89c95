// Package repository defines interfaces for shared state
package repository

import (
	"context"

	"github.com/roomescape/reservation-web/internal/models"
)

// Repository keeps short-lived locks that stop the same reservation from
// being cancelled twice at once (double clicks, several open tabs, several
// instances behind a load balancer).
type Repository interface {
	// AcquireCancel marks a cancellation as in flight. It returns false when
	// one is already pending for the id.
	AcquireCancel(ctx context.Context, id models.ReservationID) (bool, error)
	// ReleaseCancel clears the mark. Releasing an id that is not held is a no-op.
	ReleaseCancel(ctx context.Context, id models.ReservationID) error
	// Ping reports whether the lock store can be reached
	Ping(ctx context.Context) error
}
