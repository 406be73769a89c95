// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roomescape/reservation-web/internal/models"
)

// Repository implements the repository interface with in-memory storage
type Repository struct {
	pending map[models.ReservationID]time.Time // id -> lock expiry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// NewRepository creates a new in-memory repository. A ttl of zero keeps
// locks until they are released.
func NewRepository(ttl time.Duration) *Repository {
	return &Repository{
		pending: make(map[models.ReservationID]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// AcquireCancel marks a cancellation as in flight
func (r *Repository) AcquireCancel(ctx context.Context, id models.ReservationID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expiry, exists := r.pending[id]; exists && (expiry.IsZero() || now.Before(expiry)) {
		return false, nil
	}

	var expiry time.Time
	if r.ttl > 0 {
		expiry = now.Add(r.ttl)
	}
	r.pending[id] = expiry
	return true, nil
}

// ReleaseCancel clears an in-flight mark
func (r *Repository) ReleaseCancel(ctx context.Context, id models.ReservationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
	return nil
}

// Ping always succeeds unless the context is done
func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// PendingCount returns the number of held locks, expired ones included
func (r *Repository) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}
