package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roomescape/reservation-web/internal/models"
	"github.com/roomescape/reservation-web/internal/repository"
	"github.com/roomescape/reservation-web/internal/reservation"
	"github.com/roomescape/reservation-web/internal/utils"
	"github.com/roomescape/reservation-web/internal/view"
)

// ErrCancelInProgress is returned when the same reservation is already being cancelled
var ErrCancelInProgress = errors.New("cancellation already in progress")

// ReservationAPI is the upstream surface the service needs
type ReservationAPI interface {
	FetchMine(ctx context.Context, creds reservation.Credentials) ([]models.ReservationEntry, error)
	Cancel(ctx context.Context, creds reservation.Credentials, id models.ReservationID) error
}

// ReservationUpdateCallback is called after a reservation was cancelled
type ReservationUpdateCallback func(id models.ReservationID)

// ReservationService backs the "my reservations" view: it loads and renders
// the member's reservations and cancels waitlisted ones
type ReservationService struct {
	api    ReservationAPI
	locks  repository.Repository
	labels view.Labels
	log    zerolog.Logger

	callbacksMu     sync.RWMutex
	updateCallbacks []ReservationUpdateCallback
}

// NewReservationService creates a new ReservationService
func NewReservationService(api ReservationAPI, locks repository.Repository, labels view.Labels, logger zerolog.Logger) *ReservationService {
	return &ReservationService{
		api:             api,
		locks:           locks,
		labels:          labels,
		log:             logger,
		updateCallbacks: make([]ReservationUpdateCallback, 0),
	}
}

// RegisterUpdateCallback registers a callback function to be called when a reservation is cancelled
func (s *ReservationService) RegisterUpdateCallback(callback ReservationUpdateCallback) {
	s.callbacksMu.Lock()
	defer s.callbacksMu.Unlock()
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

// notifyUpdate calls all registered callbacks with the cancelled reservation id
func (s *ReservationService) notifyUpdate(id models.ReservationID) {
	s.callbacksMu.RLock()
	callbacks := make([]ReservationUpdateCallback, len(s.updateCallbacks))
	copy(callbacks, s.updateCallbacks)
	s.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(id)
	}
}

// Load fetches the member's reservations once and renders them. On failure
// the error is logged once and no rows are returned.
func (s *ReservationService) Load(ctx context.Context, creds reservation.Credentials) ([]view.Row, error) {
	entries, err := s.api.FetchMine(ctx, creds)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching reservations")
		return []view.Row{}, err
	}

	return view.Render(entries, s.labels), nil
}

// Cancel deletes one waitlisted reservation and then loads the list again
// so the caller can replace the table body. Concurrent cancels of the same
// id are rejected with ErrCancelInProgress without reaching the upstream.
func (s *ReservationService) Cancel(ctx context.Context, creds reservation.Credentials, id models.ReservationID) ([]view.Row, error) {
	logID := utils.SanitizeLogString(id.String())

	acquired, err := s.locks.AcquireCancel(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("reservation_id", logID).Msg("Error acquiring cancel lock")
		return nil, fmt.Errorf("%w: %w", reservation.ErrDeleteFailed, err)
	}
	if !acquired {
		s.log.Warn().Str("reservation_id", logID).Msg("Duplicate cancel request rejected")
		return nil, ErrCancelInProgress
	}

	err = s.api.Cancel(ctx, creds, id)

	// Release with a fresh context so a cancelled request does not leave the lock behind
	if releaseErr := s.locks.ReleaseCancel(context.WithoutCancel(ctx), id); releaseErr != nil {
		s.log.Error().Err(releaseErr).Str("reservation_id", logID).Msg("Error releasing cancel lock")
	}

	if err != nil {
		s.log.Error().Err(err).Str("reservation_id", logID).Msg("Error cancelling reservation")
		return nil, err
	}

	s.log.Info().Str("reservation_id", logID).Msg("Reservation cancelled")
	s.notifyUpdate(id)

	return s.Load(ctx, creds)
}
