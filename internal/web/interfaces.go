package web

import (
	"context"

	"github.com/roomescape/reservation-web/internal/models"
	"github.com/roomescape/reservation-web/internal/reservation"
	"github.com/roomescape/reservation-web/internal/view"
)

// ReservationViewer defines the contract for the reservation service used by web handlers
type ReservationViewer interface {
	Load(ctx context.Context, creds reservation.Credentials) ([]view.Row, error)
	Cancel(ctx context.Context, creds reservation.Credentials, id models.ReservationID) ([]view.Row, error)
}
