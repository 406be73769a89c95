package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog"

	"github.com/roomescape/reservation-web/internal/models"
	"github.com/roomescape/reservation-web/internal/utils"
)

// ReservationStream is the SSE stream that carries reservation updates
const ReservationStream = "reservations"

// UpdateEvent is the event name the page listens for (hx-trigger="sse:update")
const UpdateEvent = "update"

// SSEManager pushes reservation updates to open pages so every tab of a
// member refreshes its table after a cancellation
type SSEManager struct {
	server *sse.Server
	log    zerolog.Logger
}

// NewSSEManager creates a new server-sent events manager
func NewSSEManager(logger zerolog.Logger) *SSEManager {
	server := sse.New()
	// Late subscribers fetch fresh rows on load; replaying old updates is pointless
	server.AutoReplay = false
	server.Headers = map[string]string{
		"X-Accel-Buffering": "no", // Disable nginx proxy buffering
	}
	server.CreateStream(ReservationStream)

	return &SSEManager{
		server: server,
		log:    logger,
	}
}

// ServeHTTP implements the http.Handler interface for SSE connections.
// Clients that do not name a stream are subscribed to the reservation stream.
func (sm *SSEManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		r = r.Clone(r.Context())
		q := r.URL.Query()
		q.Set("stream", ReservationStream)
		r.URL.RawQuery = q.Encode()
	}

	sm.log.Debug().Str("remote_addr", r.RemoteAddr).Msg("SSE client connected")
	sm.server.ServeHTTP(w, r)
	sm.log.Debug().Str("remote_addr", r.RemoteAddr).Msg("SSE client disconnected")
}

// NotifyReservationUpdate sends an update event to all connected clients
func (sm *SSEManager) NotifyReservationUpdate(id models.ReservationID) {
	eventID := uuid.NewString()

	sm.log.Debug().
		Str("event_id", eventID).
		Str("reservation_id", utils.SanitizeLogString(id.String())).
		Msg("Publishing SSE update event")

	sm.server.Publish(ReservationStream, &sse.Event{
		ID:    []byte(eventID),
		Event: []byte(UpdateEvent),
		// Data must be non-empty or the event is dropped. The id is not sent:
		// the stream is shared by all members.
		Data: []byte("reservations changed"),
	})
}

// Shutdown closes all SSE connections
func (sm *SSEManager) Shutdown() {
	sm.server.Close()
}
