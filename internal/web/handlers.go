package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/roomescape/reservation-web/internal/models"
	"github.com/roomescape/reservation-web/internal/reservation"
	"github.com/roomescape/reservation-web/internal/service"
	"github.com/roomescape/reservation-web/internal/utils"
	"github.com/roomescape/reservation-web/internal/view"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Paths served by the web handler
const (
	PagePath   = "/reservation-mine"
	RowsPath   = PagePath + "/rows"
	EventsPath = "/events"
)

// Messages shown in the page when a cancellation fails
const (
	cancelFailedMessage     = "예약 대기를 취소하지 못했습니다. 잠시 후 다시 시도해 주세요."
	cancelInProgressMessage = "이미 취소 요청을 처리하고 있습니다."
)

// Handler manages web UI requests
type Handler struct {
	reservations ReservationViewer
	auth         *AuthMiddleware
	templates    *template.Template
	sseManager   *SSEManager
	log          zerolog.Logger
}

// NewHandler creates a new web UI handler. Templates are read from
// templatesDir when it is set and from the embedded copies otherwise.
// A nil auth serves the pages without a login check.
func NewHandler(reservations ReservationViewer, auth *AuthMiddleware, templatesDir string, logger zerolog.Logger) (*Handler, error) {
	tmpl := template.New("").Funcs(template.FuncMap{
		"cancelPath": cancelPath,
	})

	var err error
	if templatesDir != "" {
		tmpl, err = tmpl.ParseGlob(filepath.Join(templatesDir, "*.html"))
	} else {
		tmpl, err = tmpl.ParseFS(embeddedTemplates, "templates/*.html")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		reservations: reservations,
		auth:         auth,
		templates:    tmpl,
		sseManager:   NewSSEManager(logger),
		log:          logger,
	}, nil
}

// cancelPath is a template helper that builds the cancel URL for a row
func cancelPath(id models.ReservationID) string {
	return PagePath + "/" + url.PathEscape(id.String())
}

// SetupRoutes registers web UI routes on the given mux
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.Handle("GET "+EventsPath, h.sseManager)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, PagePath, http.StatusFound)
	})
	mux.HandleFunc("GET "+PagePath, h.protect(h.handlePage))
	mux.HandleFunc("GET "+RowsPath, h.protect(h.HandlePartialRows))
	mux.HandleFunc("DELETE "+PagePath+"/{id}", h.protect(h.HandleCancel))
}

func (h *Handler) protect(next http.HandlerFunc) http.HandlerFunc {
	if h.auth == nil {
		return next
	}
	return h.auth.RequireLogin(next)
}

// handlePage renders the page shell. The rows are loaded by the page itself
// through the rows partial, once on load and again on every SSE update.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	title := "내 예약"
	if member, ok := MemberFromContext(r.Context()); ok && member.Name != "" {
		title = member.Name + "님의 예약"
	}

	viewModel := struct {
		Title      string
		RowsPath   string
		EventsPath string
	}{
		Title:      title,
		RowsPath:   RowsPath,
		EventsPath: EventsPath + "?stream=" + ReservationStream,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "layout.html", viewModel); err != nil {
		h.log.Error().Err(err).Msg("Error rendering template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandlePartialRows renders the table body rows for HTMX. A failed read
// renders an empty body; the service has already logged the failure.
func (h *Handler) HandlePartialRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reservations.Load(r.Context(), reservation.CredentialsFromRequest(r))
	if err != nil {
		rows = nil
	}

	h.renderRows(w, http.StatusOK, rows)
}

// HandleCancel cancels one waitlisted reservation. On success it answers
// with freshly loaded rows that replace the table body. On failure it
// answers with an error fragment.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := models.ReservationID(r.PathValue("id"))
	if id == "" {
		http.Error(w, "reservation id required", http.StatusBadRequest)
		return
	}

	rows, err := h.reservations.Cancel(r.Context(), reservation.CredentialsFromRequest(r), id)
	switch {
	case err == nil:
		h.renderRows(w, http.StatusOK, rows)
	case errors.Is(err, reservation.ErrReadFailed):
		// The delete went through; only the reload failed
		h.renderRows(w, http.StatusOK, nil)
	case errors.Is(err, service.ErrCancelInProgress):
		h.renderCancelError(w, r, http.StatusConflict, cancelInProgressMessage)
	case errors.Is(err, reservation.ErrDeleteFailed):
		h.renderCancelError(w, r, http.StatusBadGateway, cancelFailedMessage)
	default:
		h.log.Error().Err(err).Str("reservation_id", utils.SanitizeLogString(id.String())).Msg("Unexpected cancel error")
		h.renderCancelError(w, r, http.StatusInternalServerError, cancelFailedMessage)
	}
}

func (h *Handler) renderRows(w http.ResponseWriter, status int, rows []view.Row) {
	viewModel := struct {
		Rows []view.Row
	}{
		Rows: rows,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "reservation_rows", viewModel); err != nil {
		h.log.Error().Err(err).Msg("Error rendering reservation rows")
	}
}

// renderCancelError writes the error fragment. HTMX only swaps 2xx
// responses, so HTMX requests get 200 and are retargeted to the error slot;
// other clients get the real status code.
func (h *Handler) renderCancelError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Retarget", "#cancel-error")
		w.Header().Set("HX-Reswap", "innerHTML")
		status = http.StatusOK
	}
	w.WriteHeader(status)

	viewModel := struct {
		Message string
	}{
		Message: message,
	}
	if err := h.templates.ExecuteTemplate(w, "cancel_error", viewModel); err != nil {
		h.log.Error().Err(err).Msg("Error rendering cancel error")
	}
}

// NotifyReservationUpdate sends an update notification to all SSE clients.
// Register it as a service update callback.
func (h *Handler) NotifyReservationUpdate(id models.ReservationID) {
	h.sseManager.NotifyReservationUpdate(id)
}

// Shutdown gracefully shuts down the web handler and its SSE manager
func (h *Handler) Shutdown() {
	h.sseManager.Shutdown()
}
