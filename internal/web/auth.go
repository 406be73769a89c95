package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/models"
	"github.com/roomescape/reservation-web/internal/reservation"
)

// MemberVerifier checks a member's login with the upstream
type MemberVerifier interface {
	Member(ctx context.Context, creds reservation.Credentials) (models.Member, error)
}

type memberContextKey struct{}

// MemberFromContext returns the member attached by RequireLogin
func MemberFromContext(ctx context.Context) (models.Member, bool) {
	member, ok := ctx.Value(memberContextKey{}).(models.Member)
	return member, ok
}

// AuthMiddleware makes sure the reservation pages are only served to
// logged-in members
type AuthMiddleware struct {
	verifier   MemberVerifier
	cookieName string
	loginURL   string
	log        zerolog.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier MemberVerifier, cfg config.AuthConfig, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		cookieName: cfg.CookieName,
		loginURL:   cfg.LoginURL,
		log:        logger,
	}
}

// RequireLogin validates the login cookie with the upstream before calling next
func (auth *AuthMiddleware) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.cookieName)
		if err != nil || cookie.Value == "" {
			auth.deny(w, r)
			return
		}

		member, err := auth.verifier.Member(r.Context(), reservation.CredentialsFromRequest(r))
		if err != nil {
			if errors.Is(err, reservation.ErrUnauthenticated) {
				auth.deny(w, r)
				return
			}
			auth.log.Error().Err(err).Msg("Login check failed")
			http.Error(w, "Login check failed", http.StatusBadGateway)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), memberContextKey{}, member)))
	}
}

// deny sends members without a valid login to the login page. Browser
// navigations get a redirect; HTMX requests get HX-Redirect so the whole
// page navigates instead of swapping the login page into the table.
func (auth *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", auth.loginURL)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodGet {
		http.Redirect(w, r, auth.loginURL, http.StatusFound)
		return
	}

	http.Error(w, "Login required", http.StatusUnauthorized)
}
