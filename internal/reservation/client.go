// Package reservation talks to the upstream reservation REST API
package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/models"
)

// Failures are binary per operation; callers only check which one happened
var (
	ErrReadFailed   = errors.New("reservation read failed")
	ErrDeleteFailed = errors.New("reservation delete failed")
)

// ErrUnauthenticated is returned when the upstream does not accept the login cookie
var ErrUnauthenticated = errors.New("member not logged in")

// maxBodyBytes caps how much of an upstream response is read
const maxBodyBytes = 1 << 20

// Credentials carry what identifies the logged-in member to the upstream.
// The upstream authenticates by its login cookie, so the browser's cookies
// are forwarded as-is.
type Credentials struct {
	Cookies []*http.Cookie
}

// CredentialsFromRequest extracts forwardable credentials from an incoming request
func CredentialsFromRequest(r *http.Request) Credentials {
	return Credentials{Cookies: r.Cookies()}
}

func (c Credentials) apply(req *http.Request) {
	for _, cookie := range c.Cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
}

// Client handles interactions with the reservation API
type Client struct {
	mineURL        string
	memberURL      string
	cancelURL      string
	confirmedLabel string
	httpClient     *http.Client
}

// NewClient creates a new reservation API client
func NewClient(upstream config.UpstreamConfig, confirmedLabel string) *Client {
	return NewClientWithHTTP(upstream, confirmedLabel, &http.Client{
		Timeout: upstream.Timeout,
	})
}

// NewClientWithHTTP creates a client around an existing *http.Client
func NewClientWithHTTP(upstream config.UpstreamConfig, confirmedLabel string, httpClient *http.Client) *Client {
	return &Client{
		mineURL:        upstream.MineURL(),
		memberURL:      upstream.MemberURL(),
		cancelURL:      upstream.CancelURL(),
		confirmedLabel: confirmedLabel,
		httpClient:     httpClient,
	}
}

// FetchMine reads the member's reservations. Only 200 counts as success;
// every entry in the body must pass Validate.
func (c *Client) FetchMine(ctx context.Context, creds Credentials) ([]models.ReservationEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mineURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrReadFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", ErrReadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrReadFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReadFailed, resp.StatusCode)
	}

	entries, err := models.DecodeReservationEntries(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	for _, entry := range entries {
		if err := entry.Validate(c.confirmedLabel); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
	}

	return entries, nil
}

// Cancel deletes one reservation. It succeeds only on 204 No Content.
func (c *Client) Cancel(ctx context.Context, creds Credentials, id models.ReservationID) error {
	if id == "" {
		return fmt.Errorf("%w: empty reservation id", ErrDeleteFailed)
	}

	endpoint := c.cancelURL + "/" + url.PathEscape(id.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrDeleteFailed, err)
	}
	creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to make request: %w", ErrDeleteFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrDeleteFailed, resp.StatusCode)
	}

	return nil
}

// Member asks the upstream who owns the credentials. 401 and 403 mean the
// login cookie is missing or expired; other failures are transport errors.
func (c *Client) Member(ctx context.Context, creds Credentials) (models.Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.memberURL, nil)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	creds.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.Member{}, ErrUnauthenticated
	default:
		return models.Member{}, fmt.Errorf("login check returned status %d", resp.StatusCode)
	}

	var member models.Member
	if err := json.Unmarshal(body, &member); err != nil {
		return models.Member{}, fmt.Errorf("failed to parse member response: %w", err)
	}
	return member, nil
}
