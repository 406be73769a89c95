package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSSEManager(t *testing.T) {
	manager := NewSSEManager(zerolog.Nop())
	defer manager.Shutdown()

	assert.NotNil(t, manager.server)
	assert.False(t, manager.server.AutoReplay)
	assert.True(t, manager.server.StreamExists(ReservationStream))
	assert.Equal(t, "no", manager.server.Headers["X-Accel-Buffering"])
}

// readEvents streams the SSE response body line by line into a channel
func readEvents(t *testing.T, url string) (<-chan string, *http.Response) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines, resp
}

func TestSSEManager_PublishesUpdates(t *testing.T) {
	manager := NewSSEManager(zerolog.Nop())
	server := httptest.NewServer(manager)
	t.Cleanup(server.Close)
	t.Cleanup(manager.Shutdown)

	// No stream parameter: the reservation stream is used
	lines, resp := readEvents(t, server.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var seen []string
	var gotEvent, gotData bool
	assert.Eventually(t, func() bool {
		// Subscription registers asynchronously, so publish until one arrives
		if !gotEvent && !gotData {
			manager.NotifyReservationUpdate("2")
		}
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return false
				}
				seen = append(seen, line)
				gotEvent = gotEvent || line == "event: "+UpdateEvent
				gotData = gotData || line == "data: reservations changed"
				if gotEvent && gotData {
					return true
				}
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}
	}, 3*time.Second, 100*time.Millisecond)

	assert.NotContains(t, strings.Join(seen, "\n"), "data: 2")
}

func TestSSEManager_UnknownStream(t *testing.T) {
	manager := NewSSEManager(zerolog.Nop())
	defer manager.Shutdown()

	recorder := httptest.NewRecorder()
	manager.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, EventsPath+"?stream=other", nil))

	assert.GreaterOrEqual(t, recorder.Code, http.StatusBadRequest)
}
