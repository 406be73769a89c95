package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProtocolMiddleware(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := HTTPProtocolMiddleware(testHandler)

	t.Run("DisablesHTTP3Globally", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		wrappedHandler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, PagePath, nil))

		assert.Equal(t, "clear", recorder.Header().Get("Alt-Svc"))
		assert.Empty(t, recorder.Header().Get("X-Force-HTTP1"))
	})

	t.Run("AddsSSESpecificHeadersForEventsEndpoint", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		wrappedHandler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, EventsPath, nil))

		assert.Equal(t, "clear", recorder.Header().Get("Alt-Svc"))
		assert.Equal(t, "keep-alive", recorder.Header().Get("Connection"))
		assert.Equal(t, "true", recorder.Header().Get("X-Force-HTTP1"))
	})
}

func TestRequestLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var ctxLoggerUsed bool
	handler := RequestLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		ctxLoggerUsed = true
		w.WriteHeader(http.StatusBadGateway)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, PagePath+"/2", nil))

	require.True(t, ctxLoggerUsed)
	requestID := recorder.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))

	assert.Equal(t, requestID, inner["request_id"])
	assert.Equal(t, requestID, access["request_id"])
	assert.Equal(t, "DELETE", access["method"])
	assert.Equal(t, PagePath+"/2", access["path"])
	assert.Equal(t, float64(http.StatusBadGateway), access["status"])
	assert.Equal(t, "error", access["level"])
}

func TestRequestLogMiddleware_KeepsValidIncomingID(t *testing.T) {
	handler := RequestLogMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, PagePath, nil)
	req.Header.Set(RequestIDHeader, incoming)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.Equal(t, incoming, recorder.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, PagePath, nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\nforged")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.NotEqual(t, "not-a-uuid\r\nforged", recorder.Header().Get(RequestIDHeader))
}

func TestStatusRecorderFlushes(t *testing.T) {
	recorder := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: recorder}

	var w http.ResponseWriter = sr
	flusher, ok := w.(http.Flusher)
	require.True(t, ok)

	flusher.Flush()
	assert.True(t, recorder.Flushed)
}

func TestWrapMuxWithMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := WrapMuxWithMiddleware(mux, zerolog.Nop())

	recorder := httptest.NewRecorder()
	wrappedHandler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "clear", recorder.Header().Get("Alt-Svc"))
	assert.NotEmpty(t, recorder.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
