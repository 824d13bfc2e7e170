package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank/logging"
)

func newRouter(t *testing.T, buf *bytes.Buffer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, err := logging.New(logging.Options{Format: "json", Output: buf})
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger), CORS())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})
	return router
}

func TestRequestIDIssued(t *testing.T) {
	router := newRouter(t, &bytes.Buffer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, id, body["request_id"])
}

func TestRequestIDPropagated(t *testing.T) {
	router := newRouter(t, &bytes.Buffer{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(t, &bytes.Buffer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(t, &buf)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["event_type"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/missing", entry["route"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
	assert.Equal(t, w.Header().Get(RequestIDHeader), entry["request_id"])
}
