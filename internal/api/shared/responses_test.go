package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         interface{}
		expectedBody string
	}{
		{
			name:         "struct keeps field order",
			status:       http.StatusOK,
			data:         elg.NewAnnotationsResponse("self-harm", nil),
			expectedBody: `{"response":{"type":"annotations","annotations":{"self-harm":[]}}}`,
		},
		{
			name:         "html is not escaped",
			status:       http.StatusOK,
			data:         map[string]string{"text": "<b>&</b>"},
			expectedBody: `{"text":"<b>&</b>"}`,
		},
		{
			name:         "nil response",
			status:       http.StatusOK,
			data:         nil,
			expectedBody: `null`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			w := httptest.NewRecorder()

			RespondWithJSON(w, req, tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedBody+"\n", w.Body.String())
		})
	}
}

func TestRespondWithJSONTraceHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req = req.WithContext(WithTraceID(req.Context(), "test-trace-id"))
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]int{"a": 1})

	assert.Equal(t, "test-trace-id", w.Header().Get(TraceIDHeader))
	assert.NotContains(t, w.Body.String(), "test-trace-id")
}

// Test for json encoding errors - this requires a data type that can't be JSON encoded
type UnencodableType struct {
	Circular *UnencodableType
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	logBuf, _ := logger.SetupTestLogger(t)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()

	data := &UnencodableType{}
	data.Circular = data

	RespondWithJSON(w, req, http.StatusOK, data)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(),
		`{"failure":{"errors":[{"code":"elg.service.internalError","text":"Internal error during processing: {0}","params":["json.UnsupportedValueError: `)

	_, found := logger.FindLogEntry(t, logBuf, "failed to encode JSON response")
	assert.True(t, found)
}

func TestRespondWithFailure(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		failure       elg.FailureEnvelope
		err           error
		opts          []ResponseOption
		expectedLevel string
		expectedBody  string
		expectStack   bool
	}{
		{
			name:          "server error",
			statusCode:    http.StatusInternalServerError,
			failure:       elg.NewInternalErrorFailure("error: model not loaded"),
			err:           errors.New("model not loaded"),
			expectedLevel: "ERROR",
			expectedBody:  `{"failure":{"errors":[{"code":"elg.service.internalError","text":"Internal error during processing: {0}","params":["error: model not loaded"]}]}}`,
		},
		{
			name:          "server error with stack",
			statusCode:    http.StatusInternalServerError,
			failure:       elg.NewInternalErrorFailure("panic: boom"),
			err:           errors.New("boom"),
			opts:          []ResponseOption{WithStack([]byte("goroutine 1 [running]:"))},
			expectedLevel: "ERROR",
			expectedBody:  `{"failure":{"errors":[{"code":"elg.service.internalError","text":"Internal error during processing: {0}","params":["panic: boom"]}]}}`,
			expectStack:   true,
		},
		{
			name:          "client error",
			statusCode:    http.StatusBadRequest,
			failure:       elg.NewInvalidRequestFailure(),
			err:           errors.New("invalid character 'x'"),
			expectedLevel: "DEBUG",
			expectedBody:  `{"failure":{"errors":[{"code":"elg.request.invalid","text":"Invalid request message"}]}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logBuf, _ := logger.SetupTestLogger(t)

			ctx := WithTraceID(context.Background(), "test-trace-id")
			req := httptest.NewRequest(http.MethodPost, "/process", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			RespondWithFailure(w, req, tc.statusCode, tc.failure, tc.err, tc.opts...)

			assert.Equal(t, tc.statusCode, w.Code)
			assert.Equal(t, tc.expectedBody+"\n", w.Body.String())
			assert.NotContains(t, w.Body.String(), "goroutine")

			entry, found := logger.FindLogEntry(t, logBuf, "API error response")
			require.True(t, found)
			assert.Equal(t, tc.expectedLevel, entry["level"])
			assert.Equal(t, "test-trace-id", entry["trace_id"])
			assert.Equal(t, float64(tc.statusCode), entry["status_code"])
			assert.Equal(t, tc.failure.Failure.Errors[0].Code, entry["error_code"])
			assert.Equal(t, tc.err.Error(), entry["error"])
			assert.Equal(t, "*errors.errorString", entry["error_type"])
			if tc.expectStack {
				assert.Equal(t, "goroutine 1 [running]:", entry["stack"])
			} else {
				assert.NotContains(t, entry, "stack")
			}
		})
	}
}

func TestRespondWithFailureRedactsLogs(t *testing.T) {
	logBuf, _ := logger.SetupTestLogger(t)

	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	w := httptest.NewRecorder()

	err := errors.New("POST https://engine.local/?key=AIzaSyDummyKeyThatLooksReal failed")
	RespondWithFailure(w, req, http.StatusInternalServerError, elg.NewInternalErrorFailure("x"), err)

	assert.NotContains(t, logBuf.String(), "AIzaSyDummyKeyThatLooksReal")
	assert.Contains(t, logBuf.String(), "[REDACTED_KEY]")
}
