package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/phrazzld/dsh-elg/internal/redact"
)

// TraceIDHeader carries the request's trace ID back to the caller. The trace
// ID never appears in a response body.
const TraceIDHeader = "X-Trace-Id"

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

// responseOptions holds configurable options for error responses.
type responseOptions struct {
	stack []byte
}

// WithStack attaches a goroutine stack to the error log entry. The stack is
// never sent to the client.
func WithStack(stack []byte) ResponseOption {
	return func(opts *responseOptions) {
		opts.stack = stack
	}
}

// RespondWithJSON writes a JSON response with the given status code and data.
// The body is encoded before anything is written, so an encoding failure is
// reported to the client as an ELG internal error instead of a truncated body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := encodeJSON(data)
	if err != nil {
		log := logger.FromContextOrDefault(r.Context(), slog.Default())
		log.ErrorContext(r.Context(), "failed to encode JSON response",
			slog.String("error", redact.Error(err)),
			slog.String("trace_id", GetTraceID(r.Context())))

		status = http.StatusInternalServerError
		body, _ = encodeJSON(elg.NewInternalErrorFailure(errorType(err) + ": " + redact.Error(err)))
	}

	w.Header().Set("Content-Type", "application/json")
	if traceID := GetTraceID(r.Context()); traceID != "" {
		w.Header().Set(TraceIDHeader, traceID)
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			DebugContext(r.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

// RespondWithFailure writes an ELG failure envelope and logs the detailed error.
// Only the envelope reaches the client; err and any stack stay in the logs.
//
// Log level strategy:
// - 5xx errors: Always logged at ERROR level
// - 4xx errors: Logged at DEBUG level, since they are client faults
func RespondWithFailure(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	failure elg.FailureEnvelope,
	err error,
	opts ...ResponseOption,
) {
	responseOpts := responseOptions{}
	for _, opt := range opts {
		opt(&responseOpts)
	}

	traceID := GetTraceID(r.Context())
	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
	}
	if len(failure.Failure.Errors) > 0 {
		logAttrs = append(logAttrs, slog.String("error_code", failure.Failure.Errors[0].Code))
	}

	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	if len(responseOpts.stack) > 0 {
		logAttrs = append(logAttrs, slog.String("stack", string(responseOpts.stack)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}

	log := logger.FromContextOrDefault(r.Context(), slog.Default())
	log.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, failure)
}

// encodeJSON encodes v the way every response body is written: no HTML
// escaping and a trailing newline.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func errorType(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
