package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/dsh-elg/internal/api/shared"
	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/phrazzld/dsh-elg/internal/service"
)

// Recoverer turns a panic escaping the handler chain into a 500 ELG
// internal-error envelope and logs it with its stack. http.ErrAbortHandler is
// re-raised so the server can abort the connection. When the handler had
// already started its response the panic is only logged.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			stack := debug.Stack()
			err := &service.PanicError{Value: rec}
			if started(w) {
				logger.FromContextOrDefault(r.Context(), slog.Default()).ErrorContext(r.Context(),
					"panic after response started",
					slog.String("error", service.Summarize(err)),
					slog.String("stack", string(stack)))
				return
			}

			shared.RespondWithFailure(w, r, http.StatusInternalServerError,
				elg.NewInternalErrorFailure(service.Summarize(err)), err, shared.WithStack(stack))
		}()

		next.ServeHTTP(w, r)
	})
}

// started reports whether a status has already been sent on w.
func started(w http.ResponseWriter) bool {
	sw, ok := w.(interface{ Status() int })
	return ok && sw.Status() != 0
}
