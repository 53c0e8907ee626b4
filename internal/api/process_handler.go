package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/dsh-elg/internal/api/shared"
	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/phrazzld/dsh-elg/internal/service"
)

// ProcessHandler serves the ELG process endpoint.
type ProcessHandler struct {
	annotationService service.AnnotationService
	maxBodyBytes      int64
}

// NewProcessHandler creates a new ProcessHandler. Request bodies larger than
// maxBodyBytes are rejected as invalid requests.
func NewProcessHandler(annotationService service.AnnotationService, maxBodyBytes int64) *ProcessHandler {
	return &ProcessHandler{
		annotationService: annotationService,
		maxBodyBytes:      maxBodyBytes,
	}
}

// Process handles POST /process requests
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req elg.TextRequest
	if err := shared.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.respondWithError(w, r, invalidRequest(err))
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		h.respondWithError(w, r, invalidRequest(err))
		return
	}

	env, err := h.annotationService.Annotate(r.Context(), req.Content)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), slog.Default()).
		DebugContext(r.Context(), "annotations returned",
			slog.Int("annotation_count", annotationCount(env)))

	shared.RespondWithJSON(w, r, http.StatusOK, env)
}

func (h *ProcessHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, failure := MapErrorToFailure(err)

	var opts []shared.ResponseOption
	var procErr *service.ProcessingError
	if errors.As(err, &procErr) && len(procErr.Stack) > 0 {
		opts = append(opts, shared.WithStack(procErr.Stack))
	}

	shared.RespondWithFailure(w, r, status, failure, err, opts...)
}

func annotationCount(env elg.ResponseEnvelope) int {
	if env.Response.Annotations == nil {
		return 0
	}
	total := 0
	for pair := env.Response.Annotations.Oldest(); pair != nil; pair = pair.Next() {
		total += len(pair.Value)
	}
	return total
}
