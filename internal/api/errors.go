package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/service"
)

// ErrInvalidRequest marks client faults: an unparsable body or a missing or
// incorrect type or content field.
var ErrInvalidRequest = errors.New("invalid request")

// MapErrorToFailure maps an error to an HTTP status and ELG failure envelope.
// There are exactly two outcomes: invalid requests become 400
// elg.request.invalid, and everything else becomes 500
// elg.service.internalError carrying a one-line fault summary.
func MapErrorToFailure(err error) (int, elg.FailureEnvelope) {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest, elg.NewInvalidRequestFailure()
	}

	var procErr *service.ProcessingError
	if errors.As(err, &procErr) {
		return http.StatusInternalServerError, elg.NewInternalErrorFailure(procErr.Summary())
	}
	return http.StatusInternalServerError, elg.NewInternalErrorFailure(service.Summarize(err))
}

// invalidRequest wraps err as an ErrInvalidRequest. Validation errors are
// reduced to the failing fields so the log line stays short.
func invalidRequest(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidationErrors(validationErrs))
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

func describeValidationErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag())))
	}
	return strings.Join(parts, ", ")
}

// getValidationTagMessage maps validation tags to short messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "eq":
		return "has an unsupported value"
	default:
		return "failed validation"
	}
}
