package elg

// Standard ELG status codes and message templates used by this service.
const (
	CodeRequestInvalid = "elg.request.invalid"
	TextRequestInvalid = "Invalid request message"

	CodeInternalError = "elg.service.internalError"
	TextInternalError = "Internal error during processing: {0}"
)

// StatusMessage is an ELG i18n status message. Text may contain {0}-style
// placeholders that the platform fills from Params.
type StatusMessage struct {
	Code   string   `json:"code"`
	Text   string   `json:"text"`
	Params []string `json:"params,omitempty"`
}

// Failure lists the errors that made a request fail.
type Failure struct {
	Errors []StatusMessage `json:"errors"`
}

// FailureEnvelope wraps a Failure.
type FailureEnvelope struct {
	Failure Failure `json:"failure"`
}

// NewInvalidRequestFailure is returned for unparsable or malformed requests.
func NewInvalidRequestFailure() FailureEnvelope {
	return FailureEnvelope{Failure: Failure{Errors: []StatusMessage{{
		Code: CodeRequestInvalid,
		Text: TextRequestInvalid,
	}}}}
}

// NewInternalErrorFailure is returned when annotation fails; summary is the
// one-line fault description substituted for {0}.
func NewInternalErrorFailure(summary string) FailureEnvelope {
	return FailureEnvelope{Failure: Failure{Errors: []StatusMessage{{
		Code:   CodeInternalError,
		Text:   TextInternalError,
		Params: []string{summary},
	}}}}
}
