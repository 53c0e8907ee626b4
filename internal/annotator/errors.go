package annotator

// Error is a typed engine fault. Its FaultType names the kind of fault in
// client-facing summaries.
type Error struct {
	kind string
	msg  string
}

func newError(kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements error.
func (e *Error) Error() string {
	return e.msg
}

// FaultType returns a qualified name such as "annotator.MissingResultError".
func (e *Error) FaultType() string {
	return "annotator." + e.kind
}

// Common errors returned by engines and record helpers.
var (
	// ErrEngineUnavailable is returned when an engine cannot be reached or constructed.
	ErrEngineUnavailable = newError("EngineUnavailableError", "annotation engine unavailable")

	// ErrMissingResult is returned when the engine output has no entry for the text unit.
	ErrMissingResult = newError("MissingResultError", "no result for text unit")

	// ErrMalformedRecord is returned when a record lacks valid integer offsets.
	ErrMalformedRecord = newError("MalformedRecordError", "malformed annotation record")

	// ErrInvalidResponse is returned when the engine response cannot be parsed.
	ErrInvalidResponse = newError("InvalidResponseError", "invalid response from annotation engine")

	// ErrContentBlocked is returned when a model refuses to process the text.
	ErrContentBlocked = newError("ContentBlockedError", "content blocked by model safety filters")

	// ErrInvalidConfig is returned when an engine configuration is invalid.
	ErrInvalidConfig = newError("InvalidConfigError", "invalid annotation engine configuration")
)
