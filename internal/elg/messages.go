package elg

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/dsh-elg/internal/orderedjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RequestTypeText is the only request type this service accepts.
const RequestTypeText = "text"

// ResponseTypeAnnotations is the type of every successful response.
const ResponseTypeAnnotations = "annotations"

// TextRequest is the inbound ELG text request. Content is kept raw so that
// presence can be told apart from an empty or null value.
type TextRequest struct {
	Type    string          `json:"type" validate:"eq=text"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// UnmarshalJSON decodes a request object matching the "type" and "content"
// keys exactly. Keys differing only in case are ignored. When a key repeats,
// the last value wins.
func (r *TextRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = TextRequest{}
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &r.Type); err != nil {
			return fmt.Errorf("type: %w", err)
		}
	}
	if raw, ok := fields["content"]; ok {
		r.Content = raw
	}
	return nil
}

// Annotation is a single annotated span. Features is either an ordered
// name/value object or, in the legacy shape, a list of distinct values.
type Annotation struct {
	Start    int `json:"start"`
	End      int `json:"end"`
	Features any `json:"features"`
}

// Categories maps annotation category names to their annotations, in
// insertion order.
type Categories struct {
	*orderedmap.OrderedMap[string, []Annotation]
}

// MarshalJSON encodes the categories in order without HTML escaping.
func (c *Categories) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return orderedjson.Marshal(c.OrderedMap)
}

// AnnotationsResponse is the body of a successful response.
type AnnotationsResponse struct {
	Type        string      `json:"type"`
	Annotations *Categories `json:"annotations"`
}

// ResponseEnvelope wraps an AnnotationsResponse.
type ResponseEnvelope struct {
	Response AnnotationsResponse `json:"response"`
}

// NewAnnotationsResponse builds a response with a single annotation category.
// A nil list is encoded as an empty array.
func NewAnnotationsResponse(category string, annotations []Annotation) ResponseEnvelope {
	if annotations == nil {
		annotations = []Annotation{}
	}
	byCategory := &Categories{OrderedMap: orderedmap.New[string, []Annotation]()}
	byCategory.Set(category, annotations)

	return ResponseEnvelope{
		Response: AnnotationsResponse{
			Type:        ResponseTypeAnnotations,
			Annotations: byCategory,
		},
	}
}
