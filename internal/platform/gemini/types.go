package gemini

import "google.golang.org/genai"

// promptData represents the data passed to the prompt template
type promptData struct {
	Text string
}

// ResponseSchema represents the expected structure of the model's JSON output
type ResponseSchema struct {
	// Spans lists the passages flagged by the model, in text order
	Spans []SpanSchema `json:"spans"`
}

// SpanSchema represents a single flagged passage
type SpanSchema struct {
	// Quote is the passage copied verbatim from the input text
	Quote string `json:"quote"`

	// Risk is the assessed risk level: high, medium or low
	Risk string `json:"risk"`

	// Category is a short label such as suicidal-ideation or self-injury
	Category string `json:"category"`
}

// responseSchema mirrors ResponseSchema for Gemini's structured output mode.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"spans": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"quote":    {Type: genai.TypeString},
					"risk":     {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
					"category": {Type: genai.TypeString},
				},
				Required: []string{"quote", "risk", "category"},
			},
		},
	},
	Required: []string{"spans"},
}
