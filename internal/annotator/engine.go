package annotator

import (
	"context"
)

// Category is the single annotation category produced by this service.
const Category = "self-harm"

// Result maps a text unit identifier to the records produced for it.
type Result map[string][]*Record

// Engine annotates text for self-harm content.
type Engine interface {
	// ProcessText annotates text and returns the records under textID.
	// Engines may return results for other identifiers too; callers read textID only.
	ProcessText(ctx context.Context, text, textID string) (Result, error)
}

// Factory builds a fresh Engine. The service calls it once per request.
type Factory func(ctx context.Context) (Engine, error)

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, text, textID string) (Result, error)

// ProcessText implements Engine.
func (f EngineFunc) ProcessText(ctx context.Context, text, textID string) (Result, error) {
	return f(ctx, text, textID)
}
