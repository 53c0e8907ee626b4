package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/phrazzld/dsh-elg/internal/annotator"
	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
)

// TextUnitID is the identifier every request's text is submitted under. It
// only keys the engine's result for a single call and never leaves the service.
const TextUnitID = "text_001"

// FeatureShape selects how record features appear in annotations.
type FeatureShape string

const (
	// FeatureShapeMapping encodes features as an object of name to value, in engine order.
	FeatureShapeMapping FeatureShape = "mapping"

	// FeatureShapeSet encodes features as a list of distinct values with the
	// names dropped, matching the output of earlier versions of the service.
	FeatureShapeSet FeatureShape = "set"
)

// AnnotationService annotates ELG text content.
type AnnotationService interface {
	// Annotate runs one engine call over content, which must be a JSON string.
	// All failures are returned as *ProcessingError.
	Annotate(ctx context.Context, content json.RawMessage) (elg.ResponseEnvelope, error)
}

type annotationService struct {
	factory annotator.Factory
	shape   FeatureShape
	logger  *slog.Logger
}

// NewAnnotationService creates an AnnotationService that builds engines with factory.
func NewAnnotationService(
	factory annotator.Factory,
	shape FeatureShape,
	logger *slog.Logger,
) (AnnotationService, error) {
	if factory == nil {
		return nil, errors.New("engine factory cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	switch shape {
	case FeatureShapeMapping, FeatureShapeSet:
	default:
		return nil, fmt.Errorf("unknown feature shape %q", shape)
	}

	return &annotationService{
		factory: factory,
		shape:   shape,
		logger:  logger.With(slog.String("component", "annotation_service")),
	}, nil
}

// Annotate implements AnnotationService.
func (s *annotationService) Annotate(
	ctx context.Context,
	content json.RawMessage,
) (env elg.ResponseEnvelope, err error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			env = elg.ResponseEnvelope{}
			err = &ProcessingError{Err: &PanicError{Value: r}, Stack: debug.Stack()}
		}
	}()

	text, err := decodeContent(content)
	if err != nil {
		return elg.ResponseEnvelope{}, &ProcessingError{Err: err}
	}

	engine, err := s.factory(ctx)
	if err != nil {
		return elg.ResponseEnvelope{}, &ProcessingError{Err: err}
	}

	result, err := engine.ProcessText(ctx, text, TextUnitID)
	if err != nil {
		return elg.ResponseEnvelope{}, &ProcessingError{Err: err}
	}

	records, ok := result[TextUnitID]
	if !ok {
		return elg.ResponseEnvelope{}, &ProcessingError{
			Err: fmt.Errorf("%w %q", annotator.ErrMissingResult, TextUnitID),
		}
	}

	annotations, err := s.toAnnotations(records)
	if err != nil {
		return elg.ResponseEnvelope{}, &ProcessingError{Err: err}
	}

	log.DebugContext(ctx, "text annotated",
		slog.Int("record_count", len(records)),
		slog.String("feature_shape", string(s.shape)))

	return elg.NewAnnotationsResponse(annotator.Category, annotations), nil
}

// toAnnotations keeps record order and copies offsets verbatim.
func (s *annotationService) toAnnotations(records []*annotator.Record) ([]elg.Annotation, error) {
	annotations := make([]elg.Annotation, 0, len(records))
	for i, rec := range records {
		start, end, err := rec.Offsets()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		var features any
		if s.shape == FeatureShapeSet {
			features, err = featureSet(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		} else {
			features = rec.Features()
		}

		annotations = append(annotations, elg.Annotation{
			Start:    start,
			End:      end,
			Features: features,
		})
	}
	return annotations, nil
}

// featureSet returns the distinct feature values of rec. Values are compared
// by their JSON encoding; first occurrence wins.
func featureSet(rec *annotator.Record) ([]any, error) {
	values := []any{}
	seen := map[string]struct{}{}

	for pair := rec.Features().Oldest(); pair != nil; pair = pair.Next() {
		key, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", pair.Key, err)
		}
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		values = append(values, pair.Value)
	}
	return values, nil
}

// decodeContent unquotes a JSON string value. Null is not a string.
func decodeContent(content json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(content)
	if bytes.Equal(trimmed, []byte("null")) {
		return "", &ContentError{Kind: jsonKind(trimmed)}
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return "", &ContentError{Kind: jsonKind(trimmed)}
	}
	return text, nil
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
