// Package mocks provides centralized mock implementations for testing.
//
// Mocks use function fields for custom behavior, fall back to fixed default
// results, and record their calls for verification:
//
//	engine := &mocks.MockEngine{
//	    ProcessTextFn: func(ctx context.Context, text, textID string) (annotator.Result, error) {
//	        return nil, errors.New("model not loaded")
//	    },
//	}
//	svc, _ := service.NewAnnotationService(engine.Factory(), service.FeatureShapeMapping, logger)
package mocks
