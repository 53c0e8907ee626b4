package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/dsh-elg/internal/annotator"
)

// MockEngine implements annotator.Engine for testing
type MockEngine struct {
	// ProcessTextFn allows test cases to mock the ProcessText behavior
	ProcessTextFn func(ctx context.Context, text, textID string) (annotator.Result, error)

	// Records are returned under the requested text ID when ProcessTextFn is nil
	Records []*annotator.Record
	Err     error

	// BuildErr makes the factory returned by Factory fail
	BuildErr error

	mu      sync.Mutex
	texts   []string
	textIDs []string
	builds  int
}

// NewMockEngineWithRecords creates a MockEngine that returns the given records
func NewMockEngineWithRecords(records ...*annotator.Record) *MockEngine {
	return &MockEngine{Records: records}
}

// NewMockEngineWithError creates a MockEngine whose ProcessText fails with err
func NewMockEngineWithError(err error) *MockEngine {
	return &MockEngine{Err: err}
}

// ProcessText implements annotator.Engine
func (m *MockEngine) ProcessText(ctx context.Context, text, textID string) (annotator.Result, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.textIDs = append(m.textIDs, textID)
	m.mu.Unlock()

	if m.ProcessTextFn != nil {
		return m.ProcessTextFn(ctx, text, textID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return annotator.Result{textID: m.Records}, nil
}

// Factory returns an annotator.Factory that hands out this mock and counts
// how many engines were requested.
func (m *MockEngine) Factory() annotator.Factory {
	return func(context.Context) (annotator.Engine, error) {
		m.mu.Lock()
		m.builds++
		m.mu.Unlock()

		if m.BuildErr != nil {
			return nil, m.BuildErr
		}
		return m, nil
	}
}

// Calls returns the number of ProcessText calls
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Texts returns the texts passed to ProcessText, in call order
func (m *MockEngine) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// TextIDs returns the text IDs passed to ProcessText, in call order
func (m *MockEngine) TextIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.textIDs...)
}

// Builds returns the number of engines requested through Factory
func (m *MockEngine) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}
