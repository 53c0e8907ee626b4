package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/dsh-elg/internal/annotator"
	"github.com/phrazzld/dsh-elg/internal/elg"
	"github.com/phrazzld/dsh-elg/internal/mocks"
	"github.com/phrazzld/dsh-elg/internal/platform/lexicon"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/phrazzld/dsh-elg/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxBodyBytes = 1 << 16

// failureBody mirrors the failure envelope for decoding in tests.
type failureBody struct {
	Failure struct {
		Errors []elg.StatusMessage `json:"errors"`
	} `json:"failure"`
}

// successBody mirrors the response envelope for decoding in tests.
type successBody struct {
	Response struct {
		Type        string                                  `json:"type"`
		Annotations map[string][]map[string]json.RawMessage `json:"annotations"`
	} `json:"response"`
}

func newTestHandler(t *testing.T, factory annotator.Factory, shape service.FeatureShape) *ProcessHandler {
	t.Helper()
	_, log := logger.SetupTestLogger(t)
	svc, err := service.NewAnnotationService(factory, shape, log)
	require.NoError(t, err)
	return NewProcessHandler(svc, testMaxBodyBytes)
}

func post(h *ProcessHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Process(w, req)
	return w
}

func TestProcess_ScenarioA(t *testing.T) {
	tests := []struct {
		name  string
		shape service.FeatureShape
		want  string
	}{
		{
			name:  "mapping features",
			shape: service.FeatureShapeMapping,
			want:  `{"response":{"type":"annotations","annotations":{"self-harm":[{"start":0,"end":21,"features":{"risk":"high"}}]}}}`,
		},
		{
			name:  "legacy set features",
			shape: service.FeatureShapeSet,
			want:  `{"response":{"type":"annotations","annotations":{"self-harm":[{"start":0,"end":21,"features":["high"]}]}}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := mocks.NewMockEngineWithRecords(annotator.NewSpan(0, 21).Set("risk", "high"))
			h := newTestHandler(t, engine.Factory(), tc.shape)

			w := post(h, `{"type":"text","content":"I want to hurt myself"}`)

			assert.Equal(t, 1, engine.Builds())
			assert.Equal(t, []string{"I want to hurt myself"}, engine.Texts())
			assert.Equal(t, []string{service.TextUnitID}, engine.TextIDs())

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.want+"\n", w.Body.String())
		})
	}
}

func TestProcess_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing type", `{"content":"hello"}`},
		{"wrong type", `{"type":"audio","content":"hello"}`},
		{"type not a string", `{"type":1,"content":"hello"}`},
		{"missing content", `{"type":"text"}`},
		{"upper case keys", `{"TYPE":"text","CONTENT":"hello"}`},
		{"capitalised type overriding wrong type", `{"type":"audio","Type":"text","content":"hello"}`},
		{"capitalised content", `{"type":"text","Content":"hello"}`},
		{"empty object", `{}`},
		{"not json", `this is not json`},
		{"truncated json", `{"type":"text","content":"hel`},
		{"empty body", ``},
		{"array body", `[{"type":"text","content":"hello"}]`},
		{"string body", `"hello"`},
		{"null body", `null`},
		{"trailing data", `{"type":"text","content":"hello"} {}`},
		{"oversized body", `{"type":"text","content":"` + strings.Repeat("a", testMaxBodyBytes) + `"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := &mocks.MockEngine{}
			h := newTestHandler(t, engine.Factory(), service.FeatureShapeMapping)

			w := post(h, tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t,
				`{"failure":{"errors":[{"code":"elg.request.invalid","text":"Invalid request message"}]}}`+"\n",
				w.Body.String())
			assert.Zero(t, engine.Builds(), "no engine is built for invalid requests")
			assert.Zero(t, engine.Calls())
		})
	}
}

func TestProcess_InvalidRequestLoggedAtDebug(t *testing.T) {
	logBuf, log := logger.SetupTestLogger(t)
	svc, err := service.NewAnnotationService(mocks.NewMockEngineWithRecords().Factory(), service.FeatureShapeMapping, log)
	require.NoError(t, err)
	h := NewProcessHandler(svc, testMaxBodyBytes)

	w := post(h, `{"content":"hello"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	entry, found := logger.FindLogEntry(t, logBuf, "API error response")
	require.True(t, found)
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "invalid request: type has an unsupported value", entry["error"])
}

func TestProcess_ScenarioD(t *testing.T) {
	logBuf, log := logger.SetupTestLogger(t)
	svc, err := service.NewAnnotationService(
		mocks.NewMockEngineWithError(errors.New("model not loaded")).Factory(), service.FeatureShapeMapping, log)
	require.NoError(t, err)
	h := NewProcessHandler(svc, testMaxBodyBytes)

	w := post(h, `{"type":"text","content":"I want to hurt myself"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body failureBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Failure.Errors, 1)
	msg := body.Failure.Errors[0]
	assert.Equal(t, elg.CodeInternalError, msg.Code)
	assert.Equal(t, "Internal error during processing: {0}", msg.Text)
	require.Len(t, msg.Params, 1)
	assert.Contains(t, msg.Params[0], "model not loaded")
	assert.Equal(t, "error: model not loaded", msg.Params[0])

	entry, found := logger.FindLogEntry(t, logBuf, "API error response")
	require.True(t, found)
	assert.Equal(t, "ERROR", entry["level"])
}

func TestProcess_InternalFaults(t *testing.T) {
	tests := []struct {
		name      string
		factory   annotator.Factory
		body      string
		wantParam string
		wantStack bool
	}{
		{
			name: "engine construction fails",
			factory: (&mocks.MockEngine{
				BuildErr: fmt.Errorf("%w: dial tcp: connection refused", annotator.ErrEngineUnavailable),
			}).Factory(),
			body:      `{"type":"text","content":"x"}`,
			wantParam: "annotator.EngineUnavailableError: annotation engine unavailable: dial tcp: connection refused",
		},
		{
			name: "engine panics",
			factory: func(context.Context) (annotator.Engine, error) {
				return annotator.EngineFunc(func(context.Context, string, string) (annotator.Result, error) {
					panic("tokenizer exploded")
				}), nil
			},
			body:      `{"type":"text","content":"x"}`,
			wantParam: "panic: tokenizer exploded",
			wantStack: true,
		},
		{
			name:      "malformed record",
			factory:   mocks.NewMockEngineWithRecords(annotator.NewRecord().Set("start", 0)).Factory(),
			body:      `{"type":"text","content":"x"}`,
			wantParam: `annotator.MalformedRecordError: record 0: malformed annotation record: missing "end"`,
		},
		{
			name:      "content not a string",
			factory:   mocks.NewMockEngineWithRecords().Factory(),
			body:      `{"type":"text","content":42}`,
			wantParam: "service.ContentError: content must be a string, got number",
		},
		{
			name:      "content null",
			factory:   mocks.NewMockEngineWithRecords().Factory(),
			body:      `{"type":"text","content":null}`,
			wantParam: "service.ContentError: content must be a string, got null",
		},
		{
			name:      "multi-line fault message",
			factory:   mocks.NewMockEngineWithError(errors.New("Traceback:\n  File x\nValueError: bad")).Factory(),
			body:      `{"type":"text","content":"x"}`,
			wantParam: "error: Traceback: File x ValueError: bad",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logBuf, log := logger.SetupTestLogger(t)
			svc, err := service.NewAnnotationService(tc.factory, service.FeatureShapeMapping, log)
			require.NoError(t, err)
			h := NewProcessHandler(svc, testMaxBodyBytes)

			w := post(h, tc.body)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var body failureBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Len(t, body.Failure.Errors, 1)
			assert.Equal(t, elg.CodeInternalError, body.Failure.Errors[0].Code)
			require.Len(t, body.Failure.Errors[0].Params, 1)
			assert.Equal(t, tc.wantParam, body.Failure.Errors[0].Params[0])
			assert.NotContains(t, w.Body.String(), "goroutine")

			entry, found := logger.FindLogEntry(t, logBuf, "API error response")
			require.True(t, found)
			if tc.wantStack {
				assert.Contains(t, entry["stack"], "goroutine")
			} else {
				assert.NotContains(t, entry, "stack")
			}
		})
	}
}

func TestProcess_PreservesRecordsVerbatim(t *testing.T) {
	records := []*annotator.Record{
		annotator.NewSpan(12, 23).Set("risk", "high").Set("category", "intent"),
		annotator.NewSpan(0, 4).Set("risk", "medium"),
		annotator.NewSpan(5, 5),
		annotator.NewRecord().Set("category", "x").Set("end", 9.0).Set("start", json.Number("3")),
	}
	h := newTestHandler(t, mocks.NewMockEngineWithRecords(records...).Factory(), service.FeatureShapeMapping)

	w := post(h, `{"type":"text","content":"Sometimes I HATE MYSELF"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body successBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "annotations", body.Response.Type)
	require.Len(t, body.Response.Annotations, 1, "exactly one annotation category")

	got := body.Response.Annotations["self-harm"]
	require.Len(t, got, len(records))

	for i, rec := range records {
		start, end, err := rec.Offsets()
		require.NoError(t, err)

		var gotStart, gotEnd int
		require.NoError(t, json.Unmarshal(got[i]["start"], &gotStart))
		require.NoError(t, json.Unmarshal(got[i]["end"], &gotEnd))
		assert.Equal(t, start, gotStart, "annotation %d", i)
		assert.Equal(t, end, gotEnd, "annotation %d", i)
		assert.LessOrEqual(t, gotStart, gotEnd)
	}

	assert.JSONEq(t, `{"risk":"high","category":"intent"}`, string(got[0]["features"]))
	assert.JSONEq(t, `{}`, string(got[2]["features"]))
	assert.JSONEq(t, `{"category":"x"}`, string(got[3]["features"]))
}

func TestProcess_KeyOrderNotSorted(t *testing.T) {
	h := newTestHandler(t,
		mocks.NewMockEngineWithRecords(annotator.NewSpan(0, 3).Set("zeta", 1).Set("alpha", 2).Set("mid", "<&>")).Factory(),
		service.FeatureShapeMapping)

	w := post(h, `{"type":"text","content":"abc"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		`{"response":{"type":"annotations","annotations":{"self-harm":[{"start":0,"end":3,"features":{"zeta":1,"alpha":2,"mid":"<&>"}}]}}}`+"\n",
		w.Body.String())
	assert.NotContains(t, w.Body.String(), "status")
}

func TestProcess_LegacySetLeavesMarkupUnescaped(t *testing.T) {
	h := newTestHandler(t,
		mocks.NewMockEngineWithRecords(annotator.NewSpan(0, 3).Set("mid", "<&>").Set("tag", "a>b")).Factory(),
		service.FeatureShapeSet)

	w := post(h, `{"type":"text","content":"abc"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		`{"response":{"type":"annotations","annotations":{"self-harm":[{"start":0,"end":3,"features":["<&>","a>b"]}]}}}`+"\n",
		w.Body.String())
}

func TestProcess_Idempotent(t *testing.T) {
	engine := lexicon.NewDefault()
	factory := func(context.Context) (annotator.Engine, error) { return engine, nil }

	for _, shape := range []service.FeatureShape{service.FeatureShapeMapping, service.FeatureShapeSet} {
		t.Run(string(shape), func(t *testing.T) {
			h := newTestHandler(t, factory, shape)
			body := `{"type":"text","content":"Sometimes I HATE MYSELF and I want to die"}`

			first := post(h, body)
			second := post(h, body)

			require.Equal(t, http.StatusOK, first.Code)
			assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
			assert.Contains(t, first.Body.String(), `"self-harm":[{`)
		})
	}
}

func TestProcess_ContentTypeNotEnforced(t *testing.T) {
	h := newTestHandler(t, mocks.NewMockEngineWithRecords().Factory(), service.FeatureShapeMapping)

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"type":"text","content":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.Process(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMapErrorToFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantParams []string
	}{
		{
			name:       "invalid request",
			err:        invalidRequest(errors.New("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantCode:   elg.CodeRequestInvalid,
		},
		{
			name:       "processing error",
			err:        &service.ProcessingError{Err: errors.New("model not loaded")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   elg.CodeInternalError,
			wantParams: []string{"error: model not loaded"},
		},
		{
			name:       "any other error",
			err:        annotator.ErrInvalidResponse,
			wantStatus: http.StatusInternalServerError,
			wantCode:   elg.CodeInternalError,
			wantParams: []string{"annotator.InvalidResponseError: invalid response from annotation engine"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, failure := MapErrorToFailure(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			require.Len(t, failure.Failure.Errors, 1)
			assert.Equal(t, tc.wantCode, failure.Failure.Errors[0].Code)
			assert.Equal(t, tc.wantParams, failure.Failure.Errors[0].Params)
		})
	}
}
