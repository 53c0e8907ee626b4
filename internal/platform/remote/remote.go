// Package remote implements annotator.Engine by delegating to an annotation
// sidecar over HTTP. The sidecar receives {"text": ..., "id": ...} and answers
// with {"<id>": [records...]}, the same shape the annotation library returns.
//
// Every request reuses the same id, so the sidecar must treat it as a key
// into its reply only and never as shared state across calls.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/dsh-elg/internal/annotator"
	"github.com/phrazzld/dsh-elg/internal/config"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

type processRequest struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

// Engine posts text units to the sidecar. Each Engine owns a non-pooled
// client, so building one per request shares no connections between requests.
type Engine struct {
	url    string
	client *http.Client
}

// New creates an Engine from the remote configuration.
func New(cfg config.RemoteConfig) (*Engine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: remote URL cannot be empty", annotator.ErrInvalidConfig)
	}

	client := cleanhttp.DefaultClient()
	if cfg.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Engine{url: cfg.URL, client: client}, nil
}

// ProcessText implements annotator.Engine.
func (e *Engine) ProcessText(ctx context.Context, text, textID string) (annotator.Result, error) {
	log := logger.FromContext(ctx).With("component", "remote_engine")

	payload, err := json.Marshal(processRequest{Text: text, ID: textID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sidecar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build sidecar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", annotator.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	log.DebugContext(ctx, "sidecar responded",
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", time.Since(started)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: sidecar returned %d: %s",
			annotator.ErrEngineUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sidecar response: %v", annotator.ErrInvalidResponse, err)
	}

	var result annotator.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", annotator.ErrInvalidResponse, err)
	}

	return result, nil
}
