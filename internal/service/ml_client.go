package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"expense-ingest/pkg/config"

	"go.uber.org/zap"
)

// MLClient talks to the classification service over HTTP.
//
//	POST /classify {"text": ...}            -> {"category": ...}
//	POST /feedback {"text": ..., "label": ...}
//	POST /retrain                           -> 202 Accepted
type MLClient struct {
	baseURL    string
	httpClient *http.Client
	policy     callPolicy
	logger     *zap.Logger
}

func NewMLClient(cfg *config.MLConfig, logger *zap.Logger) *MLClient {
	return &MLClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{},
		policy:     newCallPolicy(cfg.Timeout, cfg.RetryBackoff),
		logger:     logger,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Category string `json:"category"`
}

type feedbackRequest struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Classify returns the raw label predicted for text.
func (c *MLClient) Classify(ctx context.Context, text string) (string, error) {
	var out classifyResponse
	err := c.policy.do(ctx, func(ctx context.Context) error {
		out = classifyResponse{}
		return c.postJSON(ctx, "/classify", classifyRequest{Text: text}, &out)
	})
	if err != nil {
		return "", fmt.Errorf("%w: classify: %w", ErrExternalService, err)
	}
	if strings.TrimSpace(out.Category) == "" {
		return "", fmt.Errorf("%w: classify: empty category", ErrExternalService)
	}
	return out.Category, nil
}

func (c *MLClient) SendFeedback(ctx context.Context, text, label string) error {
	err := c.policy.do(ctx, func(ctx context.Context) error {
		return c.postJSON(ctx, "/feedback", feedbackRequest{Text: text, Label: label}, nil)
	})
	if err != nil {
		return fmt.Errorf("%w: feedback: %w", ErrExternalService, err)
	}
	c.logger.Debug("Feedback delivered", zap.String("label", label))
	return nil
}

// Retrain asks the service to rebuild its model. The service answers 202 and
// trains in the background.
func (c *MLClient) Retrain(ctx context.Context) error {
	err := c.policy.do(ctx, func(ctx context.Context) error {
		return c.postJSON(ctx, "/retrain", nil, nil)
	})
	if err != nil {
		return fmt.Errorf("%w: retrain: %w", ErrExternalService, err)
	}
	c.logger.Info("Model retrain requested")
	return nil
}

func (c *MLClient) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
