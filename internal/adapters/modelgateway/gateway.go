// Package modelgateway adapts the AI model gateway's HTTP API to the
// worker's model boundaries: unified model calls, model configuration,
// token counting, and context compression all live behind one service.
package modelgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

const defaultTimeout = 5 * time.Minute

// Options groups dependencies for Gateway.
type Options struct {
	BaseURL    string       // Required: gateway base URL
	ServiceKey string       // Optional: bearer token
	HTTPClient *http.Client // Optional: defaults to a 5m-timeout client
	Logger     *slog.Logger // Optional: structured logger
}

// Gateway is the HTTP client for the model gateway service. It implements
// core.ModelCaller, core.ModelConfigProvider, core.TokenCounter, and
// core.ContextCompressor.
type Gateway struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	logger     *slog.Logger
}

var (
	_ core.ModelCaller         = (*Gateway)(nil)
	_ core.ModelConfigProvider = (*Gateway)(nil)
	_ core.TokenCounter        = (*Gateway)(nil)
	_ core.ContextCompressor   = (*Gateway)(nil)
)

// NewGateway constructs a Gateway.
func NewGateway(opts Options) (*Gateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway base URL %q", opts.BaseURL)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "model_gateway")
	}
	return &Gateway{baseURL: baseURL, serviceKey: opts.ServiceKey, client: client, logger: logger}, nil
}

type callRequest struct {
	ModelID  string `json:"model_id"`
	WalletID string `json:"wallet_id"`
	Prompt   string `json:"prompt"`
}

type callResponse struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Error        string `json:"error,omitempty"`
}

// Call invokes the unified model endpoint. The caller's JWT rides along so
// the gateway can debit the right wallet.
func (g *Gateway) Call(ctx context.Context, req core.ModelCallRequest) (*core.ModelCallResponse, error) {
	var out callResponse
	err := g.post(ctx, "/model/call", req.UserJWT, callRequest{
		ModelID:  req.ModelID,
		WalletID: req.WalletID,
		Prompt:   req.Prompt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &core.ModelCallResponse{
		Content:      out.Content,
		FinishReason: model.ParseFinishReason(out.FinishReason),
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Error:        out.Error,
	}, nil
}

type modelConfigResponse struct {
	ModelID             string `json:"model_id"`
	APIIdentifier       string `json:"api_identifier"`
	ModelSlug           string `json:"model_slug"`
	ProviderName        string `json:"provider_name"`
	ContextWindowTokens int    `json:"context_window_tokens"`
	MaxOutputTokens     int    `json:"max_output_tokens"`
}

// GetModelConfig loads the provider configuration for a model.
func (g *Gateway) GetModelConfig(ctx context.Context, modelID string) (*core.ModelConfig, error) {
	var out modelConfigResponse
	if err := g.post(ctx, "/model/config", "", map[string]string{"model_id": modelID}, &out); err != nil {
		return nil, err
	}
	if out.ModelID == "" {
		return nil, apperrors.NotFoundf("model %s has no configuration", modelID)
	}
	return &core.ModelConfig{
		ModelID:             out.ModelID,
		APIIdentifier:       out.APIIdentifier,
		ModelSlug:           out.ModelSlug,
		ProviderName:        out.ProviderName,
		ContextWindowTokens: out.ContextWindowTokens,
		MaxOutputTokens:     out.MaxOutputTokens,
	}, nil
}

// CountTokens counts prompt tokens with the model's own tokenizer.
func (g *Gateway) CountTokens(ctx context.Context, modelID, text string) (int, error) {
	var out struct {
		Tokens int `json:"tokens"`
	}
	err := g.post(ctx, "/model/count-tokens", "", map[string]string{
		"model_id": modelID,
		"text":     text,
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.Tokens, nil
}

// Compress asks the gateway to reduce oversized prompt content toward the
// token limit. The gateway may return the input unchanged.
func (g *Gateway) Compress(ctx context.Context, modelID, content string, limitTokens int) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	err := g.post(ctx, "/model/compress", "", map[string]any{
		"model_id":     modelID,
		"content":      content,
		"limit_tokens": limitTokens,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Content == "" {
		return content, nil
	}
	return out.Content, nil
}

func (g *Gateway) post(ctx context.Context, path, userJWT string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "marshal %s request", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "build %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case userJWT != "":
		req.Header.Set("Authorization", "Bearer "+userJWT)
	case g.serviceKey != "":
		req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "call gateway %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "read gateway %s response", path)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Internal(fmt.Sprintf("gateway %s: status %d: %s", path, resp.StatusCode, truncate(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode gateway %s response", path)
	}
	return nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
