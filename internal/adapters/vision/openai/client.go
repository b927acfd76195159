package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"med-adherence/internal/platform/httpclient"
)

var (
	ErrVisionNotConfigured = errors.New("vision client not configured")
	ErrVisionUpstream      = errors.New("vision upstream error")
)

// Config del cliente de visión.
// BaseURL y APIKey normalmente vendrán de env vars en el servicio que lo instancie.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: modelo a usar. Vacío = default del proveedor.
	Model string

	// Timeout HTTP. Las llamadas de visión son lentas; el default es generoso.
	Timeout time.Duration
}

type Client struct {
	apiKey string
	model  string
	http   *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
		http:   hc,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// analyze manda un prompt + referencia de imagen y decodifica la respuesta
// JSON del modelo en out. El contrato le exige al modelo responder solo JSON.
func (c *Client) analyze(ctx context.Context, prompt, photoRef string, out any) error {
	if !c.IsConfigured() {
		return ErrVisionNotConfigured
	}

	const analyzePath = "/v1/chat/completions"

	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": photoRef}},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, analyzePath, headers, reqBody, &envelope); err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return fmt.Errorf("%w: status=%d", ErrVisionUpstream, httpErr.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrVisionUpstream, err)
	}

	if len(envelope.Choices) == 0 {
		return fmt.Errorf("%w: empty response", ErrVisionUpstream)
	}

	content := strings.TrimSpace(envelope.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: model returned non-json content: %v", ErrVisionUpstream, err)
	}
	return nil
}
