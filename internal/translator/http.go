package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AgentClient calls the translation agent over HTTP. The agent endpoint
// accepts a Request as JSON and answers {"translated_text": "..."}.
type AgentClient struct {
	url    string
	client *http.Client
}

// NewAgentClient creates a client for the given agent endpoint. The per-call
// deadline comes from the caller's context, so the underlying http.Client has
// no timeout of its own.
func NewAgentClient(url string) *AgentClient {
	return &AgentClient{
		url:    url,
		client: &http.Client{},
	}
}

type agentResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate sends one chunk to the agent and returns the translated text.
func (c *AgentClient) Translate(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", ErrInvalidChunk
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrInvalidChunk, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %s", ErrRateLimited, resp.Status)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %s", ErrNetwork, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %s", ErrInvalidResponse, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	var out agentResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: decode body: %v", ErrInvalidResponse, err)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("%w: empty translated_text", ErrInvalidResponse)
	}

	return out.TranslatedText, nil
}
