// Package explain asks a generative-text endpoint to walk through a question.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"practice-quiz-service/internal/domain"
)

// Prompt renders the explanation request for one question.
func Prompt(q domain.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain the following multiple choice question step-by-step:\n\n%s\n\nOptions:\n", q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Client calls the generative-text endpoint directly with a held credential.
// Deployments that must hide the credential route through the relay handler
// instead; the request and response contract is the same.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewClient(endpoint, apiKey string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, client: client}
}

type generateRequest struct {
	Prompt          promptBody `json:"prompt"`
	Temperature     float64    `json:"temperature"`
	MaxOutputTokens int        `json:"maxOutputTokens"`
}

type promptBody struct {
	Text string `json:"text"`
}

// Explain sends the prompt and extracts explanation text from whichever
// response shape the endpoint speaks.
func (c *Client) Explain(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("explain endpoint not configured")
	}

	body, err := json.Marshal(generateRequest{
		Prompt:          promptBody{Text: prompt},
		Temperature:     0.2,
		MaxOutputTokens: 512,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("explain endpoint: %d %s", resp.StatusCode, string(text))
	}
	return ExtractText(text), nil
}

// ExtractText pulls explanation content out of the known response shapes:
// Gemini-style candidates, OpenAI-style choices, or the raw payload when
// neither matches.
func ExtractText(payload []byte) string {
	var parsed struct {
		Candidates []struct {
			Content string `json:"content"`
		} `json:"candidates"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil {
		if len(parsed.Candidates) > 0 && parsed.Candidates[0].Content != "" {
			return parsed.Candidates[0].Content
		}
		if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
			return parsed.Choices[0].Message.Content
		}
	}
	return string(payload)
}
