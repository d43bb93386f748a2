package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"practice-quiz-service/internal/domain"
)

// WebhookSink POSTs result rows as a JSON array to a spreadsheet webhook.
type WebhookSink struct {
	endpoint string
	client   *http.Client
}

func NewWebhookSink(endpoint string, client *http.Client) *WebhookSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{endpoint: endpoint, client: client}
}

// Deliver makes exactly one delivery attempt and reports its outcome. Errors
// are captured in the status, never returned: the caller's submission must not
// depend on delivery.
func (s *WebhookSink) Deliver(ctx context.Context, rows []domain.ResultRow) domain.DeliveryStatus {
	if s.endpoint == "" {
		return domain.DeliveryStatus{Error: "sheets endpoint not configured"}
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return domain.DeliveryStatus{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.DeliveryStatus{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.DeliveryStatus{Error: err.Error()}
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(resp.Body)
	return domain.DeliveryStatus{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Body:   string(text),
	}
}
