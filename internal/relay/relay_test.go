package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"practice-quiz-service/internal/domain"
)

func intp(i int) *int { return &i }

func TestBuildRows(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	details := []domain.AttemptDetail{
		{ID: "q1", Options: []string{"a", "b"}, UserIndex: intp(1), CorrectIndex: intp(0)},
		{ID: "q2", Options: []string{"a", "b"}, CorrectIndex: intp(1), IsUnattempted: true},
		{ID: "q3", Options: []string{"a"}},
	}

	rows := BuildRows(details, at)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].UserAnswer != 1 || rows[0].UserAnswerText != "b" || rows[0].CorrectAnswerText != "a" {
		t.Fatalf("unexpected attempted row: %+v", rows[0])
	}
	if rows[1].UserAnswer != -1 || rows[1].UserAnswerText != "" {
		t.Fatalf("unattempted row should carry -1, got %+v", rows[1])
	}
	if rows[2].CorrectAnswer != nil || rows[2].CorrectAnswerText != "" {
		t.Fatalf("row without answer key should keep nil, got %+v", rows[2])
	}
	for _, row := range rows {
		if !row.Timestamp.Equal(at) {
			t.Fatalf("expected shared batch timestamp, got %v", row.Timestamp)
		}
	}
}

func TestWebhookSinkDelivers(t *testing.T) {
	var got []domain.ResultRow
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode rows: %v", err)
		}
		w.Write([]byte("stored"))
	}))
	defer upstream.Close()

	sink := NewWebhookSink(upstream.URL, upstream.Client())
	status := sink.Deliver(context.Background(), []domain.ResultRow{{QuestionID: "q1", UserAnswer: -1}})
	if !status.OK || status.Status != http.StatusOK || status.Body != "stored" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(got) != 1 || got[0].QuestionID != "q1" {
		t.Fatalf("upstream saw %+v", got)
	}
}

func TestWebhookSinkReportsFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer upstream.Close()

	sink := NewWebhookSink(upstream.URL, upstream.Client())
	status := sink.Deliver(context.Background(), nil)
	if status.OK || status.Status != http.StatusBadGateway {
		t.Fatalf("expected failed status, got %+v", status)
	}

	sink = NewWebhookSink("", nil)
	if status := sink.Deliver(context.Background(), nil); status.OK || status.Error == "" {
		t.Fatalf("expected configuration error, got %+v", status)
	}
}
