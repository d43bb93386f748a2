package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// Relay handlers forward client requests to third-party endpoints so the
// browser never sees the destination URL or credential. They are stateless
// pass-throughs: the upstream status and body come back verbatim.

func corsHeaders(w http.ResponseWriter, allowAuth bool) {
	headers := "Content-Type"
	if allowAuth {
		headers = "Content-Type, Authorization"
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", headers)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SheetsRelay forwards a JSON array of result rows to the spreadsheet
// webhook.
type SheetsRelay struct {
	endpoint string
	client   *http.Client
}

func NewSheetsRelay(endpoint string, client *http.Client) *SheetsRelay {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetsRelay{endpoint: endpoint, client: client}
}

func (h *SheetsRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, false)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	case http.MethodPost:
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.endpoint == "" {
		writeJSONError(w, http.StatusInternalServerError, "sheets endpoint not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(body) == 0 {
		body = []byte("[]")
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("sheets relay: upstream call failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()
	forwardResponse(w, resp)
}

// ExplainRelay forwards {prompt} to the generative-text endpoint with the
// server-held credential.
type ExplainRelay struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewExplainRelay(endpoint, apiKey string, client *http.Client) *ExplainRelay {
	if client == nil {
		client = http.DefaultClient
	}
	return &ExplainRelay{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (h *ExplainRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, true)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	case http.MethodPost:
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Prompt string `json:"prompt"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prompt := body.Prompt
	if prompt == "" {
		prompt = body.Text
	}
	if prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "missing prompt in request body")
		return
	}

	if h.apiKey == "" {
		writeJSONError(w, http.StatusInternalServerError, "explain api key not configured on the server")
		return
	}
	if h.endpoint == "" {
		writeJSONError(w, http.StatusInternalServerError, "explain endpoint not configured")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"prompt":          map[string]string{"text": prompt},
		"temperature":     0.2,
		"maxOutputTokens": 512,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("explain relay: upstream call failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()
	forwardResponse(w, resp)
}

// forwardResponse copies the upstream reply verbatim, collapsing all 2xx
// codes to 200.
func forwardResponse(w http.ResponseWriter, resp *http.Response) {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		status = http.StatusOK
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(status)
	_, _ = io.Copy(w, resp.Body)
}
