package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
)

// Table is the remote table submissions are inserted into.
const Table = "contact_messages"

// HTTPSink inserts submissions into a hosted PostgREST-style table:
// POST {endpoint}/rest/v1/contact_messages with the project's API key.
type HTTPSink struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSink creates a sink for the given endpoint. A nil client gets one
// with the supplied timeout.
func NewHTTPSink(endpoint, apiKey string, timeout time.Duration, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPSink{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
	}
}

type remoteRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Insert implements Sink.
func (s *HTTPSink) Insert(ctx context.Context, m Message) (Receipt, error) {
	row := remoteRow{
		ID:        uuid.NewString(),
		Name:      m.Name,
		Email:     m.Email,
		Message:   m.Message,
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal([]remoteRow{row})
	if err != nil {
		return Receipt{}, fmt.Errorf("contact: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/rest/v1/"+Table, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("contact: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", apperr.ErrSubmission, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("%w: remote status %d", apperr.ErrSubmission, resp.StatusCode)
	}
	return Receipt{ID: row.ID, CreatedAt: row.CreatedAt}, nil
}
