package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request describes one document to render. Data carries whatever the
// template needs (learner name, training dates, signature URL, ...).
type Request struct {
	Kind string                 `json:"kind"` // training_agreement|attendance_sheet|completion_certificate
	Data map[string]interface{} `json:"data"`
}

// Renderer turns a document request into PDF bytes. Rendering itself is a
// black box; the engine only needs the bytes.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

var ErrUnavailable = errors.New("pdf renderer unavailable")

// HTTPRenderer posts the request to an external render service and expects
// application/pdf back.
type HTTPRenderer struct {
	url    string
	client *http.Client
}

func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPRenderer{url: url, client: &http.Client{Timeout: timeout}}
}

func (r *HTTPRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if r.url == "" {
		return nil, ErrUnavailable
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
