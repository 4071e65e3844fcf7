package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cleanbid/backend/internal/pkg/httpretry"
)

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromiumRenderer posts HTML to a headless-browser rendering service and
// returns the produced PDF. Transient failures are retried with backoff.
type ChromiumRenderer struct {
	client  httpretry.HTTPDoer
	baseURL string
}

// NewChromiumRenderer creates a renderer against the given service URL.
func NewChromiumRenderer(baseURL string, timeoutSeconds int) *ChromiumRenderer {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	base := &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	return &ChromiumRenderer{
		client:  httpretry.NewRetryClient(base, 3),
		baseURL: baseURL,
	}
}

func (r *ChromiumRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewBufferString(html))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("renderer returned %d: %s", resp.StatusCode, body)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rendered pdf: %w", err)
	}
	return pdf, nil
}
