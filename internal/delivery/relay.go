// internal/delivery/relay.go
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/copperowls/website/internal/metrics"
	"go.uber.org/zap"
)

// RelayClient posts submissions as JSON to the inbox-relay endpoint.
// The call is single-shot: a failed relay surfaces to the user rather than
// being retried or queued.
type RelayClient struct {
	url    string
	token  string
	client *http.Client
	logger *zap.Logger
}

// NewRelayClient creates a relay client. token is optional; when set it is
// sent as a bearer token. timeout bounds the whole outbound call.
func NewRelayClient(url, token string, timeout time.Duration, logger *zap.Logger) *RelayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayClient{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Deliver implements Deliverer.
func (c *RelayClient) Deliver(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("relay: marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("relay: post: %w", err)
	}
	defer resp.Body.Close()

	metrics.RelayRequests.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for the log; relays tend to explain
		// rejections there.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("relay rejected submission",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return fmt.Errorf("relay: unexpected status %d", resp.StatusCode)
	}

	return nil
}

// Ping reports whether the relay endpoint is reachable; used as a health
// check. Any HTTP response counts as reachable, since a relay may well
// reject a HEAD while still accepting submissions. Only transport failures
// are errors.
func (c *RelayClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay: unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "error"
	}
}
