package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/utils"
)

// DefaultGraphBaseURL is the Cloud API endpoint prefix; the phone
// number id is appended per deployment.
const DefaultGraphBaseURL = "https://graph.facebook.com/v17.0"

// Sender delivers one outbound payload. Delivery is best-effort: the
// upstream channel may still drop or duplicate messages after a
// successful call.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// Client sends messages through the Cloud API messages endpoint.
type Client struct {
	httpc *http.Client
	url   string
	token string
	log   logger.Logger
}

// NewClient builds a Cloud API client. timeout bounds each send so a
// hung provider call can never stall a webhook request or a dispatcher
// cycle indefinitely.
func NewClient(baseURL, phoneID, token string, timeout time.Duration, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	return &Client{
		httpc: &http.Client{Timeout: timeout},
		url:   strings.TrimRight(baseURL, "/") + "/" + phoneID + "/messages",
		token: token,
		log:   log,
	}
}

// Send posts the payload. A non-2xx answer is an error carrying the
// status and a truncated response body for the logs.
func (c *Client) Send(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send rejected with status %d: %s", resp.StatusCode, string(body))
	}

	c.log.Debug("message sent",
		logger.String("to", p.To),
		logger.String("type", p.Type))
	return nil
}
