package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dnldd/radar/shared"
	"github.com/tidwall/gjson"
)

const (
	barkBaseURL = "https://api.day.app"
	// maxRetries is the maximum number of delivery attempts per notification.
	maxRetries = 3
	// retryBackoff is the base delay between delivery attempts.
	retryBackoff = time.Second * 2
)

// BarkConfig represents the configuration for the bark push client.
type BarkConfig struct {
	// Key is the bark device key.
	Key string
	// BaseURL overrides the bark server url, used for tests.
	BaseURL string
}

// BarkClient represents the bark push notification client.
type BarkClient struct {
	cfg   *BarkConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the BarkClient implements the AlertSink interface.
var _ shared.AlertSink = (*BarkClient)(nil)

// NewBarkClient instantiates a new bark push client.
func NewBarkClient(cfg *BarkConfig) *BarkClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = barkBaseURL
	}

	return &BarkClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates the push url for the provided notification.
func (c *BarkClient) formURL(title string, message string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString("/")
	c.buf.WriteString(c.cfg.Key)
	c.buf.WriteString("/")
	c.buf.WriteString(url.PathEscape(title))
	c.buf.WriteString("/")
	c.buf.WriteString(url.PathEscape(message))
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// push delivers the provided notification once.
func (c *BarkClient) push(ctx context.Context, formedURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return fmt.Errorf("creating push request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("pushing notification: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push request failed (%d): %s", resp.StatusCode,
			gjson.GetBytes(body, "message").String())
	}

	code := gjson.GetBytes(body, "code").Int()
	if code != http.StatusOK {
		return fmt.Errorf("push rejected (%d): %s", code,
			gjson.GetBytes(body, "message").String())
	}

	return nil
}

// Send delivers the provided notification message, retrying transient
// failures with a fixed backoff.
func (c *BarkClient) Send(ctx context.Context, title string, message string) error {
	formedURL := c.formURL(title, message)

	var errs error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(errs, ctx.Err())
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		err := c.push(ctx, formedURL)
		if err == nil {
			return nil
		}

		errs = errors.Join(errs, err)
	}

	return fmt.Errorf("delivering notification after %d attempts: %w", maxRetries, errs)
}
