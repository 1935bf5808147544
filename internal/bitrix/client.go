// Package bitrix implements a minimal Bitrix24 REST webhook client
// covering smart-process item creation.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/logger"
)

const addItemMethod = "crm.item.add.json"

// Client calls the Bitrix24 inbound webhook REST API.
// The webhook URL embeds the auth token, so it never appears in logs.
type Client struct {
	webhookURL   string
	entityTypeID int
	timeout      time.Duration
	httpClient   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds each API call. Zero keeps the default of 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient builds a webhook client for the given smart-process entity.
func NewClient(webhookURL string, entityTypeID int, opts ...Option) (*Client, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("bitrix: empty webhook URL")
	}
	if !strings.HasSuffix(webhookURL, "/") {
		webhookURL += "/"
	}
	if entityTypeID <= 0 {
		return nil, fmt.Errorf("bitrix: invalid entity type id %d", entityTypeID)
	}

	c := &Client{
		webhookURL:   webhookURL,
		entityTypeID: entityTypeID,
		timeout:      10 * time.Second,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type addItemRequest struct {
	EntityTypeID int               `json:"entityTypeId"`
	Fields       map[string]string `json:"fields"`
}

type addItemResponse struct {
	Result           json.RawMessage `json:"result"`
	ErrorCode        string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// AddItem creates one smart-process item and returns its ID.
// An otherwise valid response that carries no ID yields an empty ID
// without an error.
func (c *Client) AddItem(ctx context.Context, fields map[string]string) (string, error) {
	body, err := json.Marshal(addItemRequest{
		EntityTypeID: c.entityTypeID,
		Fields:       fields,
	})
	if err != nil {
		return "", fmt.Errorf("bitrix: marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+addItemMethod, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("bitrix: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error(ctx, "crm", "item.add.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Int("entity_type_id", c.entityTypeID),
		)
		return "", fmt.Errorf("bitrix: %s: %w", addItemMethod, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("bitrix: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		logger.Error(ctx, "crm", "item.add.fail",
			slog.Int("http_status", resp.StatusCode),
			slog.Int("entity_type_id", c.entityTypeID),
			slog.String("body", logger.SanitizeLimit(string(raw), 200)),
		)
		return "", fmt.Errorf("bitrix: %s: unexpected status %d", addItemMethod, resp.StatusCode)
	}

	var parsed addItemResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("bitrix: decode response: %w", err)
	}
	if parsed.ErrorCode != "" || parsed.ErrorDescription != "" {
		return "", fmt.Errorf("bitrix: api error %s: %s", parsed.ErrorCode, parsed.ErrorDescription)
	}

	itemID := extractItemID(parsed.Result)
	if itemID == "" {
		logger.Debug(ctx, "crm", "item.add.no_id",
			slog.String("result", logger.SanitizeLimit(string(parsed.Result), 200)),
		)
	}
	logger.Info(ctx, "crm", "item.add.ok",
		slog.Int("entity_type_id", c.entityTypeID),
		slog.String("item_id", itemID),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return itemID, nil
}

// extractItemID pulls the created item ID out of the result payload.
// The documented shape is {"item": {"id": N}}; some portal versions
// return the bare ID as the result value instead.
func extractItemID(result json.RawMessage) string {
	if len(result) == 0 {
		return ""
	}

	var nested struct {
		Item struct {
			ID json.RawMessage `json:"id"`
		} `json:"item"`
	}
	if err := json.Unmarshal(result, &nested); err == nil {
		if id := scalarToString(nested.Item.ID); id != "" {
			return id
		}
	}

	return scalarToString(result)
}

// scalarToString renders a JSON number or string as its ID text.
func scalarToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	return ""
}
