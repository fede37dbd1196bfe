package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/s0up4200/seerr-bot/internal/httpkit"
)

// DefaultAPIBase is the Discord REST endpoint, version pinned to match
// the gateway.
const DefaultAPIBase = "https://discord.com/api/v10"

// RestClient sends messages and typing indicators through the Discord
// REST API.
type RestClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewRestClient creates a Discord REST client.
func NewRestClient(token string) *RestClient {
	return &RestClient{
		token:   token,
		baseURL: DefaultAPIBase,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(30 * time.Second),
		),
	}
}

// SetBaseURL overrides the API base, for tests.
func (c *RestClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// CreateMessage posts a message to a channel. content may be empty when
// embeds carry the payload.
func (c *RestClient) CreateMessage(ctx context.Context, channelID, content string, embeds []Embed) error {
	body := map[string]any{}
	if content != "" {
		body["content"] = content
	}
	if len(embeds) > 0 {
		body["embeds"] = embeds
	}
	return c.post(ctx, fmt.Sprintf("/channels/%s/messages", channelID), body)
}

// TriggerTyping shows the typing indicator in a channel. It expires
// server-side after about ten seconds.
func (c *RestClient) TriggerTyping(ctx context.Context, channelID string) error {
	return c.post(ctx, fmt.Sprintf("/channels/%s/typing", channelID), nil)
}

func (c *RestClient) post(ctx context.Context, path string, body any) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request %s: %w", path, err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := httpkit.ReadErrorBody(resp.Body, 512)
		return fmt.Errorf("discord API error %d: %s", resp.StatusCode, errBody)
	}
	return nil
}
