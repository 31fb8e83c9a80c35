// Package telegram is a minimal client for the Telegram Bot API, covering
// the single method this service needs (sendMessage) plus sequential
// fan-out to a recipient list.
//
// The client never logs by itself and never embeds the bot token in error
// text, so errors are safe to propagate into structured logs and operator
// replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public Telegram Bot API endpoint. Tests and
// self-hosted bot-api deployments override it.
const DefaultBaseURL = "https://api.telegram.org"

// Sender is the narrow outbound-messaging contract consumed by services.
// Implementations must be safe for concurrent use.
type Sender interface {
	// SendMessage delivers text to a single chat id.
	SendMessage(ctx context.Context, chatID, text string) error
}

// Client talks to the Telegram Bot API over plain HTTPS JSON.
type Client struct {
	// BaseURL is the API origin, without trailing slash.
	BaseURL string
	// Token is the bot token issued by BotFather.
	Token string
	// HTTPClient is the transport used for calls; a 10s-timeout client is
	// used when nil.
	HTTPClient *http.Client
}

// NewClient constructs a Client for the given token. An empty baseURL
// selects the public API.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// sendMessageRequest is the JSON body of the sendMessage call. Link
// previews are disabled: dispatch messages quote video URLs and a preview
// card per message is noise in the operators channel.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the envelope Telegram wraps every method result in.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts text to chatID. A non-2xx status or an ok=false
// envelope is returned as an error carrying Telegram's description when
// available.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		// Transport errors embed the full request URL, token included;
		// surface only the underlying cause.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram sendMessage: status %d, unreadable body", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = "Telegram API error"
		}
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, desc)
	}
	return nil
}

// Broadcast sends text to each recipient in order. A failure aborts the
// remaining sends and surfaces the failing recipient; there is no
// partial-success swallow and no background retry.
func Broadcast(ctx context.Context, s Sender, recipients []string, text string) error {
	for _, chatID := range recipients {
		if err := s.SendMessage(ctx, chatID, text); err != nil {
			return fmt.Errorf("broadcast to %s: %w", chatID, err)
		}
	}
	return nil
}
