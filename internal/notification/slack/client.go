package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is an incoming-webhook payload. Text is the fallback shown in
// notifications when Blocks are present.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is a Block Kit layout block.
type Block struct {
	Type     string        `json:"type"`
	Text     *Text         `json:"text,omitempty"`
	Elements []interface{} `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type button struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
	URL  string `json:"url"`
}

func Header(text string) Block {
	return Block{Type: "header", Text: &Text{Type: "plain_text", Text: text}}
}

func Section(markdown string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: markdown}}
}

func Context(markdown string) Block {
	return Block{Type: "context", Elements: []interface{}{Text{Type: "mrkdwn", Text: markdown}}}
}

// LinkButton renders a single button that opens url.
func LinkButton(label, url string) Block {
	return Block{Type: "actions", Elements: []interface{}{
		button{Type: "button", Text: Text{Type: "plain_text", Text: label}, URL: url},
	}}
}

// Client posts to one Slack incoming webhook
type Client struct {
	httpClient *http.Client
	webhookURL string
}

func NewClient(webhookURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		webhookURL: webhookURL,
	}
}

// Send posts a plain text message
func (c *Client) Send(ctx context.Context, text string) error {
	return c.Post(ctx, Message{Text: text})
}

// Post posts a message. Slack answers a bad payload with a 4xx and a short
// plain-text reason, which is included in the error.
func (c *Client) Post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("slack webhook error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(reason)))
	}
	return nil
}
