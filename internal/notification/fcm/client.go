package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultEndpoint = "https://fcm.googleapis.com"

	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	channelID      = "reminders"
)

// Push is one notification to one registration token
type Push struct {
	Token string
	// Tag replaces an earlier notification with the same tag on the device.
	Tag   string
	Title string
	Body  string
	Sound bool
	Data  map[string]string
	// TTL bounds how long FCM keeps trying an offline device.
	TTL time.Duration
}

type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      androidConfig     `json:"android"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

type androidConfig struct {
	Priority     string              `json:"priority"`
	TTL          string              `json:"ttl,omitempty"`
	CollapseKey  string              `json:"collapse_key,omitempty"`
	Notification androidNotification `json:"notification"`
}

type androidNotification struct {
	ChannelID string `json:"channel_id"`
	Tag       string `json:"tag,omitempty"`
	Sound     string `json:"sound,omitempty"`
}

// Error is a rejected send. Status is the FCM error status, e.g. UNREGISTERED.
type Error struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fcm: %d %s: %s", e.HTTPStatus, e.Status, e.Message)
}

func (e *Error) Unregistered() bool {
	return e.Status == "UNREGISTERED" || e.HTTPStatus == http.StatusNotFound
}

// Client sends through the FCM HTTP v1 API
type Client struct {
	httpClient *http.Client
	endpoint   string
	projectID  string
	tokens     oauth2.TokenSource
}

type Config struct {
	ProjectID       string
	CredentialsJSON string
	// TokenSource replaces CredentialsJSON when set.
	TokenSource oauth2.TokenSource
	Endpoint    string
}

// NewClient parses the service account up front so bad credentials fail at
// startup rather than on the first alert.
func NewClient(config Config) (*Client, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	tokens := config.TokenSource
	if tokens == nil {
		creds, err := google.CredentialsFromJSON(context.Background(), []byte(config.CredentialsJSON), messagingScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		tokens = creds.TokenSource
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:  endpoint,
		projectID: config.ProjectID,
		tokens:    oauth2.ReuseTokenSource(nil, tokens),
	}, nil
}

func (c *Client) Send(ctx context.Context, p Push) error {
	payload, err := json.Marshal(map[string]message{"message": buildMessage(p)})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.endpoint, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	return &Error{HTTPStatus: resp.StatusCode, Status: body.Error.Status, Message: body.Error.Message}
}

func buildMessage(p Push) message {
	m := message{
		Token:        p.Token,
		Notification: notification{Title: p.Title, Body: p.Body},
		Data:         p.Data,
		Android: androidConfig{
			Priority:    "high",
			CollapseKey: p.Tag,
			Notification: androidNotification{
				ChannelID: channelID,
				Tag:       p.Tag,
			},
		},
	}
	if p.Sound {
		m.Android.Notification.Sound = "default"
	}
	if p.TTL > 0 {
		m.Android.TTL = strconv.FormatInt(int64(p.TTL/time.Second), 10) + "s"
	}
	return m
}
