package apns

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ProductionURL  = "https://api.push.apple.com"
	DevelopmentURL = "https://api.sandbox.push.apple.com"

	// Apple rejects provider tokens older than an hour.
	tokenLifetime = 50 * time.Minute
)

// Notification is one alert push to one device
type Notification struct {
	DeviceToken string
	Title       string
	Body        string
	Sound       string
	CollapseID  string
	Category    string
	ThreadID    string
	// TimeSensitive lets the alert break through Focus modes.
	TimeSensitive bool
	// Expiration is when APNs stops retrying delivery; zero means one attempt.
	Expiration time.Time
	Data       map[string]interface{}
}

type alertBody struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

type aps struct {
	Alert             alertBody `json:"alert"`
	Sound             string    `json:"sound,omitempty"`
	Category          string    `json:"category,omitempty"`
	ThreadID          string    `json:"thread-id,omitempty"`
	InterruptionLevel string    `json:"interruption-level,omitempty"`
}

// Error is a rejected push. Reason is Apple's code, e.g. BadDeviceToken.
type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("apns: %d %s", e.Status, e.Reason)
}

// Unregistered reports that the device token will never work again.
func (e *Error) Unregistered() bool {
	return e.Status == http.StatusGone || e.Reason == "Unregistered" || e.Reason == "BadDeviceToken"
}

// Client sends alerts over the APNs HTTP/2 provider API
type Client struct {
	httpClient *http.Client
	keyID      string
	teamID     string
	bundleID   string
	privateKey *ecdsa.PrivateKey
	baseURL    string
	now        func() time.Time

	tokenMu     sync.Mutex
	token       string
	tokenIssued time.Time
}

type Config struct {
	KeyID        string
	TeamID       string
	PrivateKey   string
	BundleID     string
	IsProduction bool
	// BaseURL overrides the Apple endpoint chosen by IsProduction.
	BaseURL string
}

func NewClient(config Config) (*Client, error) {
	privateKey, err := parsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DevelopmentURL
		if config.IsProduction {
			baseURL = ProductionURL
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		keyID:      config.KeyID,
		teamID:     config.TeamID,
		bundleID:   config.BundleID,
		privateKey: privateKey,
		baseURL:    baseURL,
		now:        time.Now,
	}, nil
}

func (c *Client) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(buildPayload(n))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/3/device/"+n.DeviceToken, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.providerToken()
	if err != nil {
		return fmt.Errorf("failed to sign provider token: %w", err)
	}

	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apns-topic", c.bundleID)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")
	req.Header.Set("apns-expiration", expiration(n.Expiration))
	if n.CollapseID != "" {
		req.Header.Set("apns-collapse-id", n.CollapseID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var body struct {
		Reason string `json:"reason"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err := json.Unmarshal(raw, &body); err != nil || body.Reason == "" {
		body.Reason = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Reason: body.Reason}
}

func expiration(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

// buildPayload puts custom keys next to "aps", which they may not replace.
func buildPayload(n Notification) map[string]interface{} {
	a := aps{
		Alert:    alertBody{Title: n.Title, Body: n.Body},
		Sound:    n.Sound,
		Category: n.Category,
		ThreadID: n.ThreadID,
	}
	if n.TimeSensitive {
		a.InterruptionLevel = "time-sensitive"
	}

	payload := make(map[string]interface{}, len(n.Data)+1)
	for k, v := range n.Data {
		payload[k] = v
	}
	payload["aps"] = a
	return payload
}

func (c *Client) providerToken() (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := c.now()
	if c.token != "" && now.Sub(c.tokenIssued) < tokenLifetime {
		return c.token, nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": c.teamID,
		"iat": now.Unix(),
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", err
	}
	c.token = signed
	c.tokenIssued = now
	return signed, nil
}

func parsePrivateKey(pemString string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemString))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	ecdsaKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not an ECDSA private key")
	}
	return ecdsaKey, nil
}
