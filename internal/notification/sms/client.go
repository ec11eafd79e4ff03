package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Config holds Twilio credentials and the sending number
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Client sends text messages through Twilio
type Client struct {
	rest *twilio.RestClient
	from string
}

// NewClient creates a new Twilio SMS client
func NewClient(config Config) *Client {
	return &Client{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: config.AccountSID,
			Password: config.AuthToken,
		}),
		from: config.From,
	}
}

// Send sends body to the given E.164 number and returns the message SID
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
