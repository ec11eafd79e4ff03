package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/notification/apns"
	"github.com/user/remind-me/personal/internal/notification/fcm"
	"github.com/user/remind-me/personal/internal/notification/slack"
	"github.com/user/remind-me/personal/internal/notification/sms"
)

const (
	DesktopChannelName = "desktop"
	SlackChannelName   = "slack"
	APNsChannelName    = "apns"
	FCMChannelName     = "fcm"
	SMSChannelName     = "sms"

	// pushTTL is how long a push service keeps retrying an offline device.
	pushTTL = time.Hour
)

// desktopChannel pushes alerts to the browser and desktop clients connected
// over the websocket. The client renders the notification and plays the tone.
type desktopChannel struct {
	publisher Publisher
}

func NewDesktopChannel(publisher Publisher) Channel {
	return &desktopChannel{publisher: publisher}
}

func (c *desktopChannel) Name() string { return DesktopChannelName }

// Available is false while the publisher reports no connected clients.
func (c *desktopChannel) Available() bool {
	if counter, ok := c.publisher.(interface{ Subscribers() int }); ok {
		return counter.Subscribers() > 0
	}
	return true
}

func (c *desktopChannel) Deliver(_ context.Context, alert Alert) error {
	event := Event{
		Type:       EventAlert,
		ReminderID: alert.Tag,
		Alert:      &alert,
	}
	if alert.Sound {
		event.ToneURL = ToneURL
	}
	c.publisher.Publish(event)
	return nil
}

type slackChannel struct {
	client *slack.Client
}

func NewSlackChannel(client *slack.Client) Channel {
	if client == nil {
		return nil
	}
	return &slackChannel{client: client}
}

func (c *slackChannel) Name() string { return SlackChannelName }

func (c *slackChannel) Deliver(ctx context.Context, alert Alert) error {
	due := alert.DueAt.Format("Mon Jan 2, 15:04")
	blocks := []slack.Block{slack.Header(alert.Title)}
	if body := strings.TrimSpace(alert.Body); body != "" {
		blocks = append(blocks, slack.Section(body))
	}
	blocks = append(blocks, slack.Context(fmt.Sprintf("Due %s · %s priority", due, alert.Priority)))
	if alert.MeetingLink != nil && *alert.MeetingLink != "" {
		blocks = append(blocks, slack.LinkButton("Join meeting", *alert.MeetingLink))
	}

	return c.client.Post(ctx, slack.Message{
		Text:   fmt.Sprintf(":bell: %s (due %s)", alert.Title, due),
		Blocks: blocks,
	})
}

type apnsChannel struct {
	client      *apns.Client
	deviceToken string
}

func NewAPNsChannel(client *apns.Client, deviceToken string) Channel {
	if client == nil || deviceToken == "" {
		return nil
	}
	return &apnsChannel{client: client, deviceToken: deviceToken}
}

func (c *apnsChannel) Name() string { return APNsChannelName }

func (c *apnsChannel) Deliver(ctx context.Context, alert Alert) error {
	sound := ""
	if alert.Sound {
		sound = "default"
	}
	return c.client.Send(ctx, apns.Notification{
		DeviceToken:   c.deviceToken,
		Title:         alert.Title,
		Body:          alert.Body,
		Sound:         sound,
		CollapseID:    alert.Tag.String(),
		Category:      "REMINDER",
		ThreadID:      string(alert.Type),
		TimeSensitive: alert.Priority == models.PriorityHigh,
		Expiration:    alert.DueAt.Add(pushTTL),
		Data: map[string]interface{}{
			"reminder_id": alert.Tag.String(),
			"type":        string(alert.Type),
			"due_at":      alert.DueAt.Format(time.RFC3339),
		},
	})
}

type fcmChannel struct {
	client      *fcm.Client
	deviceToken string
}

func NewFCMChannel(client *fcm.Client, deviceToken string) Channel {
	if client == nil || deviceToken == "" {
		return nil
	}
	return &fcmChannel{client: client, deviceToken: deviceToken}
}

func (c *fcmChannel) Name() string { return FCMChannelName }

func (c *fcmChannel) Deliver(ctx context.Context, alert Alert) error {
	return c.client.Send(ctx, fcm.Push{
		Token: c.deviceToken,
		Tag:   alert.Tag.String(),
		Title: alert.Title,
		Body:  alert.Body,
		Sound: alert.Sound,
		Data: map[string]string{
			"reminder_id": alert.Tag.String(),
			"type":        string(alert.Type),
			"due_at":      alert.DueAt.Format(time.RFC3339),
		},
		TTL: pushTTL,
	})
}

type smsChannel struct {
	client *sms.Client
	to     string
}

func NewSMSChannel(client *sms.Client, to string) Channel {
	if client == nil || to == "" {
		return nil
	}
	return &smsChannel{client: client, to: to}
}

func (c *smsChannel) Name() string { return SMSChannelName }

func (c *smsChannel) Deliver(ctx context.Context, alert Alert) error {
	body := alert.Title
	if desc := strings.TrimSpace(strings.SplitN(alert.Body, "\n", 2)[0]); desc != "" {
		body += " - " + desc
	}
	_, err := c.client.Send(ctx, c.to, body)
	return err
}
