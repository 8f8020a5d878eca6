package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/go-market-triggers/internal/domain"
)

type messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// Client delivers pushes through Firebase Cloud Messaging.
type Client struct {
	messaging messenger
	logger    *slog.Logger
}

// NewClient creates an FCM client. An empty credentialsFile uses the
// application default credentials.
func NewClient(ctx context.Context, credentialsFile string, logger *slog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}
	return newClient(mc, logger), nil
}

func newClient(m messenger, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{messaging: m, logger: logger}
}

// Send delivers msg to one device token.
func (c *Client) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	id, err := c.messaging.Send(ctx, buildMessage(token, msg))
	if err != nil {
		if messaging.IsUnregistered(err) {
			c.logger.Info("fcm token no longer registered", "type", msg.Data["type"])
		}
		return fmt.Errorf("send fcm message: %w", err)
	}
	c.logger.Debug("fcm message sent", "message_id", id)
	return nil
}

func buildMessage(token string, msg domain.PushMessage) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
