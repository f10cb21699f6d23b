// Package line adapts the LINE Messaging API to the chat domain: it verifies
// inbound callbacks and sends replies.
package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/metrics"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// MaxReplyMessages is the platform limit for one reply call.
const MaxReplyMessages = 5

var (
	// ErrTooManyMessages is returned when a reply exceeds MaxReplyMessages.
	ErrTooManyMessages = errors.New("too many reply messages")
	// ErrNoMessages is returned for an empty reply.
	ErrNoMessages = errors.New("no reply messages")
)

// Config holds Messaging API settings.
type Config struct {
	AccessToken string
	Endpoint    string
	HTTPClient  *http.Client
}

// Client sends reply messages.
type Client struct {
	api    *messaging_api.MessagingApiAPI
	logger *slog.Logger
	metric *metrics.Metrics
}

// New constructs a Messaging API client.
func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics) (*Client, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if cfg.HTTPClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(cfg.Endpoint))
	}

	api, err := messaging_api.NewMessagingApiAPI(cfg.AccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("init messaging api: %w", err)
	}

	return &Client{
		api:    api,
		logger: logger.With("component", "line_client"),
		metric: metrics,
	}, nil
}

// Reply sends messages in order using a one-shot reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []chat.Message) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}
	if len(messages) > MaxReplyMessages {
		return fmt.Errorf("%w: %d > %d", ErrTooManyMessages, len(messages), MaxReplyMessages)
	}

	out := make([]messaging_api.MessageInterface, 0, len(messages))
	for _, msg := range messages {
		converted, err := toSDKMessage(msg)
		if err != nil {
			return err
		}
		out = append(out, converted)
	}

	// WithContext stores ctx on the receiver, so each call works on its own copy.
	api := *c.api
	_, err := api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   out,
	})
	if err != nil {
		c.count("error")
		if c.metric != nil {
			c.metric.Errors.WithLabelValues("line_reply").Inc()
		}
		return fmt.Errorf("reply message: %w", err)
	}

	c.count("ok")
	if c.metric != nil {
		for _, msg := range messages {
			c.metric.ReplyMessages.WithLabelValues(msg.Type()).Inc()
		}
	}
	c.logger.Debug("reply sent", "messages", len(out))
	return nil
}

func (c *Client) count(status string) {
	if c.metric != nil {
		c.metric.ReplyRequests.WithLabelValues(status).Inc()
	}
}

func toSDKMessage(msg chat.Message) (messaging_api.MessageInterface, error) {
	switch m := msg.(type) {
	case chat.Text:
		return &messaging_api.TextMessage{Text: m.Text}, nil
	case chat.Sticker:
		return &messaging_api.StickerMessage{PackageId: m.PackageID, StickerId: m.StickerID}, nil
	case chat.Location:
		return &messaging_api.LocationMessage{
			Title:     m.Title,
			Address:   m.Address,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
}
