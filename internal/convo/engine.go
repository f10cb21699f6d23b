package convo

import (
	"context"
	"fmt"
	"log/slog"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/logging"
	"line-rate-bot/internal/metrics"
	"line-rate-bot/internal/router"
)

// Replier delivers reply messages addressed by a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages []chat.Message) error
}

// TextRouter picks the reply for a text message.
type TextRouter interface {
	Route(ctx context.Context, text string) (router.Result, error)
}

// Engine dispatches inbound events to the matching handler and sends the
// reply.
type Engine struct {
	router  TextRouter
	replier Replier
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a conversation engine.
func New(router TextRouter, replier Replier, metrics *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		router:  router,
		replier: replier,
		metrics: metrics,
		logger:  logger.With("component", "convo"),
	}
}

// HandleEvent builds the reply for evt and sends it.
func (e *Engine) HandleEvent(ctx context.Context, evt chat.Event) error {
	if e.metrics != nil {
		e.metrics.InboundEvents.WithLabelValues(evt.Kind()).Inc()
	}
	logger := e.logger.With("request_id", logging.RequestID(ctx), "type", evt.Kind())

	var (
		messages []chat.Message
		err      error
	)
	switch v := evt.(type) {
	case chat.TextEvent:
		messages, err = e.handleText(ctx, logger, v)
	case chat.StickerEvent:
		logger.Info("received sticker", "package_id", v.PackageID, "sticker_id", v.StickerID)
		messages = stickerReply(v)
	case chat.LocationEvent:
		logger.Info("received location", "latitude", v.Latitude, "longitude", v.Longitude)
		messages = locationReply(v)
	default:
		logger.Debug("no handler for event")
		return nil
	}
	if err != nil {
		e.countError("convo_" + evt.Kind())
		return fmt.Errorf("handle %s: %w", evt.Kind(), err)
	}

	if err := e.replier.Reply(ctx, evt.Token(), messages); err != nil {
		e.countError("reply")
		return fmt.Errorf("reply %s: %w", evt.Kind(), err)
	}
	return nil
}

func (e *Engine) handleText(ctx context.Context, logger *slog.Logger, evt chat.TextEvent) ([]chat.Message, error) {
	logger.Info("received text", "text", evt.Text)

	res, err := e.router.Route(ctx, evt.Text)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.Routes.WithLabelValues(res.Route).Inc()
	}
	logger.Info("text routed", "route", res.Route)
	return []chat.Message{res.Message}, nil
}

func (e *Engine) countError(component string) {
	if e.metrics != nil {
		e.metrics.Errors.WithLabelValues(component).Inc()
	}
}
