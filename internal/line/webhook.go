package line

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/logging"
	"line-rate-bot/internal/metrics"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// EventProcessor handles a single verified inbound event.
type EventProcessor interface {
	HandleEvent(ctx context.Context, evt chat.Event) error
}

// WebhookHandler verifies LINE callback signatures and forwards message events.
type WebhookHandler struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	channelSecret string
	processor     EventProcessor
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(logger *slog.Logger, metrics *metrics.Metrics, channelSecret string, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		logger:        logger.With("component", "line_webhook"),
		metrics:       metrics,
		channelSecret: channelSecret,
		processor:     processor,
	}
}

// ServeHTTP satisfies http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	ctx := logging.WithRequestID(r.Context(), requestID)
	logger := h.logger.With("request_id", requestID)

	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			logger.Warn("rejected callback with invalid signature")
			h.countRequest("invalid_signature")
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		logger.Warn("failed parsing callback", "error", err)
		h.countRequest("bad_request")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	logger.Info("callback received", "destination", cb.Destination, "events", len(cb.Events))

	for _, raw := range cb.Events {
		evt, ok := toEvent(raw)
		if !ok {
			logger.Debug("ignoring event", "event_type", raw.GetType())
			if h.metrics != nil {
				h.metrics.InboundEvents.WithLabelValues("ignored").Inc()
			}
			continue
		}
		if h.processor == nil {
			continue
		}
		if err := h.processor.HandleEvent(ctx, evt); err != nil {
			logger.Error("failed processing event", "error", err, "type", evt.Kind())
			h.countRequest("error")
			http.Error(w, "failed to process", http.StatusInternalServerError)
			return
		}
	}

	h.countRequest("ok")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *WebhookHandler) countRequest(status string) {
	if h.metrics != nil {
		h.metrics.WebhookRequests.WithLabelValues(status).Inc()
	}
}

// toEvent converts SDK message events; everything else is reported as not ok.
func toEvent(raw webhook.EventInterface) (chat.Event, bool) {
	msgEvent, ok := raw.(webhook.MessageEvent)
	if !ok {
		return nil, false
	}

	switch m := msgEvent.Message.(type) {
	case webhook.TextMessageContent:
		return chat.TextEvent{ReplyToken: msgEvent.ReplyToken, Text: m.Text}, true
	case webhook.StickerMessageContent:
		return chat.StickerEvent{
			ReplyToken: msgEvent.ReplyToken,
			PackageID:  m.PackageId,
			StickerID:  m.StickerId,
			Keywords:   m.Keywords,
		}, true
	case webhook.LocationMessageContent:
		return chat.LocationEvent{
			ReplyToken: msgEvent.ReplyToken,
			Title:      m.Title,
			Address:    m.Address,
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
		}, true
	default:
		return nil, false
	}
}
