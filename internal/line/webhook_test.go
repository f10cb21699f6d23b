package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/logging"
	"line-rate-bot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "channel-secret"

type recordingProcessor struct {
	events     []chat.Event
	requestIDs []string
	err        error
}

func (p *recordingProcessor) HandleEvent(ctx context.Context, evt chat.Event) error {
	p.events = append(p.events, evt)
	p.requestIDs = append(p.requestIDs, logging.RequestID(ctx))
	return p.err
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func callback(events ...string) string {
	return `{"destination":"U0000","events":[` + strings.Join(events, ",") + `]}`
}

func messageEvent(token, message string) string {
	return `{"type":"message","mode":"active","timestamp":1700000000000,` +
		`"source":{"type":"user","userId":"U1234"},"webhookEventId":"01H","deliveryContext":{"isRedelivery":false},` +
		`"replyToken":"` + token + `","message":` + message + `}`
}

func newTestHandler(p EventProcessor) (*WebhookHandler, *metrics.Metrics) {
	m := metrics.New("test", prometheus.NewRegistry())
	return NewWebhookHandler(logging.Discard(), m, testSecret, p), m
}

func post(h http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Line-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	p := &recordingProcessor{}
	h, m := newTestHandler(p)
	body := callback(messageEvent("tok", `{"id":"1","type":"text","text":"USD"}`))

	rec := post(h, body, sign("wrong-secret", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, p.events)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.WebhookRequests.WithLabelValues("invalid_signature")))
}

func TestWebhookRejectsNonPost(t *testing.T) {
	h, _ := newTestHandler(&recordingProcessor{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookDispatchesMessageEvents(t *testing.T) {
	p := &recordingProcessor{}
	h, m := newTestHandler(p)
	body := callback(
		messageEvent("tok-text", `{"id":"1","type":"text","text":"USD","quoteToken":"q"}`),
		messageEvent("tok-sticker", `{"id":"2","type":"sticker","packageId":"11537","stickerId":"52002734","stickerResourceType":"STATIC","keywords":["HAPPY","PARTY"],"quoteToken":"q"}`),
		messageEvent("tok-loc", `{"id":"3","type":"location","title":"Office","address":"Taipei","latitude":25.03,"longitude":121.56}`),
	)

	rec := post(h, body, sign(testSecret, body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	require.Len(t, p.events, 3)
	assert.Equal(t, chat.TextEvent{ReplyToken: "tok-text", Text: "USD"}, p.events[0])
	assert.Equal(t, chat.StickerEvent{
		ReplyToken: "tok-sticker",
		PackageID:  "11537",
		StickerID:  "52002734",
		Keywords:   []string{"HAPPY", "PARTY"},
	}, p.events[1])
	assert.Equal(t, chat.LocationEvent{
		ReplyToken: "tok-loc",
		Title:      "Office",
		Address:    "Taipei",
		Latitude:   25.03,
		Longitude:  121.56,
	}, p.events[2])

	// One request id per callback.
	assert.NotEmpty(t, p.requestIDs[0])
	assert.Equal(t, p.requestIDs[0], p.requestIDs[2])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookRequests.WithLabelValues("ok")))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	p := &recordingProcessor{}
	h, m := newTestHandler(p)
	follow := `{"type":"follow","mode":"active","timestamp":1700000000000,` +
		`"source":{"type":"user","userId":"U1234"},"webhookEventId":"01H","deliveryContext":{"isRedelivery":false},` +
		`"replyToken":"tok-follow"}`
	image := messageEvent("tok-img", `{"id":"4","type":"image","contentProvider":{"type":"line"}}`)
	body := callback(follow, image)

	rec := post(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.events)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.InboundEvents.WithLabelValues("ignored")))
}

func TestWebhookRejectsMalformedSignedBody(t *testing.T) {
	p := &recordingProcessor{}
	h, m := newTestHandler(p)
	body := `{"destination":`

	rec := post(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.events)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookRequests.WithLabelValues("bad_request")))
}

func TestWebhookEmptyEventList(t *testing.T) {
	p := &recordingProcessor{}
	h, _ := newTestHandler(p)
	body := callback()

	rec := post(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.events)
}

func TestWebhookProcessorFailure(t *testing.T) {
	p := &recordingProcessor{err: errors.New("reply failed")}
	h, m := newTestHandler(p)
	body := callback(messageEvent("tok", `{"id":"1","type":"text","text":"hi"}`))

	rec := post(h, body, sign(testSecret, body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookRequests.WithLabelValues("error")))
}
