package router

import (
	"context"
	"errors"
	"testing"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/rates"
	"line-rate-bot/internal/reply"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls  []string
	answer string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	return f.answer, f.err
}

func testTable() rates.Table {
	return rates.Table{
		"USD": {Buy: decimal.RequireFromString("31.995"), Sell: decimal.RequireFromString("32.665")},
		"JPY": {Buy: decimal.RequireFromString("0.2034"), Sell: decimal.RequireFromString("0.2162")},
		// Also a FAQ key: the FAQ must win.
		"EUR": {Buy: decimal.RequireFromString("35.1"), Sell: decimal.RequireFromString("36.2")},
	}
}

func testFAQ() reply.FAQ {
	return reply.FAQ{
		"你好":  chat.Text{Text: "你好呀"},
		"謝謝":  chat.Sticker{PackageID: "446", StickerID: "1989"},
		"EUR": chat.Text{Text: "歐元請洽櫃台"},
	}
}

func newTestRouter(llm *fakeCompleter) *Router {
	return New(testFAQ(), testTable(), reply.Menu(), reply.MenuTriggers, llm)
}

func TestRouteFAQ(t *testing.T) {
	llm := &fakeCompleter{}
	r := newTestRouter(llm)

	for key, want := range testFAQ() {
		res, err := r.Route(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, RouteFAQ, res.Route)
		assert.Equal(t, want, res.Message)
	}
	assert.Empty(t, llm.calls)
}

func TestRouteExchange(t *testing.T) {
	llm := &fakeCompleter{}
	r := newTestRouter(llm)

	res, err := r.Route(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, RouteExchange, res.Route)
	assert.Equal(t, chat.Text{Text: "USD的匯率\n買價：31.995 \n賣價：32.665 \n" + Disclaimer}, res.Message)

	res, err = r.Route(context.Background(), "JPY")
	require.NoError(t, err)
	text := res.Message.(chat.Text).Text
	assert.Contains(t, text, "0.2034")
	assert.Contains(t, text, "0.2162")
	assert.Contains(t, text, Disclaimer)
	assert.Empty(t, llm.calls)
}

func TestRouteMenu(t *testing.T) {
	llm := &fakeCompleter{}
	r := newTestRouter(llm)

	for _, trigger := range []string{"menu", "選單", "首頁"} {
		res, err := r.Route(context.Background(), trigger)
		require.NoError(t, err)
		assert.Equal(t, RouteMenu, res.Route)
		assert.Equal(t, reply.Menu(), res.Message)
	}
	assert.Empty(t, llm.calls)
}

func TestRouteFallsBackToModel(t *testing.T) {
	llm := &fakeCompleter{answer: "汪汪汪"}
	r := newTestRouter(llm)

	// Matching is exact and case sensitive.
	for _, text := range []string{"usd", "Menu", " 你好", "今天要帶傘嗎"} {
		res, err := r.Route(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, RouteLLM, res.Route)
		assert.Equal(t, chat.Text{Text: "汪汪汪"}, res.Message)
	}
	assert.Equal(t, []string{"usd", "Menu", " 你好", "今天要帶傘嗎"}, llm.calls)
}

func TestRouteModelFailurePropagates(t *testing.T) {
	boom := errors.New("rate limited")
	llm := &fakeCompleter{err: boom}
	r := newTestRouter(llm)

	res, err := r.Route(context.Background(), "hello?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, RouteLLM, res.Route)
	assert.Nil(t, res.Message)
	assert.Len(t, llm.calls, 1)
}

func TestFormatRateKeepsBoardQuote(t *testing.T) {
	rate := rates.Rate{
		Buy:      decimal.RequireFromString("32.320"),
		Sell:     decimal.RequireFromString("32.420"),
		BuyText:  "32.320",
		SellText: "32.420",
	}
	assert.Equal(t, "USD的匯率\n買價：32.320 \n賣價：32.420 \n"+Disclaimer, FormatRate("USD", rate))

	// Without a quote the decimal form is used.
	rate.BuyText, rate.SellText = "", ""
	assert.Equal(t, "USD的匯率\n買價：32.32 \n賣價：32.42 \n"+Disclaimer, FormatRate("USD", rate))
}
