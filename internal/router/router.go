// Package router decides which source answers an inbound text message.
package router

import (
	"context"
	"fmt"
	"slices"

	"line-rate-bot/internal/chat"
	"line-rate-bot/internal/rates"
	"line-rate-bot/internal/reply"
)

// Route names reported with every decision.
const (
	RouteFAQ      = "faq"
	RouteExchange = "exchange"
	RouteMenu     = "menu"
	RouteLLM      = "llm"
)

// Disclaimer is appended to every exchange rate reply.
const Disclaimer = "資料來源：臺灣銀行匯率牌價公告，正式價格以臺灣銀行網站公告為主。"

// Completer produces a language model reply for a single user turn.
type Completer interface {
	Complete(ctx context.Context, text string) (string, error)
}

// Result is the routing decision for one message.
type Result struct {
	Route   string
	Message chat.Message
}

type route struct {
	name    string
	match   func(text string) bool
	respond func(ctx context.Context, text string) (chat.Message, error)
}

// Router evaluates its routes in order; the language model answers whatever
// nothing else matched.
type Router struct {
	routes   []route
	fallback route
}

// New builds the FAQ → exchange → menu → language model chain.
func New(faq reply.FAQ, table rates.Table, menu chat.Message, triggers []string, llm Completer) *Router {
	r := &Router{}
	r.routes = []route{
		{
			name:  RouteFAQ,
			match: func(text string) bool { _, ok := faq.Lookup(text); return ok },
			respond: func(_ context.Context, text string) (chat.Message, error) {
				msg, _ := faq.Lookup(text)
				return msg, nil
			},
		},
		{
			name:  RouteExchange,
			match: func(text string) bool { _, ok := table.Lookup(text); return ok },
			respond: func(_ context.Context, text string) (chat.Message, error) {
				rate, _ := table.Lookup(text)
				return chat.Text{Text: FormatRate(text, rate)}, nil
			},
		},
		{
			name:  RouteMenu,
			match: func(text string) bool { return slices.Contains(triggers, text) },
			respond: func(context.Context, string) (chat.Message, error) {
				return menu, nil
			},
		},
	}
	r.fallback = route{
		name: RouteLLM,
		respond: func(ctx context.Context, text string) (chat.Message, error) {
			out, err := llm.Complete(ctx, text)
			if err != nil {
				return nil, err
			}
			return chat.Text{Text: out}, nil
		},
	}
	return r
}

// Route returns exactly one reply for text, or the language model error.
func (r *Router) Route(ctx context.Context, text string) (Result, error) {
	selected := r.fallback
	for _, rt := range r.routes {
		if rt.match(text) {
			selected = rt
			break
		}
	}

	msg, err := selected.respond(ctx, text)
	if err != nil {
		return Result{Route: selected.name}, fmt.Errorf("route %s: %w", selected.name, err)
	}
	return Result{Route: selected.name, Message: msg}, nil
}

// FormatRate renders the exchange rate reply for code.
func FormatRate(code string, rate rates.Rate) string {
	return fmt.Sprintf("%s的匯率\n買價：%s \n賣價：%s \n%s", code, rate.BuyString(), rate.SellString(), Disclaimer)
}
