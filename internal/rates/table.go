// Package rates loads the Bank of Taiwan board rates into an immutable
// currency table.
package rates

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rate is the bank buy and sell price of one currency in TWD. BuyText and
// SellText keep the figures exactly as quoted on the board, trailing zeros
// included.
type Rate struct {
	Buy      decimal.Decimal `json:"buy"`
	Sell     decimal.Decimal `json:"sell"`
	BuyText  string          `json:"buy_text,omitempty"`
	SellText string          `json:"sell_text,omitempty"`
}

// BuyString is the quoted buy price, or the decimal form when no quote was
// kept.
func (r Rate) BuyString() string {
	return quoted(r.BuyText, r.Buy)
}

// SellString is the quoted sell price, or the decimal form when no quote was
// kept.
func (r Rate) SellString() string {
	return quoted(r.SellText, r.Sell)
}

func quoted(text string, d decimal.Decimal) string {
	if text != "" {
		return text
	}
	return d.String()
}

// Table maps a currency code such as "USD" to its rate. It is not modified
// after Load returns.
type Table map[string]Rate

// Lookup returns the rate for code using an exact, case sensitive match.
func (t Table) Lookup(code string) (Rate, bool) {
	r, ok := t[code]
	return r, ok
}

// Codes returns the currency codes in lexical order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
