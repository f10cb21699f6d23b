// Package reply holds the static reply tables: the FAQ and the menu.
package reply

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"line-rate-bot/internal/chat"

	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultFAQ []byte

// MenuTriggers are the texts answered with the menu.
var MenuTriggers = []string{"選單", "menu", "首頁"}

const menuText = "📋 功能選單\n" +
	"1. 輸入幣別代碼（例如 USD、JPY、EUR）查詢臺灣銀行牌告匯率\n" +
	"2. 輸入常見問題，例如「你好」、「匯率」\n" +
	"3. 傳送貼圖或位置，看看我怎麼回應\n" +
	"4. 其他問題直接輸入，交給 AI 小狗回答\n\n" +
	"隨時輸入「選單」回到這裡。"

// Menu returns the static menu message.
func Menu() chat.Message {
	return chat.Text{Text: menuText}
}

// FAQ maps an exact user text to its canned reply.
type FAQ map[string]chat.Message

// Lookup returns the reply for text.
func (f FAQ) Lookup(text string) (chat.Message, bool) {
	msg, ok := f[text]
	return msg, ok
}

type faqEntry struct {
	Type      string `yaml:"type"`
	Text      string `yaml:"text"`
	PackageID string `yaml:"package_id"`
	StickerID string `yaml:"sticker_id"`
}

// LoadFAQ reads the FAQ table from path, or the embedded table when path is
// empty.
func LoadFAQ(path string) (FAQ, error) {
	if strings.TrimSpace(path) == "" {
		return ParseFAQ(defaultFAQ)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	return ParseFAQ(data)
}

// ParseFAQ decodes a YAML FAQ document.
func ParseFAQ(data []byte) (FAQ, error) {
	var raw map[string]faqEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}

	faq := make(FAQ, len(raw))
	for key, entry := range raw {
		msg, err := entry.message()
		if err != nil {
			return nil, fmt.Errorf("faq entry %q: %w", key, err)
		}
		faq[key] = msg
	}
	return faq, nil
}

func (e faqEntry) message() (chat.Message, error) {
	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case "", "text":
		if strings.TrimSpace(e.Text) == "" {
			return nil, fmt.Errorf("empty text")
		}
		return chat.Text{Text: e.Text}, nil
	case "sticker":
		if e.PackageID == "" || e.StickerID == "" {
			return nil, fmt.Errorf("sticker needs package_id and sticker_id")
		}
		return chat.Sticker{PackageID: e.PackageID, StickerID: e.StickerID}, nil
	default:
		return nil, fmt.Errorf("unknown type %q", e.Type)
	}
}
