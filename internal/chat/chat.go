// Package chat holds the platform independent shapes of inbound events and
// outbound reply messages.
package chat

// Event is an inbound message event. Implementations are TextEvent,
// StickerEvent and LocationEvent.
type Event interface {
	Token() string
	Kind() string
}

// TextEvent carries a plain text message from the user.
type TextEvent struct {
	ReplyToken string
	Text       string
}

// StickerEvent carries a sticker sent by the user.
type StickerEvent struct {
	ReplyToken string
	PackageID  string
	StickerID  string
	Keywords   []string
}

// LocationEvent carries a shared location.
type LocationEvent struct {
	ReplyToken string
	Title      string
	Address    string
	Latitude   float64
	Longitude  float64
}

func (e TextEvent) Token() string     { return e.ReplyToken }
func (e StickerEvent) Token() string  { return e.ReplyToken }
func (e LocationEvent) Token() string { return e.ReplyToken }

func (TextEvent) Kind() string     { return "text" }
func (StickerEvent) Kind() string  { return "sticker" }
func (LocationEvent) Kind() string { return "location" }

// Message is an outbound reply payload. Implementations are Text, Sticker and
// Location.
type Message interface {
	Type() string
}

// Text is a plain text reply.
type Text struct {
	Text string `json:"text"`
}

// Sticker is a sticker reply.
type Sticker struct {
	PackageID string `json:"package_id"`
	StickerID string `json:"sticker_id"`
}

// Location is a location reply.
type Location struct {
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (Text) Type() string     { return "text" }
func (Sticker) Type() string  { return "sticker" }
func (Location) Type() string { return "location" }
