package convo

import (
	"fmt"
	"strings"

	"line-rate-bot/internal/chat"
)

// The echoed sticker is fixed; it is not the one the user sent.
const (
	echoStickerPackageID = "6325"
	echoStickerID        = "10979904"

	locationTitle = "Here is the location you sent."
)

func stickerReply(evt chat.StickerEvent) []chat.Message {
	keywords := "這張貼圖背後沒有關鍵字"
	if len(evt.Keywords) > 0 {
		keywords = "這張貼圖的關鍵字有:" + strings.Join(evt.Keywords, ", ")
	}

	return []chat.Message{
		chat.Sticker{PackageID: echoStickerPackageID, StickerID: echoStickerID},
		chat.Text{Text: "你剛才傳入了一張貼圖，以下是這張貼圖的資訊:"},
		chat.Text{Text: fmt.Sprintf("貼圖包ID為 %s ，貼圖ID為 %s 。", evt.PackageID, evt.StickerID)},
		chat.Text{Text: keywords},
	}
}

func locationReply(evt chat.LocationEvent) []chat.Message {
	return []chat.Message{
		chat.Text{Text: "You just sent a location message."},
		chat.Text{Text: fmt.Sprintf("The latitude is %v.", evt.Latitude)},
		chat.Text{Text: fmt.Sprintf("The longitude is %v.", evt.Longitude)},
		chat.Text{Text: fmt.Sprintf("The address is %s.", evt.Address)},
		chat.Location{
			Title:     locationTitle,
			Address:   evt.Address,
			Latitude:  evt.Latitude,
			Longitude: evt.Longitude,
		},
	}
}
