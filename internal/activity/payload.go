package activity

// PayloadType distinguishes the payload kinds sent to the connector.
type PayloadType string

const (
	PayloadTyping  PayloadType = "typing"
	PayloadMessage PayloadType = "message"
)

// Attachment is a rich attachment on an outbound payload. Content holds the
// card body for card content types; ContentURL is used for plain media.
type Attachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Content     any    `json:"content,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Attachment content types understood by the connector.
const (
	ContentTypeHeroCard = "application/vnd.microsoft.card.hero"
	ContentTypeImagePNG = "image/png"
)

// Payload is one outbound unit submitted to the connector transport. A
// response message is always sent as an ordered [typing, message] pair
// sharing the triggering activity's address.
type Payload struct {
	Type        PayloadType  `json:"type"`
	Address     Address      `json:"address"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Entities    []Entity     `json:"entities,omitempty"`
}

// HeroCard is the card body used for synthesized rich responses.
type HeroCard struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty"`
	Images   []CardImage  `json:"images,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
}

// CardImage is an image on a card.
type CardImage struct {
	URL string `json:"url"`
}

// CardAction is a tappable card button.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value,omitempty"`
}

// CardActionIMBack posts the action value back as a message.
const CardActionIMBack = "imBack"
