// Package wa implements the WhatsApp Cloud API boundary: outbound
// payload construction, the outbound HTTP client, and inbound envelope
// parsing with intent extraction. All menu renderings go through the
// builders here so the conversation engine never assembles provider
// JSON itself.
package wa

// Display caps enforced by the channel. Titles are truncated with an
// ellipsis rather than rejected.
const (
	MaxButtons        = 3
	MaxRowsPerSection = 10
	buttonTitleLimit  = 20
	rowTitleLimit     = 24
)

// Payload is one outbound message in Cloud API wire format.
type Payload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextBody    `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type   string   `json:"type"` // "button", "list" or "cta_url"
	Body   TextBody `json:"body"`
	Action Action   `json:"action"`
}

type Action struct {
	Buttons    []ReplyButton  `json:"buttons,omitempty"`
	Button     string         `json:"button,omitempty"` // list open label
	Sections   []Section      `json:"sections,omitempty"`
	Name       string         `json:"name,omitempty"` // "cta_url"
	Parameters *URLParameters `json:"parameters,omitempty"`
}

type ReplyButton struct {
	Type  string `json:"type"` // always "reply"
	Reply Reply  `json:"reply"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type URLParameters struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

type Section struct {
	Title string `json:"title,omitempty"`
	Rows  []Row  `json:"rows"`
}

type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Button is the builder-level input for Buttons. A button carries
// either an ID (quick reply) or a URL (link-out).
type Button struct {
	ID    string
	Title string
	URL   string
}

// Text builds a plain text message.
func Text(to, body string) Payload {
	return Payload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextBody{Body: body},
	}
}

// Buttons builds an interactive quick-reply message. At most
// MaxButtons buttons are kept; extras are dropped. A single button
// carrying a URL renders as a link-out (cta_url) message instead.
func Buttons(to, body string, buttons []Button) Payload {
	if len(buttons) == 1 && buttons[0].URL != "" {
		return Payload{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "interactive",
			Interactive: &Interactive{
				Type: "cta_url",
				Body: TextBody{Body: body},
				Action: Action{
					Name: "cta_url",
					Parameters: &URLParameters{
						DisplayText: truncate(buttons[0].Title, buttonTitleLimit),
						URL:         buttons[0].URL,
					},
				},
			},
		}
	}

	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	items := make([]ReplyButton, 0, len(buttons))
	for _, b := range buttons {
		if b.ID == "" {
			continue
		}
		items = append(items, ReplyButton{
			Type: "reply",
			Reply: Reply{
				ID:    b.ID,
				Title: truncate(b.Title, buttonTitleLimit),
			},
		})
	}
	return Payload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type:   "button",
			Body:   TextBody{Body: body},
			Action: Action{Buttons: items},
		},
	}
}

// List builds an interactive list message. Rows are chunked into
// sections of at most MaxRowsPerSection; row titles are truncated.
func List(to, body, openLabel string, rows []Row) Payload {
	var sections []Section
	for start := 0; start < len(rows); start += MaxRowsPerSection {
		end := start + MaxRowsPerSection
		if end > len(rows) {
			end = len(rows)
		}
		chunk := make([]Row, end-start)
		for i, r := range rows[start:end] {
			r.Title = truncate(r.Title, rowTitleLimit)
			chunk[i] = r
		}
		sections = append(sections, Section{Rows: chunk})
	}
	return Payload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type: "list",
			Body: TextBody{Body: body},
			Action: Action{
				Button:   truncate(openLabel, buttonTitleLimit),
				Sections: sections,
			},
		},
	}
}

// truncate caps s at limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
