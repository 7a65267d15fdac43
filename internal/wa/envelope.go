package wa

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope mirrors the provider webhook JSON:
// entry[].changes[].value.messages[].
type envelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []InboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// InboundMessage is one user message extracted from a webhook call.
type InboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *Reply `json:"button_reply,omitempty"`
		ListReply   *Reply `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// ParseEnvelope extracts all inbound messages from a raw webhook body.
// An envelope with no messages (status callbacks, etc.) parses to an
// empty slice, not an error.
func ParseEnvelope(raw []byte) ([]InboundMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse webhook envelope: %w", err)
	}

	var msgs []InboundMessage
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			msgs = append(msgs, change.Value.Messages...)
		}
	}
	return msgs, nil
}

// IntentKind classifies an inbound message for dispatch.
type IntentKind int

const (
	// IntentUnrecognized covers media, reactions and anything else
	// the engine cannot act on.
	IntentUnrecognized IntentKind = iota
	// IntentFreeText is typed text; Text holds the upper-cased body.
	IntentFreeText
	// IntentSelection is a button or list reply; SelectionID holds
	// the opaque id verbatim.
	IntentSelection
)

// Intent is the channel-independent meaning of an inbound message.
type Intent struct {
	Kind        IntentKind
	Text        string
	SelectionID string
}

// ExtractIntent maps a provider message to an Intent. Free text is
// trimmed and upper-cased for command matching; selection ids pass
// through untouched.
func ExtractIntent(m InboundMessage) Intent {
	if m.Text != nil && m.Text.Body != "" {
		return Intent{
			Kind: IntentFreeText,
			Text: strings.ToUpper(strings.TrimSpace(m.Text.Body)),
		}
	}
	if m.Interactive != nil {
		if r := m.Interactive.ButtonReply; r != nil && r.ID != "" {
			return Intent{Kind: IntentSelection, SelectionID: r.ID}
		}
		if r := m.Interactive.ListReply; r != nil && r.ID != "" {
			return Intent{Kind: IntentSelection, SelectionID: r.ID}
		}
	}
	return Intent{Kind: IntentUnrecognized}
}
