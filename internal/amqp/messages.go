package amqp

import (
	"encoding/json"
	"time"
)

// InboundMessage is one chat message relayed by a bridge (Telegram,
// WhatsApp, ...) onto the inbound queue. Identity is the platform's
// stable user id; DisplayName is whatever the platform knows the sender
// as at send time. Group is the sender's current group selection,
// empty when none.
type InboundMessage struct {
	MessageID   string    `json:"message_id"`
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name,omitempty"`
	Group       string    `json:"group,omitempty"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}

// ReplyMessage is the service's answer for the bridge to deliver back
// to the sender. ExportRef carries the export artifact reference when
// the reply answers an export command.
type ReplyMessage struct {
	MessageID string    `json:"message_id"`
	Identity  string    `json:"identity"`
	Text      string    `json:"text"`
	ExportRef string    `json:"export_ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReply builds a reply correlated to the inbound message.
func NewReply(in *InboundMessage, text string) *ReplyMessage {
	return &ReplyMessage{
		MessageID: in.MessageID,
		Identity:  in.Identity,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ReplyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InboundMessageFromJSON creates a message from JSON bytes.
func InboundMessageFromJSON(data []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
