package handler

import (
	"encoding/json"
	"errors"
)

// Message is the canonical inbound message the state machine consumes.
// Schema-sniffing of the gateway's payload revisions stays in this file.
type Message struct {
	Sender string
	Text   string
}

// ErrIgnore marks payloads that are valid but carry nothing to handle
// (status broadcasts, non-text notifications). The webhook acknowledges them
// without invoking the state machine.
var ErrIgnore = errors.New("ignorable payload")

// Two upstream schemas must both be accepted: the legacy flat shape and the
// structured notification shape the gateway later moved to.
type inboundPayload struct {
	// Legacy flat shape.
	Sender string `json:"sender"`
	Body   string `json:"body"`

	// Structured notification shape.
	TypeWebhook string `json:"typeWebhook"`
	SenderData  *struct {
		Sender string `json:"sender"`
	} `json:"senderData"`
	MessageData *struct {
		TextMessageData *struct {
			TextMessage string `json:"textMessage"`
		} `json:"textMessageData"`
	} `json:"messageData"`
}

// Normalize parses a raw webhook body into a canonical Message.
// Returns ErrIgnore for payloads that should be acknowledged and skipped.
func Normalize(raw []byte) (Message, error) {
	var payload inboundPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Message{}, err
	}

	if payload.TypeWebhook != "" {
		if payload.TypeWebhook != "incomingMessageReceived" {
			return Message{}, ErrIgnore
		}
		if payload.SenderData == nil || payload.SenderData.Sender == "" {
			return Message{}, ErrIgnore
		}
		if payload.MessageData == nil || payload.MessageData.TextMessageData == nil {
			// Media, location, etc. — not part of any flow.
			return Message{}, ErrIgnore
		}
		msg := Message{
			Sender: payload.SenderData.Sender,
			Text:   payload.MessageData.TextMessageData.TextMessage,
		}
		return checkSender(msg)
	}

	return checkSender(Message{Sender: payload.Sender, Text: payload.Body})
}

func checkSender(msg Message) (Message, error) {
	if msg.Sender == "" || msg.Sender == "status@broadcast" {
		return Message{}, ErrIgnore
	}
	return msg, nil
}
