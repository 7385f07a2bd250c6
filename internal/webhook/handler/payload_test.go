package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyShape(t *testing.T) {
	msg, err := Normalize([]byte(`{"sender":"584121234567@c.us","body":"hola"}`))
	require.NoError(t, err)
	assert.Equal(t, "584121234567@c.us", msg.Sender)
	assert.Equal(t, "hola", msg.Text)
}

func TestNormalizeLegacyShapeEmptyBody(t *testing.T) {
	msg, err := Normalize([]byte(`{"sender":"584121234567@c.us"}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Text, "missing body normalizes to empty text, which resets the flow")
}

func TestNormalizeStructuredShape(t *testing.T) {
	raw := []byte(`{
		"typeWebhook": "incomingMessageReceived",
		"senderData": {"sender": "584121234567@c.us"},
		"messageData": {
			"typeMessage": "textMessage",
			"textMessageData": {"textMessage": "1"}
		}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "584121234567@c.us", msg.Sender)
	assert.Equal(t, "1", msg.Text)
}

func TestNormalizeIgnoresNonMessageNotifications(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"status webhook", `{"typeWebhook":"stateInstanceChanged"}`},
		{"outgoing status", `{"typeWebhook":"outgoingMessageStatus","senderData":{"sender":"x@c.us"}}`},
		{"media message", `{"typeWebhook":"incomingMessageReceived","senderData":{"sender":"x@c.us"},"messageData":{"typeMessage":"imageMessage"}}`},
		{"broadcast sender", `{"sender":"status@broadcast","body":"x"}`},
		{"missing sender", `{"body":"hola"}`},
		{"structured missing sender", `{"typeWebhook":"incomingMessageReceived","messageData":{"textMessageData":{"textMessage":"1"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrIgnore)
		})
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{broken`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIgnore)
}
