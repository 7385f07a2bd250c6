// Package dispatch delivers outbound chat messages through the Green API
// WhatsApp gateway.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GreenAPIClient sends text messages via the Green API REST endpoint.
// The instance ID and token are deployment secrets.
type GreenAPIClient struct {
	baseURL    string
	idInstance string
	token      string
	http       *http.Client
}

func NewGreenAPIClient(baseURL, idInstance, token string, timeout time.Duration) *GreenAPIClient {
	return &GreenAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		idInstance: idInstance,
		token:      token,
		http:       &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// Send delivers text to a recipient. The recipient may arrive as a raw phone
// number, with a leading "+", or already in gateway form ("...@c.us"); all
// are normalized to the gateway's chatId format.
func (c *GreenAPIClient) Send(ctx context.Context, recipient, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:  ChatID(recipient),
		Message: text,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", c.baseURL, c.idInstance, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send message: gateway returned %d", resp.StatusCode)
	}
	return nil
}

// ChatID normalizes a recipient address to the gateway's chatId format.
func ChatID(recipient string) string {
	clean := strings.TrimPrefix(strings.TrimSuffix(recipient, "@c.us"), "+")
	return clean + "@c.us"
}
