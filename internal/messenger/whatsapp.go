// Package messenger implements the outbound messaging clients used to
// deliver replies over WhatsApp Cloud API and the Telegram Bot API.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// WhatsAppClient sends text messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// NewWhatsAppClient builds a client for the given phone number id. baseURL
// may be empty for the production Graph API.
func NewWhatsAppClient(accessToken, phoneNumberID, baseURL string) *WhatsAppClient {
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &WhatsAppClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

type whatsAppTextMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

// SendText delivers a plain text message to the given WhatsApp user id.
func (c *WhatsAppClient) SendText(ctx context.Context, recipient, text string) error {
	payload, err := json.Marshal(whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
		Text:             whatsAppTextBody{Body: text},
	})
	if err != nil {
		return fmt.Errorf("messenger: marshal whatsapp message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("messenger: build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger: send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("messenger: whatsapp api returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
