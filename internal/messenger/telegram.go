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

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramClient sends text messages through the Telegram Bot API.
type TelegramClient struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
}

// NewTelegramClient builds a client for the given bot token. baseURL may be
// empty for the production API.
func NewTelegramClient(botToken, baseURL string) *TelegramClient {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	return &TelegramClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		botToken:   botToken,
	}
}

type telegramSendMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type telegramSetWebhook struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

// SetWebhook points the bot's webhook at the given public URL. secretToken,
// when non-empty, is echoed back by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header of every update.
func (c *TelegramClient) SetWebhook(ctx context.Context, url, secretToken string) error {
	payload, err := json.Marshal(telegramSetWebhook{URL: url, SecretToken: secretToken})
	if err != nil {
		return fmt.Errorf("messenger: marshal webhook registration: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/setWebhook", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("messenger: build webhook registration: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger: register webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("messenger: read webhook response: %w", err)
	}
	var decoded telegramResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("messenger: telegram api returned %d: %s", resp.StatusCode, body)
	}
	if !decoded.OK {
		return fmt.Errorf("messenger: telegram api rejected the webhook: %s", decoded.Description)
	}
	return nil
}

// SendText delivers a plain text message to the given chat id.
func (c *TelegramClient) SendText(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(telegramSendMessage{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("messenger: marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("messenger: build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger: send telegram message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("messenger: read telegram response: %w", err)
	}

	var decoded telegramResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("messenger: telegram api returned %d: %s", resp.StatusCode, body)
	}
	if !decoded.OK {
		return fmt.Errorf("messenger: telegram api rejected the message: %s", decoded.Description)
	}
	return nil
}
