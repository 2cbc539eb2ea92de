package messenger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhatsAppClient_SendText(t *testing.T) {
	t.Parallel()

	t.Run("posts the message to the phone number endpoint", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotAuth string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
		}))
		defer server.Close()

		client := NewWhatsAppClient("token-1", "555000", server.URL)
		if err := client.SendText(context.Background(), "905551111111", "hello"); err != nil {
			t.Fatalf("SendText returned error: %v", err)
		}

		if gotPath != "/555000/messages" {
			t.Errorf("path = %q, want /555000/messages", gotPath)
		}
		if gotAuth != "Bearer token-1" {
			t.Errorf("Authorization = %q, want bearer token", gotAuth)
		}
		if gotBody["to"] != "905551111111" || gotBody["messaging_product"] != "whatsapp" {
			t.Errorf("body = %v, want whatsapp text message", gotBody)
		}
	})

	t.Run("surfaces api errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"bad token"}}`)
		}))
		defer server.Close()

		client := NewWhatsAppClient("expired", "555000", server.URL)
		err := client.SendText(context.Background(), "905551111111", "hello")
		if err == nil {
			t.Fatal("expected error for non-2xx response")
		}
		if !strings.Contains(err.Error(), "401") {
			t.Errorf("error = %v, want status code included", err)
		}
	})
}

func TestTelegramClient_SendText(t *testing.T) {
	t.Parallel()

	t.Run("posts to the bot sendMessage endpoint", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			io.WriteString(w, `{"ok":true,"result":{}}`)
		}))
		defer server.Close()

		client := NewTelegramClient("bot-token", server.URL)
		if err := client.SendText(context.Background(), "12345", "hello"); err != nil {
			t.Fatalf("SendText returned error: %v", err)
		}

		if gotPath != "/botbot-token/sendMessage" {
			t.Errorf("path = %q, want /botbot-token/sendMessage", gotPath)
		}
		if gotBody["chat_id"] != "12345" || gotBody["text"] != "hello" {
			t.Errorf("body = %v, want chat id and text", gotBody)
		}
	})

	t.Run("registers a webhook with the secret token", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			io.WriteString(w, `{"ok":true,"result":true}`)
		}))
		defer server.Close()

		client := NewTelegramClient("bot-token", server.URL)
		if err := client.SetWebhook(context.Background(), "https://example.com/webhooks/telegram", "secret"); err != nil {
			t.Fatalf("SetWebhook returned error: %v", err)
		}
		if gotPath != "/botbot-token/setWebhook" {
			t.Errorf("path = %q, want /botbot-token/setWebhook", gotPath)
		}
		if gotBody["url"] != "https://example.com/webhooks/telegram" || gotBody["secret_token"] != "secret" {
			t.Errorf("body = %v, want url and secret token", gotBody)
		}
	})

	t.Run("surfaces rejected messages", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"ok":false,"description":"chat not found"}`)
		}))
		defer server.Close()

		client := NewTelegramClient("bot-token", server.URL)
		err := client.SendText(context.Background(), "0", "hello")
		if err == nil {
			t.Fatal("expected error for rejected message")
		}
		if !strings.Contains(err.Error(), "chat not found") {
			t.Errorf("error = %v, want api description included", err)
		}
	})
}
