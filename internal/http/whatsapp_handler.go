package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/calendar-secretary/internal/persistence"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// Processor handles one inbound message and produces the reply text.
type Processor interface {
	Process(ctx context.Context, userID, usernameHint, text string) string
}

// Sender delivers a reply to a transport-level recipient.
type Sender interface {
	SendText(ctx context.Context, recipient, text string) error
}

// MessageRegistry records processed message ids so redelivered webhooks are
// acknowledged without reprocessing.
type MessageRegistry interface {
	RegisterMessageID(ctx context.Context, messageID string) error
}

// WhatsAppHandler serves the Meta webhook endpoints for the WhatsApp Cloud
// API.
type WhatsAppHandler struct {
	processor   Processor
	sender      Sender
	registry    MessageRegistry
	verifyToken string
	appSecret   string
	logger      *slog.Logger
}

// NewWhatsAppHandler wires the WhatsApp webhook. An empty appSecret disables
// signature verification.
func NewWhatsAppHandler(processor Processor, sender Sender, registry MessageRegistry, verifyToken, appSecret string, logger *slog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		processor:   processor,
		sender:      sender,
		registry:    registry,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		logger:      defaultLogger(logger),
	}
}

// Verify answers the Meta webhook subscription handshake.
func (h *WhatsAppHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("hub.mode") != "subscribe" || query.Get("hub.verify_token") != h.verifyToken {
		logger := handlerLogger(r.Context(), h.logger, "whatsapp", "verify")
		logger.WarnContext(r.Context(), "webhook verification rejected")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, query.Get("hub.challenge"))
}

// whatsAppNotification mirrors the Cloud API webhook payload down to the
// fields the secretary consumes.
type whatsAppNotification struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Receive processes an inbound webhook notification. The endpoint always
// acknowledges authenticated payloads with 200 so Meta stops redelivering;
// per-message failures are logged, not surfaced.
func (h *WhatsAppHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "whatsapp", "receive")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if h.appSecret != "" && !h.validSignature(body, r.Header.Get("X-Hub-Signature-256")) {
		logger.WarnContext(ctx, "webhook signature mismatch")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	var notification whatsAppNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		logger.WarnContext(ctx, "malformed webhook payload", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	for _, entry := range notification.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, message := range change.Value.Messages {
				if message.Type != "text" || strings.TrimSpace(message.Text.Body) == "" {
					continue
				}
				h.handleMessage(ctx, logger, message.ID, message.From, names[message.From], message.Text.Body)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WhatsAppHandler) handleMessage(ctx context.Context, logger *slog.Logger, messageID, from, name, text string) {
	if err := h.registry.RegisterMessageID(ctx, messageID); err != nil {
		if errors.Is(err, persistence.ErrDuplicateMessage) {
			logger.InfoContext(ctx, "skipping redelivered message", "message_id", messageID)
			return
		}
		logger.ErrorContext(ctx, "failed to register message id", "message_id", messageID, "error", err)
		return
	}

	reply := h.processor.Process(ctx, from, name, text)
	if err := h.sender.SendText(ctx, from, reply); err != nil {
		logger.ErrorContext(ctx, "failed to deliver reply", "recipient", from, "error", err)
	}
}

func (h *WhatsAppHandler) validSignature(body []byte, header string) bool {
	signature, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}
