package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/calendar-secretary/internal/persistence"
)

// TelegramHandler serves the Telegram bot webhook endpoint.
type TelegramHandler struct {
	processor   Processor
	sender      Sender
	registry    MessageRegistry
	secretToken string
	logger      *slog.Logger
}

// NewTelegramHandler wires the Telegram webhook. An empty secretToken
// disables header authentication.
func NewTelegramHandler(processor Processor, sender Sender, registry MessageRegistry, secretToken string, logger *slog.Logger) *TelegramHandler {
	return &TelegramHandler{
		processor:   processor,
		sender:      sender,
		registry:    registry,
		secretToken: secretToken,
		logger:      defaultLogger(logger),
	}
}

// TelegramUserID namespaces a Telegram account id into the user id space
// the processor sees. The configured boss id must go through the same
// mapping or it will never match an inbound update.
func TelegramUserID(accountID string) string {
	return "tg:" + accountID
}

// telegramUpdate mirrors the Bot API update payload down to the fields the
// secretary consumes.
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// Receive processes one bot update. Non-text updates are acknowledged and
// ignored.
func (h *TelegramHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "telegram", "receive")

	if h.secretToken != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.secretToken {
		logger.WarnContext(ctx, "webhook secret token mismatch")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var update telegramUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		logger.WarnContext(ctx, "malformed update payload", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == "" || update.Message.From.ID == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	updateKey := fmt.Sprintf("tg:%d", update.UpdateID)
	if err := h.registry.RegisterMessageID(ctx, updateKey); err != nil {
		if !errors.Is(err, persistence.ErrDuplicateMessage) {
			logger.ErrorContext(ctx, "failed to register update id", "update_id", update.UpdateID, "error", err)
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	name := update.Message.From.FirstName
	if name == "" {
		name = update.Message.From.Username
	}
	userID := TelegramUserID(strconv.FormatInt(update.Message.From.ID, 10))
	reply := h.processor.Process(ctx, userID, name, text)

	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	if err := h.sender.SendText(ctx, chatID, reply); err != nil {
		logger.ErrorContext(ctx, "failed to deliver reply", "chat_id", chatID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
