// Package handlers implements the HTTP endpoints of the assistant API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/audio"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
)

// Conversation is the turn entry point the chat endpoints submit to.
type Conversation interface {
	HandleMessage(ctx context.Context, text string) (domain.ChatMessage, error)
}

// ChatHandler handles text turns and transcript reads.
type ChatHandler struct {
	conversation Conversation
	transcript   store.TranscriptStore
	log          zerolog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(conversation Conversation, transcript store.TranscriptStore, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		conversation: conversation,
		transcript:   transcript,
		log:          log,
	}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	reply, err := h.conversation.HandleMessage(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, audio.ErrBusy) {
			middleware.WriteError(w, http.StatusConflict, "A recording is in progress")
			return
		}
		h.log.Error().Err(err).Msg("Failed to handle chat turn")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to handle message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// ListMessages handles GET /api/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.transcript.ListMessages(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list messages")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}
