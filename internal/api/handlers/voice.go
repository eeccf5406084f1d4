package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/audio"
	"github.com/dvloznov/finance-assistant/internal/store"
)

// maxClipBytes caps the accepted clip size at 10 MiB.
const maxClipBytes = 10 << 20

// Transcriber converts an encoded clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Synthesizer renders text to PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// VoiceHandler handles voice turns and reply speech.
type VoiceHandler struct {
	conversation Conversation
	transcript   store.TranscriptStore
	transcriber  Transcriber
	synthesizer  Synthesizer
	archive      audio.ClipArchiver // nil disables archiving
	log          zerolog.Logger
}

// NewVoiceHandler creates a voice handler.
func NewVoiceHandler(conversation Conversation, transcript store.TranscriptStore, transcriber Transcriber, synthesizer Synthesizer, archive audio.ClipArchiver, log zerolog.Logger) *VoiceHandler {
	return &VoiceHandler{
		conversation: conversation,
		transcript:   transcript,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		archive:      archive,
		log:          log,
	}
}

// VoiceChat handles POST /api/chat/voice. The body is the encoded clip; the
// Content-Type header carries its format.
func (h *VoiceHandler) VoiceChat(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "audio/") {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "An audio Content-Type is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxClipBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read clip")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Clip is empty")
		return
	}

	if h.archive != nil {
		h.archive.Enqueue(data, mimeType)
	}

	text, err := h.transcriber.Transcribe(r.Context(), data, mimeType)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to transcribe clip")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to transcribe clip")
		return
	}
	if text == "" {
		// Nothing understood; no turn runs and the transcript is untouched.
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"transcript": "",
			"reply":      nil,
		})
		return
	}

	reply, err := h.conversation.HandleMessage(r.Context(), text)
	if err != nil {
		if errors.Is(err, audio.ErrBusy) {
			middleware.WriteError(w, http.StatusConflict, "A recording is in progress")
			return
		}
		h.log.Error().Err(err).Msg("Failed to handle voice turn")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to handle message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transcript": text,
		"reply":      reply,
	})
}

// Speech handles GET /api/messages/{id}/speech. The reply is synthesized on
// every request and returned as a WAV payload.
func (h *VoiceHandler) Speech(w http.ResponseWriter, r *http.Request, messageID string) {
	msg, err := h.transcript.GetMessage(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Message not found")
			return
		}
		h.log.Error().Err(err).Msg("Failed to load message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load message")
		return
	}

	pcm, err := h.synthesizer.Synthesize(r.Context(), msg.Content)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", messageID).Msg("Failed to synthesize message")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to synthesize message")
		return
	}
	if len(pcm) == 0 {
		middleware.WriteError(w, http.StatusNotFound, "No audio available for message")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(audio.EncodeWAV(pcm, audio.SampleRate))
}
