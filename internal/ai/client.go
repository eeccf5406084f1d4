// Package ai implements the assistant's model-backed collaborators on top of
// the Gemini API: transaction parsing, advice, speech-to-text and
// text-to-speech. Each call validates the loosely-typed model response before
// anything crosses into the typed domain.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Default model names; override via Config.
const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"

	// DefaultVoice is the prebuilt voice used for synthesized replies.
	DefaultVoice = "Kore"

	// SynthesisSampleRate is the PCM sample rate the speech model returns:
	// 16-bit little-endian mono at 24 kHz.
	SynthesisSampleRate = 24000
)

// Config selects the models used by the collaborators.
type Config struct {
	TextModel   string // parsing, advice, transcription
	SpeechModel string // synthesis
	Voice       string
}

// Client bundles the Gemini collaborators behind one API client. It
// implements the parser/advisor interfaces in internal/assistant and the
// transcriber/synthesizer interfaces in internal/audio.
type Client struct {
	genai       *genai.Client
	textModel   string
	speechModel string
	voice       string
}

// NewClient creates a Gemini-backed collaborator client. Credentials come
// from the environment (GEMINI_API_KEY or Application Default Credentials).
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}

	c := &Client{
		genai:       gc,
		textModel:   cfg.TextModel,
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.speechModel == "" {
		c.speechModel = DefaultSpeechModel
	}
	if c.voice == "" {
		c.voice = DefaultVoice
	}
	return c, nil
}

// generateText runs a text-only prompt and returns the raw model text.
func (c *Client) generateText(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generateText: empty response from model")
	}
	return text, nil
}
