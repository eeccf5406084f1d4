package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/audio"
)

// Synthesize renders text to speech and returns the raw sample buffer:
// 16-bit little-endian mono PCM at SynthesisSampleRate. A nil buffer with a
// nil error means the model produced no audio; playback should stay idle.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: text}}}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.voice,
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.speechModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Synthesize: generate content: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, nil
}

var _ audio.Synthesizer = (*Client)(nil)
