package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/audio"
)

// Transcribe converts an encoded audio clip into text. It returns "" when
// the model could not make out any speech; that is not an error.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("Transcribe: empty audio clip")
	}

	parts := []*genai.Part{
		{Text: "Transcribe the speech in the attached audio clip.\n" +
			"Return ONLY the transcribed text, in the speaker's language.\n" +
			"If there is no intelligible speech, return an empty response.\n"},
		{
			InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     data,
			},
		},
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Transcribe: generate content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

var _ audio.Transcriber = (*Client)(nil)
