package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/domain"
)

// Advise asks the model for one short, budget-aware reaction to a persisted
// transaction. Callers substitute a fixed fallback when this returns an
// error; the turn never ends without a reply.
func (c *Client) Advise(ctx context.Context, tx domain.Transaction, statusText string) (string, error) {
	prompt := "You are a friendly personal finance assistant.\n\n" +
		"The user just recorded this transaction:\n" +
		fmt.Sprintf("- kind: %s\n- amount: %.2f\n- category: %s\n- description: %s\n\n",
			tx.Kind, tx.Amount, tx.Category, tx.Description) +
		"Budget status: " + statusText + "\n\n" +
		"Reply with ONE short sentence (two at most) in the language of the\n" +
		"description: confirm the record and react to the budget status.\n" +
		"No markdown, no lists, no emoji spam.\n"

	reply, err := c.generateText(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("Advise: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

var _ assistant.Advisor = (*Client)(nil)
