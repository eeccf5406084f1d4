package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/domain"
)

const parseDateFormat = "2006-01-02"

// Parse sends the free text to Gemini and returns a tagged parse outcome.
// It expects the model to return a STRICT JSON object. A returned error means
// the model call itself failed; malformed output or missing fields map onto
// ParseFailure/ParseIncomplete instead.
func (c *Client) Parse(ctx context.Context, text string, now time.Time) (assistant.ParseResult, error) {
	prompt := buildParsePrompt(text, now)

	raw, err := c.generateText(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		return assistant.ParseResult{}, fmt.Errorf("Parse: %w", err)
	}

	// Clean up Markdown fences / extra text if the model ignored instructions.
	clean := cleanModelJSON(raw)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return assistant.ParseResult{Status: assistant.ParseFailure}, nil
	}

	return decodeParsedRecord(obj), nil
}

func buildParsePrompt(text string, now time.Time) string {
	return "You are a transaction parser for a personal finance assistant.\n\n" +
		"Task:\n" +
		"- Extract ONE financial transaction from the user's message below.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a single JSON object.\n\n" +
		"The object must have these fields:\n" +
		"- \"status\": \"ok\" when every field below could be determined, otherwise \"incomplete\"\n" +
		"- \"kind\": \"EXPENSE\" or \"INCOME\"\n" +
		"- \"amount\": positive number\n" +
		"- \"category\": short label such as \"Food\", \"Transport\", \"Salary\"\n" +
		"- \"description\": short restatement of what the money was for\n" +
		"- \"date\": ISO format \"YYYY-MM-DD\"\n\n" +
		"Rules:\n" +
		"- Today's date is " + now.Format(parseDateFormat) + "; resolve relative dates against it.\n" +
		"- If no date is mentioned, use today's date.\n" +
		"- The user may write in any language; keep the category in the user's language.\n" +
		"- If the message contains no recognizable amount or purpose, set \"status\" to \"incomplete\".\n" +
		"- Return ONLY valid raw JSON.\n" +
		"- Do NOT wrap the response in code fences.\n" +
		"- Output must begin with \"{\" and end with \"}\".\n\n" +
		"User message:\n" + text + "\n"
}

// decodeParsedRecord validates the loosely-typed model output. Every required
// field is checked explicitly; a missing or mistyped field downgrades the
// outcome to Incomplete rather than letting a partial record through.
func decodeParsedRecord(obj map[string]interface{}) assistant.ParseResult {
	status, err := getStringField(obj, "status", true)
	if err != nil || status != "ok" {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	kindStr, err := getStringField(obj, "kind", true)
	if err != nil {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}
	kind := domain.TransactionKind(strings.ToUpper(strings.TrimSpace(kindStr)))
	if kind != domain.KindExpense && kind != domain.KindIncome {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	amount, err := getFloat64Field(obj, "amount", true)
	if err != nil || amount <= 0 {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	category, err := getStringField(obj, "category", true)
	if err != nil {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	description, err := getStringField(obj, "description", false)
	if err != nil {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}
	date, err := time.ParseInLocation(parseDateFormat, dateStr, time.Local)
	if err != nil {
		return assistant.ParseResult{Status: assistant.ParseIncomplete}
	}

	return assistant.ParseResult{
		Status: assistant.ParseSuccess,
		Record: &assistant.ParsedRecord{
			Kind:        kind,
			Amount:      amount,
			Category:    strings.TrimSpace(category),
			Description: strings.TrimSpace(description),
			Date:        date,
		},
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk, keeping only
// the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing required field %q", key)
		}
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int: // unlikely from encoding/json, but harmless to support
		return float64(val), nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

// Ensure Client satisfies the orchestrator's parser contract.
var _ assistant.Parser = (*Client)(nil)
