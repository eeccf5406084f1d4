package ai

import (
	"encoding/json"
	"testing"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"status":"ok"}`,
			want:  `{"status":"ok"}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"status\":\"ok\"}\n```",
			want:  `{"status":"ok"}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"status\":\"ok\"}\n```",
			want:  `{"status":"ok"}`,
		},
		{
			name:  "chatter around the object",
			input: "Sure! Here is the JSON:\n{\"status\":\"ok\"}\nHope that helps.",
			want:  `{"status":"ok"}`,
		},
		{
			name:  "leading whitespace",
			input: "   \n {\"a\":1} ",
			want:  `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.input); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func decode(t *testing.T, raw string) assistant.ParseResult {
	t.Helper()
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("test input is not valid JSON: %v", err)
	}
	return decodeParsedRecord(obj)
}

func TestDecodeParsedRecord(t *testing.T) {
	complete := `{"status":"ok","kind":"EXPENSE","amount":25,"category":"Alimentação",` +
		`"description":"café","date":"2025-07-04"}`

	res := decode(t, complete)
	if res.Status != assistant.ParseSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	rec := res.Record
	if rec.Kind != domain.KindExpense || rec.Amount != 25 || rec.Category != "Alimentação" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if got := rec.Date.Format("2006-01-02"); got != "2025-07-04" {
		t.Errorf("date = %s, want 2025-07-04", got)
	}
}

func TestDecodeParsedRecord_Incomplete(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"model flags incomplete", `{"status":"incomplete"}`},
		{"missing amount", `{"status":"ok","kind":"EXPENSE","category":"Food","description":"x","date":"2025-07-04"}`},
		{"zero amount", `{"status":"ok","kind":"EXPENSE","amount":0,"category":"Food","description":"x","date":"2025-07-04"}`},
		{"negative amount", `{"status":"ok","kind":"EXPENSE","amount":-3,"category":"Food","description":"x","date":"2025-07-04"}`},
		{"amount wrong type", `{"status":"ok","kind":"EXPENSE","amount":"25","category":"Food","description":"x","date":"2025-07-04"}`},
		{"missing category", `{"status":"ok","kind":"EXPENSE","amount":25,"description":"x","date":"2025-07-04"}`},
		{"empty category", `{"status":"ok","kind":"EXPENSE","amount":25,"category":"  ","description":"x","date":"2025-07-04"}`},
		{"unknown kind", `{"status":"ok","kind":"TRANSFER","amount":25,"category":"Food","description":"x","date":"2025-07-04"}`},
		{"bad date", `{"status":"ok","kind":"EXPENSE","amount":25,"category":"Food","description":"x","date":"July 4th"}`},
		{"missing status", `{"kind":"EXPENSE","amount":25,"category":"Food","description":"x","date":"2025-07-04"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := decode(t, tt.raw)
			if res.Status != assistant.ParseIncomplete {
				t.Errorf("status = %v, want incomplete", res.Status)
			}
			if res.Record != nil {
				t.Error("record must be nil for a non-success outcome")
			}
		})
	}
}

func TestDecodeParsedRecord_KindIsCaseInsensitive(t *testing.T) {
	res := decode(t, `{"status":"ok","kind":"income","amount":5000,"category":"Salary",`+
		`"description":"pay","date":"2025-07-01"}`)
	if res.Status != assistant.ParseSuccess {
		t.Fatalf("status = %v, want success", res.Status)
	}
	if res.Record.Kind != domain.KindIncome {
		t.Errorf("kind = %v, want INCOME", res.Record.Kind)
	}
}
