package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store/inmemory"
)

type fakeConversation struct {
	reply domain.ChatMessage
	err   error
	calls int
	last  string
}

func (c *fakeConversation) HandleMessage(ctx context.Context, text string) (domain.ChatMessage, error) {
	c.calls++
	c.last = text
	return c.reply, c.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return t.text, t.err
}

type fakeSynthesizer struct {
	pcm []byte
	err error
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.pcm, s.err
}

type fakeArchiver struct {
	clips int
}

func (a *fakeArchiver) Enqueue(data []byte, mimeType string) { a.clips++ }

func TestChat(t *testing.T) {
	conv := &fakeConversation{reply: domain.ChatMessage{ID: "r1", Role: domain.RoleAssistant, Content: "Recorded."}}
	h := NewChatHandler(conv, inmemory.NewStore(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"text":"spent 10 on food"}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spent 10 on food", conv.last)

	var reply domain.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Recorded.", reply.Content)
}

func TestChat_EmptyTextRejected(t *testing.T) {
	conv := &fakeConversation{}
	h := NewChatHandler(conv, inmemory.NewStore(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, conv.calls)
}

func TestListMessages(t *testing.T) {
	transcript := inmemory.NewStore()
	ctx := context.Background()
	require.NoError(t, transcript.AppendMessage(ctx, domain.ChatMessage{ID: "m1", Role: domain.RoleUser, Content: "hi", Timestamp: time.Now()}))

	h := NewChatHandler(&fakeConversation{}, transcript, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.ListMessages(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestVoiceChat(t *testing.T) {
	conv := &fakeConversation{reply: domain.ChatMessage{ID: "r1", Role: domain.RoleAssistant, Content: "Recorded."}}
	arch := &fakeArchiver{}
	h := NewVoiceHandler(conv, inmemory.NewStore(), &fakeTranscriber{text: "spent 10 on food"}, &fakeSynthesizer{}, arch, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/voice", bytes.NewReader([]byte{1, 2, 3}))
	req.Header.Set("Content-Type", "audio/webm")
	rec := httptest.NewRecorder()
	h.VoiceChat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, 1, arch.clips)

	var resp struct {
		Transcript string `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "spent 10 on food", resp.Transcript)
}

func TestVoiceChat_EmptyTranscriptSkipsTurn(t *testing.T) {
	conv := &fakeConversation{}
	h := NewVoiceHandler(conv, inmemory.NewStore(), &fakeTranscriber{text: ""}, &fakeSynthesizer{}, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/voice", bytes.NewReader([]byte{1}))
	req.Header.Set("Content-Type", "audio/ogg")
	rec := httptest.NewRecorder()
	h.VoiceChat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, conv.calls)
}

func TestVoiceChat_RequiresAudioBody(t *testing.T) {
	h := NewVoiceHandler(&fakeConversation{}, inmemory.NewStore(), &fakeTranscriber{}, &fakeSynthesizer{}, nil, zerolog.Nop())

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/voice", bytes.NewReader([]byte{1}))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.VoiceChat(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/voice", bytes.NewReader(nil))
		req.Header.Set("Content-Type", "audio/webm")
		rec := httptest.NewRecorder()
		h.VoiceChat(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSpeech(t *testing.T) {
	transcript := inmemory.NewStore()
	ctx := context.Background()
	require.NoError(t, transcript.AppendMessage(ctx, domain.ChatMessage{ID: "m1", Role: domain.RoleAssistant, Content: "Recorded.", Timestamp: time.Now()}))

	h := NewVoiceHandler(&fakeConversation{}, transcript, &fakeTranscriber{}, &fakeSynthesizer{pcm: []byte{1, 2, 3, 4}}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Speech(rec, httptest.NewRequest(http.MethodGet, "/api/messages/m1/speech", nil), "m1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", string(rec.Body.Bytes()[:4]))
}

func TestSpeech_UnknownMessage(t *testing.T) {
	h := NewVoiceHandler(&fakeConversation{}, inmemory.NewStore(), &fakeTranscriber{}, &fakeSynthesizer{}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Speech(rec, httptest.NewRequest(http.MethodGet, "/api/messages/nope/speech", nil), "nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_TransactionCRUD(t *testing.T) {
	st := inmemory.NewStore()
	h := NewRecordsHandler(st, zerolog.Nop())

	// Create
	body := `{"kind":"EXPENSE","amount":42.5,"category":"Food","description":"groceries"}`
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Update
	update := `{"kind":"EXPENSE","amount":50,"category":"Food","timestamp":"2025-03-07T10:00:00Z"}`
	rec = httptest.NewRecorder()
	h.UpdateTransaction(rec, httptest.NewRequest(http.MethodPut, "/api/transactions/"+created.ID, strings.NewReader(update)), created.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	// List
	rec = httptest.NewRecorder()
	h.ListTransactions(rec, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, 50.0, list.Transactions[0].Amount)

	// Delete
	rec = httptest.NewRecorder()
	h.DeleteTransaction(rec, httptest.NewRequest(http.MethodDelete, "/api/transactions/"+created.ID, nil), created.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Delete again -> 404
	rec = httptest.NewRecorder()
	h.DeleteTransaction(rec, httptest.NewRequest(http.MethodDelete, "/api/transactions/"+created.ID, nil), created.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_InvalidTransactionRejected(t *testing.T) {
	h := NewRecordsHandler(inmemory.NewStore(), zerolog.Nop())

	body := `{"kind":"EXPENSE","amount":-10,"category":"Food"}`
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_BudgetDefaultsPeriod(t *testing.T) {
	h := NewRecordsHandler(inmemory.NewStore(), zerolog.Nop())

	body := `{"category":"Food","limit":200}`
	rec := httptest.NewRecorder()
	h.CreateBudget(rec, httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var b domain.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, domain.PeriodMonthly, b.Period)
}

func TestRecords_SummaryAndReset(t *testing.T) {
	st := inmemory.NewStore()
	ctx := context.Background()
	require.NoError(t, st.AddTransaction(ctx, domain.Transaction{
		ID: "t1", Timestamp: time.Now(), Kind: domain.KindExpense, Amount: 30, Category: "Food",
	}))
	require.NoError(t, st.AddTransaction(ctx, domain.Transaction{
		ID: "t2", Timestamp: time.Now(), Kind: domain.KindIncome, Amount: 100, Category: "Salary",
	}))

	h := NewRecordsHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var s domain.FinancialSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 100.0, s.TotalIncome)
	assert.Equal(t, 30.0, s.TotalExpense)
	assert.Equal(t, 70.0, s.Balance)

	rec = httptest.NewRecorder()
	h.Reset(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Zero(t, s.TotalIncome)
	assert.Zero(t, s.TotalExpense)
}
