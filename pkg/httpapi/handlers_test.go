package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rayied/cora/pkg/apperrors"
	"github.com/rayied/cora/pkg/classifier"
	"github.com/rayied/cora/pkg/llm"
	"github.com/rayied/cora/pkg/models"
	"github.com/rayied/cora/pkg/prompt"
	"github.com/rayied/cora/pkg/qa"
	"github.com/rayied/cora/pkg/retriever"
	"github.com/rayied/cora/pkg/session"
	"github.com/rayied/cora/pkg/translator"
	"github.com/rayied/cora/pkg/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeStore struct {
	hits []models.Hit
}

func (s *fakeStore) Upsert(ctx context.Context, records []models.IndexedRecord) error { return nil }
func (s *fakeStore) Query(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]models.Hit, error) {
	return s.hits, nil
}
func (s *fakeStore) Count(ctx context.Context) (uint64, error) { return 0, nil }
func (s *fakeStore) Reset(ctx context.Context) error           { return nil }
func (s *fakeStore) Close() error                              { return nil }

type fakeLLM struct {
	tokens     []string
	jsonResult map[string]any
	jsonErr    error
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (map[string]any, error) {
	return f.jsonResult, f.jsonErr
}

func (f *fakeLLM) Stream(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (<-chan string, <-chan error) {
	tokens := make(chan string, len(f.tokens))
	errc := make(chan error, 1)
	for _, t := range f.tokens {
		tokens <- t
	}
	close(tokens)
	errc <- nil
	return tokens, errc
}

func (f *fakeLLM) EmbedText(ctx context.Context, text string) ([]float32, error) { return nil, nil }
func (f *fakeLLM) Close() error                                                  { return nil }

func newTestServer(hits []models.Hit, tokens []string, classifyResult map[string]any) *Server {
	store := &fakeStore{hits: hits}
	r := retriever.New(store, fakeEmbedder{})
	tr := translator.New("http://unused.invalid", 50*time.Millisecond)
	sm := session.New(30*time.Minute, 20)
	a := prompt.New()
	engine := qa.New(r, tr, sm, a, &fakeLLM{tokens: tokens}, qa.Options{
		ModelName:      "qwen2.5:7b",
		K:              3,
		Threshold:      0.3,
		MaxTurns:       20,
		TranslatorWait: 50 * time.Millisecond,
		RetrievalWait:  50 * time.Millisecond,
		WallClock:      time.Second,
	})
	cls := classifier.New(r, a, &fakeLLM{jsonResult: classifyResult}, "qwen2.5:7b", 3, 0.3)
	return NewServer(engine, cls)
}

func newTestServerWithClassifyErr(err error) *Server {
	store := &fakeStore{}
	r := retriever.New(store, fakeEmbedder{})
	tr := translator.New("http://unused.invalid", 50*time.Millisecond)
	sm := session.New(30*time.Minute, 20)
	a := prompt.New()
	engine := qa.New(r, tr, sm, a, &fakeLLM{}, qa.Options{ModelName: "qwen2.5:7b", K: 3, Threshold: 0.3, MaxTurns: 20, WallClock: time.Second})
	cls := classifier.New(r, a, &fakeLLM{jsonErr: err}, "qwen2.5:7b", 3, 0.3)
	return NewServer(engine, cls)
}

func validClassifyResult() map[string]any {
	return map[string]any{
		"detected_language":      "en",
		"detected_dialect":       "en",
		"category":               "billing",
		"issue_type":             "refund",
		"routing_department":     "billing-support",
		"sentiment":              "neutral",
		"recommended_article_ids": []any{"kb-1"},
		"summaries": map[string]any{
			"en": "refund question", "ar": "...", "ckb": "...", "kmr": "...",
		},
	}
}

func TestHandleHealth_ReturnsHealthyStatus(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
}

func TestHandleAsk_EmptyQuestionIsBadRequest(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":""}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAsk_MalformedBodyIsBadRequest(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`not json`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAsk_ZeroHitsReturnsLowConfidenceAnswer(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"What is quantum entanglement?","language":"en"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, models.ConfidenceLow, result.Confidence)
}

func TestHandleAsk_WithHitsReturnsAnswerAndSources(t *testing.T) {
	hits := []models.Hit{
		{RecordID: "r1", Text: "eSIM info", Similarity: 0.9, Metadata: models.Metadata{Type: "article", ArticleID: "kb-1", Title: "eSIM"}},
	}
	s := newTestServer(hits, []string{"Yes, ", "we do."}, nil)
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"Does Rayied support eSIM?","language":"en"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "Yes, we do.", result.Answer)
	require.Len(t, result.Sources, 1)
	require.NotEmpty(t, result.SessionID)
}

func TestHandleAskStream_EmitsChunksThenFinal(t *testing.T) {
	hits := []models.Hit{
		{RecordID: "r1", Text: "eSIM info", Similarity: 0.9, Metadata: models.Metadata{Type: "article", ArticleID: "kb-1", Title: "eSIM"}},
	}
	s := newTestServer(hits, []string{"Yes, ", "we do."}, nil)
	req := httptest.NewRequest(http.MethodPost, "/ask/stream", bytes.NewBufferString(`{"question":"Does Rayied support eSIM?","language":"en"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.True(t, len(lines) >= 2)

	var last streamChunk
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	require.NotNil(t, last.Final)
}

func TestHandleClassify_ValidRequestReturnsClassification(t *testing.T) {
	s := newTestServer(nil, nil, validClassifyResult())
	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString(`{"text":"I want a refund"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "billing", result.Category)
}

func TestHandleClassify_EmptyTextIsBadRequest(t *testing.T) {
	s := newTestServer(nil, nil, validClassifyResult())
	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString(`{"text":""}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleClassify_LLMValidationFailureIsInternalError(t *testing.T) {
	bad := validClassifyResult()
	delete(bad, "category")
	s := newTestServer(nil, nil, bad)
	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString(`{"text":"I want a refund"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleClassify_TimeoutErrorIsGatewayTimeout(t *testing.T) {
	s := newTestServerWithClassifyErr(apperrors.Timeout("classification timed out", nil))
	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString(`{"text":"I want a refund"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusGatewayTimeout, w.Code)
}
