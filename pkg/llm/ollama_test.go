package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateJSON_RetriesOnceOnBadJSON(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"response":"not json"}`))
			return
		}
		w.Write([]byte(`{"response":"{\"category\":\"billing\"}"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	out, err := c.GenerateJSON(context.Background(), "sys", "user", ClassificationOptions("qwen2.5:7b"))
	require.NoError(t, err)
	require.Equal(t, "billing", out["category"])
	require.Equal(t, 2, calls)
}

func TestGenerateJSON_FailsAfterTwoBadAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"still not json"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	_, err := c.GenerateJSON(context.Background(), "sys", "user", ClassificationOptions("qwen2.5:7b"))
	require.Error(t, err)
}

func TestStream_ForwardsTokensInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"Hel","done":false}` + "\n"))
		w.Write([]byte(`{"response":"lo","done":false}` + "\n"))
		w.Write([]byte(`{"response":"","done":true}` + "\n"))
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	tokens, errc := c.Stream(context.Background(), "sys", "user", QAOptions("qwen2.5:7b"))

	var got []string
	for tok := range tokens {
		got = append(got, tok)
	}
	require.NoError(t, <-errc)
	require.Equal(t, []string{"Hel", "lo"}, got)
}

func TestEmbedText_ReturnsVectorFromAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	vec, err := c.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedText_RetriesThenFailsOnPersistentError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	_, err := c.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestStream_CancellationClosesChannels(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"a","done":false}` + "\n"))
		flusher, ok := w.(http.Flusher)
		if ok {
			flusher.Flush()
		}
		<-r.Context().Done()
		close(block)
	}))
	defer srv.Close()

	c := NewOllamaClient("qwen2.5:7b", srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	tokens, errc := c.Stream(ctx, "sys", "user", QAOptions("qwen2.5:7b"))

	<-tokens
	cancel()

	for range tokens {
	}
	<-errc
}
