package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/rayied/cora/pkg/apperrors"
)

// OllamaClient is a client that uses the Ollama HTTP API to interact with
// LLM models, generalizing the teacher's pkg/llm/ollama_client.go to the
// full Client interface (strict-JSON generation with one retry, and token
// streaming). Embeddings go through github.com/ollama/ollama/api directly,
// the way cmd/ollama-rag/main.go's setupOllamaClient/GetEmbeddingFromChunk
// do, rather than through the hand-rolled /api/generate request shape used
// for generation and streaming.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	apiClient  *api.Client
	modelName  string
}

type ollamaRequest struct {
	Model   string           `json:"model"`
	System  string           `json:"system,omitempty"`
	Prompt  string           `json:"prompt,omitempty"`
	Format  string           `json:"format,omitempty"`
	Stream  bool             `json:"stream"`
	Options ollamaReqOptions `json:"options,omitempty"`
}

type ollamaReqOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
	Seed        int     `json:"seed,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new client for interacting with an Ollama
// server at baseURL (e.g. "http://localhost:11434").
func NewOllamaClient(modelName string, baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
	}

	var apiClient *api.Client
	if parsed, err := url.Parse(baseURL); err == nil {
		apiClient = api.NewClient(parsed, httpClient)
	}

	return &OllamaClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiClient:  apiClient,
		modelName:  modelName,
	}
}

func (c *OllamaClient) modelOr(opts Options) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.modelName
}

func (c *OllamaClient) toReqOptions(opts Options) ollamaReqOptions {
	return ollamaReqOptions{
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Seed:        opts.Seed,
		NumPredict:  opts.NumPredict,
	}
}

// GenerateJSON requests strict-JSON generation and retries once, with the
// same prompt, if the model's response fails to parse as JSON (spec §4.7).
func (c *OllamaClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, opts Options) (map[string]any, error) {
	opts.Format = "json"
	req := ollamaRequest{
		Model:   c.modelOr(opts),
		System:  systemPrompt,
		Prompt:  userPrompt,
		Format:  "json",
		Stream:  false,
		Options: c.toReqOptions(opts),
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := c.sendGenerate(ctx, req)
		if err != nil {
			return nil, apperrors.LLM("ollama generate failed", err)
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}
	return nil, apperrors.LLM("model did not produce valid JSON after retry", lastErr)
}

// Stream generates a completion and forwards each token chunk on the
// returned channel as it arrives. Both channels close when generation
// ends, ctx is cancelled, or an error occurs.
func (c *OllamaClient) Stream(ctx context.Context, systemPrompt, userPrompt string, opts Options) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errc := make(chan error, 1)

	req := ollamaRequest{
		Model:   c.modelOr(opts),
		System:  systemPrompt,
		Prompt:  userPrompt,
		Stream:  true,
		Options: c.toReqOptions(opts),
	}

	go func() {
		defer close(tokens)
		defer close(errc)

		reqBody, err := json.Marshal(req)
		if err != nil {
			errc <- apperrors.LLM("marshal stream request", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
		if err != nil {
			errc <- apperrors.LLM("build stream request", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			errc <- apperrors.LLM("stream request failed", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errc <- apperrors.LLM(fmt.Sprintf("ollama status %d: %s", resp.StatusCode, body), nil)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			var chunk ollamaResponse
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				errc <- apperrors.LLM("parse stream chunk", err)
				return
			}
			if chunk.Response != "" {
				select {
				case tokens <- chunk.Response:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- apperrors.LLM("read stream", err)
		}
	}()

	return tokens, errc
}

// EmbedText generates a dense embedding for text via
// github.com/ollama/ollama/api's Embeddings call, making up to three
// attempts with exponential backoff the way
// cmd/ollama-rag/main.go's GetEmbeddingFromChunk does.
func (c *OllamaClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:  c.modelName,
		Prompt: text,
	}

	const maxRetries = 3
	baseDelay := time.Second
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.apiClient.Embeddings(ctx, req)
		if err == nil {
			embedding := make([]float32, len(resp.Embedding))
			for i, v := range resp.Embedding {
				embedding[i] = float32(v)
			}
			return embedding, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, apperrors.Embedding("embed request cancelled", ctx.Err())
		case <-time.After(time.Duration(math.Pow(2, float64(attempt))) * baseDelay):
		}
	}
	return nil, apperrors.Embedding("embed request failed after retries", lastErr)
}

func (c *OllamaClient) sendGenerate(ctx context.Context, req ollamaRequest) (string, error) {
	raw, err := c.sendRequest(ctx, "/api/generate", req)
	if err != nil {
		return "", err
	}
	var resp ollamaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	return resp.Response, nil
}

func (c *OllamaClient) sendRequest(ctx context.Context, endpoint string, req ollamaRequest) ([]byte, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// Close releases resources used by the client. The Ollama client is a
// plain HTTP client with no persistent connection to tear down.
func (c *OllamaClient) Close() error { return nil }
