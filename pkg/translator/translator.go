// Package translator calls an external machine-translation service for
// language detection and bidirectional translation (spec §4.4). There is
// no teacher precedent for this component (a single-user proof of
// concept has no multilingual surface); it is written in the same
// net/http idiom the teacher uses for its Ollama client
// (pkg/llm/ollama_client.go), with a hard timeout and best-effort
// fallback semantics so a flaky translation backend never blocks an
// answer.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Client talks to a single external translation/detection endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout + time.Second},
		timeout:    timeout,
	}
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string `json:"language"`
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Text string `json:"text"`
}

// Detect returns the BCP-47-ish language code for text. On any failure —
// network error, non-200, malformed body — it returns ("", false)
// rather than an error the caller must branch on; spec §4.4 treats
// detection as best-effort decoration, never blocking correctness.
func (c *Client) Detect(ctx context.Context, text string) (code string, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp detectResponse
	if err := c.post(ctx, "/detect", detectRequest{Text: text}, &resp); err != nil {
		return "", false
	}
	tag, err := language.Parse(resp.Language)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// Translate returns text translated from src to dst. On any failure it
// returns the original text unchanged and ok=false — translation never
// blocks answer generation.
func (c *Client) Translate(ctx context.Context, text, src, dst string) (translated string, ok bool) {
	if src == dst {
		return text, true
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp translateResponse
	req := translateRequest{Text: text, Source: src, Target: dst}
	if err := c.post(ctx, "/translate", req, &resp); err != nil {
		return text, false
	}
	if resp.Text == "" {
		return text, false
	}
	return resp.Text, true
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("translator status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
