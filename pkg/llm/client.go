// Package llm provides a uniform contract over the generative backend
// (C7, spec §4.7). The vector store's embedding capability is exposed
// through the same Client, since the examined backend (Ollama) answers
// both /generate and /embeddings behind one connection.
package llm

import "context"

// Options is the enumerated option surface from spec §4.7.
type Options struct {
	Model       string
	Temperature float32
	TopP        float32
	Seed        int
	NumPredict  int
	Format      string // "json" to request strict-JSON mode, else ""
}

// ClassificationOptions returns the default option set for classification
// prompts (spec §4.7).
func ClassificationOptions(model string) Options {
	return Options{
		Model:       model,
		Temperature: 0.4,
		TopP:        0.15,
		Seed:        42,
		NumPredict:  256,
		Format:      "json",
	}
}

// QAOptions returns the default option set for Q&A prompts (spec §4.7).
func QAOptions(model string) Options {
	return Options{
		Model:       model,
		Temperature: 0.3,
		TopP:        0.85,
		NumPredict:  400,
	}
}

// Client is the contract every handler depends on. GenerateJSON and
// Stream are the two operations spec §4.7 enumerates; EmbedText rounds
// out the surface C1 needs from the same backend.
type Client interface {
	// GenerateJSON performs a non-streaming generation in strict-JSON
	// mode, retrying once on parse failure with the same prompt before
	// surfacing an *apperrors.Error of kind KindLLM.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, opts Options) (map[string]any, error)

	// Stream produces a finite, non-restartable sequence of token chunks
	// ending at the model's stop condition. Cancelling ctx closes the
	// underlying connection and terminates both channels.
	Stream(ctx context.Context, systemPrompt, userPrompt string, opts Options) (<-chan string, <-chan error)

	// EmbedText generates a dense embedding vector for text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	Close() error
}
