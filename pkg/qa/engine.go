// Package qa orchestrates one Q&A request end to end: detect, retrieve,
// assemble, stream, translate, persist, attribute sources (spec §4.8),
// grounded on original_source/src/api/qa.py's answer_question and
// stream_answer_question.
package qa

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rayied/cora/pkg/apperrors"
	"github.com/rayied/cora/pkg/llm"
	"github.com/rayied/cora/pkg/models"
	"github.com/rayied/cora/pkg/prompt"
	"github.com/rayied/cora/pkg/retriever"
	"github.com/rayied/cora/pkg/session"
	"github.com/rayied/cora/pkg/translator"
	"github.com/rayied/cora/pkg/vectorstore"
)

const noInfoAnswer = "Don't have enough in front of me to answer that one. Our support team can dig in further."

// Engine orchestrates Q&A requests.
type Engine struct {
	retriever      *retriever.Retriever
	translator     *translator.Client
	sessions       *session.Manager
	assembler      *prompt.Assembler
	llmClient      llm.Client
	modelName      string
	k              int
	threshold      float64
	maxTurns       int
	translatorWait time.Duration
	retrievalWait  time.Duration
	wallClock      time.Duration
}

type Options struct {
	ModelName      string
	K              int
	Threshold      float64
	MaxTurns       int
	TranslatorWait time.Duration
	RetrievalWait  time.Duration
	WallClock      time.Duration
}

func New(r *retriever.Retriever, t *translator.Client, sm *session.Manager, a *prompt.Assembler, llmClient llm.Client, opts Options) *Engine {
	return &Engine{
		retriever:      r,
		translator:     t,
		sessions:       sm,
		assembler:      a,
		llmClient:      llmClient,
		modelName:      opts.ModelName,
		k:              opts.K,
		threshold:      opts.Threshold,
		maxTurns:       opts.MaxTurns,
		translatorWait: opts.TranslatorWait,
		retrievalWait:  opts.RetrievalWait,
		wallClock:      opts.WallClock,
	}
}

// Ask answers one question and returns the completed AnswerResult.
// Internally it runs the same pipeline as Stream, draining the token
// channel itself.
func (e *Engine) Ask(ctx context.Context, question, language, appName, sessionID string) (models.AnswerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.wallClock)
	defer cancel()

	tokens, final, err := e.Stream(ctx, question, language, appName, sessionID)
	if err != nil {
		return models.AnswerResult{}, err
	}
	for range tokens {
	}
	return <-final, nil
}

// Stream implements spec §4.8's ten-step pipeline, returning a channel
// of answer chunks and a channel that yields exactly one completed
// AnswerResult once streaming ends.
func (e *Engine) Stream(ctx context.Context, question, language, appName, sessionID string) (<-chan string, <-chan models.AnswerResult, error) {
	sess, _ := e.sessions.GetOrCreate(sessionID)

	// Detection and retrieval share no data, so spec §5 lets them run
	// concurrently rather than paying both round trips back to back.
	// Each goroutine owns a distinct variable and writes it exactly
	// once, so the group needs no lock beyond errgroup's own Wait.
	detected := language
	var hits []models.Hit
	var retrieveErr error

	g, gctx := errgroup.WithContext(ctx)
	if detected == "" {
		g.Go(func() error {
			detectCtx, cancel := context.WithTimeout(gctx, e.translatorWait)
			defer cancel()
			if code, ok := e.translator.Detect(detectCtx, question); ok {
				detected = code
			} else {
				detected = "en"
			}
			return nil
		})
	}
	g.Go(func() error {
		// Retrieval-language policy: search in the source language and
		// translate only the final answer, rather than translating the
		// question to English first. This keeps one network round trip
		// out of the hot path and leans on the multilingual embedding
		// model's own cross-lingual strength.
		retrieveCtx, cancel := context.WithTimeout(gctx, e.retrievalWait)
		defer cancel()
		filter := vectorstore.Filter{AppName: appName}
		h, err := e.retriever.Retrieve(retrieveCtx, question, e.k, filter, e.threshold)
		if err != nil {
			retrieveErr = err
			return nil
		}
		hits = h
		return nil
	})
	_ = g.Wait()

	if retrieveErr != nil {
		hits = nil
	}

	tokens := make(chan string)
	final := make(chan models.AnswerResult, 1)

	if len(hits) == 0 {
		answer := noInfoAnswer
		if detected != "en" {
			if translated, ok := e.translator.Translate(ctx, noInfoAnswer, "en", detected); ok {
				answer = translated
			}
		}
		go func() {
			defer close(tokens)
			defer close(final)
			select {
			case tokens <- answer:
			case <-ctx.Done():
			}
			e.sessions.AppendExchange(sess.ID, question, answer)
			final <- models.AnswerResult{
				Answer:        answer,
				Sources:       []models.Source{},
				Confidence:    models.ConfidenceLow,
				RetrievedDocs: 0,
				SessionID:     sess.ID,
			}
		}()
		return tokens, final, nil
	}

	contextBlock := retriever.FormatContext(hits)
	history := prompt.FormatHistory(e.sessions.History(sess.ID, e.maxTurns))
	systemPrompt, userPrompt, err := e.assembler.AssembleQA(contextBlock, history, question)
	if err != nil {
		close(tokens)
		close(final)
		return tokens, final, apperrors.LLM("assemble qa prompt", err)
	}

	confidence := confidenceFor(hits)
	sources := sourcesFrom(hits)

	modelTokens, errc := e.llmClient.Stream(ctx, systemPrompt, userPrompt, llm.QAOptions(e.modelName))

	go func() {
		defer close(tokens)
		defer close(final)

		var full strings.Builder
		for tok := range modelTokens {
			full.WriteString(tok)
			select {
			case tokens <- tok:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errc; err != nil {
			final <- models.AnswerResult{
				Answer:     "Ran into a snag generating that answer. Mind trying again?",
				Confidence: models.ConfidenceLow,
				SessionID:  sess.ID,
			}
			return
		}

		answer := full.String()
		if detected != "en" {
			if outLang, ok := e.translator.Detect(ctx, answer); ok && outLang != detected {
				if translated, ok := e.translator.Translate(ctx, answer, outLang, detected); ok {
					answer = translated
				}
			}
		}

		e.sessions.AppendExchange(sess.ID, question, answer)

		final <- models.AnswerResult{
			Answer:        answer,
			Sources:       sources,
			Confidence:    confidence,
			RetrievedDocs: len(hits),
			SessionID:     sess.ID,
		}
	}()

	return tokens, final, nil
}

// confidenceFor buckets by the top hit's similarity (spec §4.8 step 5),
// not an average across hits.
func confidenceFor(hits []models.Hit) models.Confidence {
	if len(hits) == 0 {
		return models.ConfidenceLow
	}
	top := hits[0].Similarity
	switch {
	case top >= 0.8:
		return models.ConfidenceHigh
	case top >= 0.6:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func sourcesFrom(hits []models.Hit) []models.Source {
	sources := make([]models.Source, 0, len(hits))
	seenArticles := make(map[string]bool)
	for _, h := range hits {
		if h.Metadata.Type == "article" {
			if h.Metadata.ArticleID != "" {
				if seenArticles[h.Metadata.ArticleID] {
					continue
				}
				seenArticles[h.Metadata.ArticleID] = true
			}
			sources = append(sources, models.Source{
				Type:       "article",
				ArticleID:  h.Metadata.ArticleID,
				Title:      h.Metadata.Title,
				App:        h.Metadata.AppName,
				Similarity: round3(float64(h.Similarity)),
			})
		} else {
			sources = append(sources, models.Source{
				Type:       h.Metadata.Type,
				Title:      h.Metadata.SourcePath,
				Similarity: round3(float64(h.Similarity)),
			})
		}
	}
	return sources
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
