// Package classifier orchestrates one classification request: retrieve
// → assemble → call the LLM in strict-JSON mode → validate → return
// (spec §4.9), grounded on original_source/src/api/cora.py's
// get_json_classification.
package classifier

import (
	"context"
	"fmt"

	"github.com/rayied/cora/pkg/apperrors"
	"github.com/rayied/cora/pkg/llm"
	"github.com/rayied/cora/pkg/models"
	"github.com/rayied/cora/pkg/prompt"
	"github.com/rayied/cora/pkg/retriever"
	"github.com/rayied/cora/pkg/vectorstore"
)

// Classifier wires a Retriever, an Assembler, and an LLM client.
type Classifier struct {
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	llmClient llm.Client
	modelName string
	k         int
	threshold float64
}

func New(r *retriever.Retriever, a *prompt.Assembler, llmClient llm.Client, modelName string, k int, threshold float64) *Classifier {
	if k <= 0 {
		k = 3
	}
	return &Classifier{retriever: r, assembler: a, llmClient: llmClient, modelName: modelName, k: k, threshold: threshold}
}

// Classify implements spec §4.9's pipeline, ending in schema validation.
func (c *Classifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	contextBlock, _, err := c.retriever.RetrieveAndFormat(ctx, text, c.k, vectorstore.Filter{}, c.threshold)
	if err != nil {
		contextBlock = ""
	}

	systemPrompt, userPrompt, err := c.assembler.AssembleClassification(contextBlock, text)
	if err != nil {
		return models.ClassificationResult{}, apperrors.LLM("assemble classification prompt", err)
	}

	raw, err := c.llmClient.GenerateJSON(ctx, systemPrompt, userPrompt, llm.ClassificationOptions(c.modelName))
	if err != nil {
		return models.ClassificationResult{}, err
	}

	result, err := parseResult(raw)
	if err != nil {
		return models.ClassificationResult{}, apperrors.Validation("classification schema invalid", err)
	}
	return result, nil
}

func parseResult(raw map[string]any) (models.ClassificationResult, error) {
	required := []string{"detected_language", "detected_dialect", "category", "issue_type", "routing_department", "sentiment", "summaries"}
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			return models.ClassificationResult{}, fmt.Errorf("missing required key %q", key)
		}
	}

	summariesRaw, ok := raw["summaries"].(map[string]any)
	if !ok {
		return models.ClassificationResult{}, fmt.Errorf("summaries must be an object")
	}
	summaries := make(map[string]string, len(models.SupportedLanguages))
	for _, lang := range models.SupportedLanguages {
		v, ok := summariesRaw[lang]
		if !ok {
			return models.ClassificationResult{}, fmt.Errorf("summaries missing language %q", lang)
		}
		s, ok := v.(string)
		if !ok {
			return models.ClassificationResult{}, fmt.Errorf("summaries[%q] must be a string", lang)
		}
		summaries[lang] = s
	}
	if len(summariesRaw) != len(models.SupportedLanguages) {
		return models.ClassificationResult{}, fmt.Errorf("summaries must contain exactly the supported languages")
	}

	var articleIDs []string
	if raw["recommended_article_ids"] != nil {
		list, ok := raw["recommended_article_ids"].([]any)
		if !ok {
			return models.ClassificationResult{}, fmt.Errorf("recommended_article_ids must be a list")
		}
		for _, v := range list {
			s, ok := v.(string)
			if !ok {
				return models.ClassificationResult{}, fmt.Errorf("recommended_article_ids must contain only strings")
			}
			articleIDs = append(articleIDs, s)
		}
	}

	return models.ClassificationResult{
		DetectedLanguage:      asString(raw["detected_language"]),
		DetectedDialect:       asString(raw["detected_dialect"]),
		Category:              asString(raw["category"]),
		IssueType:             asString(raw["issue_type"]),
		RoutingDepartment:     asString(raw["routing_department"]),
		RecommendedArticleIDs: articleIDs,
		Sentiment:             asString(raw["sentiment"]),
		Summaries:             summaries,
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
