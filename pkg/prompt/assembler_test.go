package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rayied/cora/pkg/models"
)

func TestFormatHistory_EmptyReturnsEmptyString(t *testing.T) {
	require.Equal(t, "", FormatHistory(nil))
}

func TestFormatHistory_RendersCustomerAndYouLines(t *testing.T) {
	out := FormatHistory([]models.Turn{
		{Role: models.RoleUser, Content: "My phone has no signal."},
		{Role: models.RoleAssistant, Content: "Have you restarted it?"},
	})
	require.Equal(t, "Customer: My phone has no signal.\nYou: Have you restarted it?", out)
}

func TestAssembleQA_IncludesContextAndQuestion(t *testing.T) {
	a := New()
	system, user, err := a.AssembleQA("[Source 1] refund info", "Customer: hi\nYou: hello", "How do refunds work?")
	require.NoError(t, err)
	require.Contains(t, system, "[Source 1] refund info")
	require.Contains(t, system, "Rayied telecommunications")
	require.Contains(t, user, "How do refunds work?")
	require.Contains(t, user, "our conversation history")
}

func TestAssembleQA_OmitsHistoryClauseWhenNoHistory(t *testing.T) {
	a := New()
	_, user, err := a.AssembleQA("ctx", "", "Does Rayied support eSIM?")
	require.NoError(t, err)
	require.NotContains(t, user, "conversation history")
}

func TestAssembleClassification_IncludesRequiredSchemaKeys(t *testing.T) {
	a := New()
	system, user, err := a.AssembleClassification("[Source 1] billing article", "I want a refund")
	require.NoError(t, err)
	require.Contains(t, system, "recommended_article_ids")
	require.Contains(t, system, "summaries")
	require.Contains(t, system, "[Source 1] billing article")
	require.Contains(t, user, "I want a refund")
}
