package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rayied/cora/pkg/models"
)

func TestPointID_DeterministicAndDistinct(t *testing.T) {
	a := pointID("article:kb-1:en:0")
	b := pointID("article:kb-1:en:0")
	c := pointID("article:kb-1:en:1")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestBuildFilter_EmptyReturnsNil(t *testing.T) {
	require.Nil(t, buildFilter(Filter{}))
}

func TestBuildFilter_OnlyPopulatedFieldsBecomeConditions(t *testing.T) {
	f := buildFilter(Filter{Language: "en"})
	require.NotNil(t, f)
	require.Len(t, f.Must, 1)

	f2 := buildFilter(Filter{Language: "en", AppName: "billing-app", Type: "article"})
	require.Len(t, f2.Must, 3)
}

func TestMetadataPayload_OmitsBlankOptionalFields(t *testing.T) {
	p := metadataPayload("rec-1", models.Metadata{Type: "article", Language: "en"})
	require.Equal(t, "rec-1", p["record_id"].GetStringValue())
	require.Equal(t, "article", p["type"].GetStringValue())
	require.Equal(t, "en", p["language"].GetStringValue())
	_, hasArticleID := p["article_id"]
	require.False(t, hasArticleID)
}

func TestMetadataPayload_IncludesPopulatedOptionalFields(t *testing.T) {
	p := metadataPayload("rec-2", models.Metadata{
		Type:         "document",
		ArticleID:    "kb-42",
		AppName:      "billing-app",
		Language:     "ar",
		Title:        "Refund policy",
		SourcePath:   "docs/refunds.pdf",
		ChunkOrdinal: 3,
	})
	require.Equal(t, "kb-42", p["article_id"].GetStringValue())
	require.Equal(t, "billing-app", p["app_name"].GetStringValue())
	require.Equal(t, "Refund policy", p["title"].GetStringValue())
	require.Equal(t, int64(3), p["chunk_ordinal"].GetIntegerValue())
}
