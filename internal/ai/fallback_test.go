package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackSummary(t *testing.T) {
	short := "Step one. Step two."
	assert.Equal(t, short, FallbackSummary(short))

	long := strings.Repeat("word ", 100)
	summary := FallbackSummary(long)
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.LessOrEqual(t, len(summary), FallbackSummaryLen+3)
}

func TestFallbackTags(t *testing.T) {
	text := "deploy deploy deploy rollback rollback the restart"
	tags := FallbackTags(text, 2)

	assert.Equal(t, []string{"deploy", "rollback"}, tags)
}

func TestFallbackTagsSkipsStopwords(t *testing.T) {
	tags := FallbackTags("the quick fox and the lazy dog", 10)

	assert.NotContains(t, tags, "the")
	assert.NotContains(t, tags, "and")
	assert.Contains(t, tags, "quick")
}

func TestFallbackTagsDeterministic(t *testing.T) {
	text := "alpha beta gamma delta"
	assert.Equal(t, FallbackTags(text, 3), FallbackTags(text, 3))
}

func TestFallbackEmbedding(t *testing.T) {
	a := FallbackEmbedding("restart the api server")
	b := FallbackEmbedding("restart the api server")
	c := FallbackEmbedding("something else entirely")

	assert.Len(t, a, FallbackEmbeddingDim)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
