package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
)

// suffixLemmatizer is a tiny stand-in for the dictionary backed lemmatizer.
type suffixLemmatizer struct{}

func (suffixLemmatizer) Lemma(word string) string {
	switch {
	case strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	}
	return word
}

func TestFrequencyExtractor(t *testing.T) {
	extractor := NewKeywordExtractor(nil)
	assert.Equal(t, StrategyFrequency, extractor.Strategy())

	got := extractor.Extract("Looking for a Python developer with AWS experience", 20)
	assert.Equal(t,
		[]string{"looking", "for", "python", "developer", "with", "aws", "experience"},
		models.Terms(got),
	)
}

func TestFrequencyExtractor_OrdersByCountThenFirstOccurrence(t *testing.T) {
	text := "Go, go and GO! Kubernetes; docker... docker kubernetes-operator"

	got := NewKeywordExtractor(nil).Extract(text, 10)
	require.NotEmpty(t, got)

	assert.Equal(t, models.Keyword{Term: "kubernetes", Count: 2}, got[0])
	assert.Equal(t, models.Keyword{Term: "docker", Count: 2}, got[1])
	assert.Equal(t, models.Keyword{Term: "and", Count: 1}, got[2])
	assert.Equal(t, models.Keyword{Term: "operator", Count: 1}, got[3])
	assert.NotContains(t, models.Terms(got), "go", "tokens of two characters or fewer are dropped")
}

func TestFrequencyExtractor_LimitsCount(t *testing.T) {
	got := NewKeywordExtractor(nil).Extract("alpha beta gamma delta epsilon", 2)
	assert.Equal(t, []string{"alpha", "beta"}, models.Terms(got))

	assert.Empty(t, NewKeywordExtractor(nil).Extract("alpha beta", 0))
	assert.Empty(t, NewKeywordExtractor(nil).Extract("", 5))
}

func TestLinguisticExtractor(t *testing.T) {
	extractor := NewKeywordExtractor(suffixLemmatizer{})
	assert.Equal(t, StrategyLinguistic, extractor.Strategy())

	text := "We build APIs and APIs. Our teams manage databases; the team ships 3 features."
	got := extractor.Extract(text, 5)

	assert.Equal(t, []string{"api", "team", "build", "manage", "database"}, models.Terms(got))
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 2, got[1].Count)
	assert.NotContains(t, models.Terms(got), "3", "non alphabetic tokens are dropped")
	assert.NotContains(t, models.Terms(got), "we", "stop words are dropped")
}

func TestKeywordExtraction_IsIdempotent(t *testing.T) {
	text := "Senior Go engineer. Go services, gRPC services, Postgres, Kafka, Kafka streams."

	for _, extractor := range []KeywordExtractor{
		NewKeywordExtractor(nil),
		NewKeywordExtractor(suffixLemmatizer{}),
	} {
		t.Run(extractor.Strategy(), func(t *testing.T) {
			first := extractor.Extract(text, 4)
			second := extractor.Extract(text, 4)
			assert.Equal(t, first, second)
		})
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("with"))
	assert.False(t, IsStopWord("python"))
}
