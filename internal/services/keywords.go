package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"

	"alfredoptarigan/resume-screener/internal/models"
)

// Lemmatizer reduces a lowercase word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// NewEnglishLemmatizer loads the English golem dictionary. It is slow to build
// and safe for concurrent use, so create it once per process.
func NewEnglishLemmatizer() (Lemmatizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load english lemmatizer: %w", err)
	}
	return lemmatizer, nil
}

type KeywordExtractor interface {
	Extract(text string, n int) []models.Keyword
	Strategy() string
}

const (
	StrategyLinguistic = "linguistic"
	StrategyFrequency  = "frequency"
)

// NewKeywordExtractor returns the linguistic strategy when a lemmatizer is
// supplied and the frequency fallback otherwise.
func NewKeywordExtractor(lemmatizer Lemmatizer) KeywordExtractor {
	if lemmatizer == nil {
		return &frequencyExtractor{}
	}
	return &linguisticExtractor{lemmatizer: lemmatizer}
}

type linguisticExtractor struct {
	lemmatizer Lemmatizer
}

func (l *linguisticExtractor) Strategy() string { return StrategyLinguistic }

// Extract implements KeywordExtractor.
func (l *linguisticExtractor) Extract(text string, n int) []models.Keyword {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" || !isAlphabetic(token) || IsStopWord(token) {
			continue
		}
		lemma := strings.ToLower(l.lemmatizer.Lemma(token))
		if lemma == "" || IsStopWord(lemma) {
			continue
		}
		terms = append(terms, lemma)
	}
	return topTerms(terms, n)
}

type frequencyExtractor struct{}

func (f *frequencyExtractor) Strategy() string { return StrategyFrequency }

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// Extract implements KeywordExtractor.
func (f *frequencyExtractor) Extract(text string, n int) []models.Keyword {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), " ")

	var terms []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) > 2 {
			terms = append(terms, token)
		}
	}
	return topTerms(terms, n)
}

// topTerms counts terms and returns the n most frequent, ties in first
// occurrence order.
func topTerms(terms []string, n int) []models.Keyword {
	if n <= 0 || len(terms) == 0 {
		return []models.Keyword{}
	}

	counts := make(map[string]int, len(terms))
	var order []string
	for _, t := range terms {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	keywords := make([]models.Keyword, len(order))
	for i, t := range order {
		keywords[i] = models.Keyword{Term: t, Count: counts[t]}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})

	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
