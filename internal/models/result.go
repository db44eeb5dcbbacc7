package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	KeywordSeparator = ", "
	SnippetSeparator = " | "
)

// Keyword is a salient term with its frequency in the source text.
type Keyword struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Terms returns the bare terms in order.
func Terms(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Term
	}
	return out
}

// Evidence is what a resume offers in support of a match.
type Evidence struct {
	Snippets        []string `json:"snippets"`
	MatchedKeywords []string `json:"matched_keywords"`
}

type MatchBand string

const (
	BandStrong   MatchBand = "strong"
	BandModerate MatchBand = "moderate"
	BandWeak     MatchBand = "weak"
)

// BandFor classifies a 0-100 match percentage for display.
func BandFor(percent float64) MatchBand {
	switch {
	case percent >= 70:
		return BandStrong
	case percent >= 40:
		return BandModerate
	default:
		return BandWeak
	}
}

type ResultRow struct {
	ResumeID        uuid.UUID `json:"resume_id,omitempty"`
	Resume          string    `json:"resume"`
	Score           float64   `json:"score"`
	Percent         float64   `json:"percent"`
	Band            MatchBand `json:"band"`
	MatchedKeywords []string  `json:"matched_keywords"`
	Snippets        []string  `json:"snippets"`
	Highlighted     string    `json:"highlighted,omitempty"`
}

func (r ResultRow) KeywordString() string {
	return strings.Join(r.MatchedKeywords, KeywordSeparator)
}

func (r ResultRow) SnippetString() string {
	return strings.Join(r.Snippets, SnippetSeparator)
}

// ResultTable holds rows ordered by score descending; ties keep input order.
type ResultTable struct {
	JobName  string      `json:"job_name"`
	Keywords []Keyword   `json:"keywords"`
	Rows     []ResultRow `json:"rows"`
}

type UploadResponse struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	OriginalName  string `json:"original_name"`
	CandidateName string `json:"candidate_name,omitempty"`
	Format        string `json:"format"`
}

type ScreeningResponse struct {
	ID      string `json:"id"`
	JobName string `json:"job_name"`
	Status  string `json:"status"`
}

type ResultResponse struct {
	ID           string       `json:"id"`
	JobName      string       `json:"job_name"`
	Status       string       `json:"status"`
	Result       *ResultTable `json:"result,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}
