package services

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const DefaultAlpha = 0.7

// ResumeText is a resume already reduced to plain text.
type ResumeText struct {
	Name string
	Text string
}

// ScoredResume is a resume score in [0,1] and as a 0-100 percentage. Index is
// the resume's position in the input.
type ScoredResume struct {
	Index   int
	Name    string
	Score   float64
	Percent float64
}

// JobVector is a job description prepared once for scoring many resumes.
type JobVector struct {
	Text      string
	embedding []float32
}

type SimilarityScorer interface {
	Lexical(jd, resume string) float64
	Semantic(ctx context.Context, jd, resume string) float64
	Combined(ctx context.Context, jd, resume string) float64
	PrepareJob(ctx context.Context, jd string) *JobVector
	Score(ctx context.Context, job *JobVector, resume string) float64
	ScoreResumes(ctx context.Context, jd string, resumes []ResumeText) []ScoredResume
	SemanticAvailable() bool
}

type similarityScorer struct {
	embedder Embedder
	alpha    float64
	logger   *zap.Logger
}

// NewSimilarityScorer builds a scorer. A nil embedder means the semantic
// backend is unavailable and scores are purely lexical.
func NewSimilarityScorer(embedder Embedder, alpha float64, logger *zap.Logger) SimilarityScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &similarityScorer{
		embedder: embedder,
		alpha:    clamp01(alpha),
		logger:   logger,
	}
}

func (s *similarityScorer) SemanticAvailable() bool {
	return s.embedder != nil
}

// Lexical implements SimilarityScorer.
func (s *similarityScorer) Lexical(jd, resume string) float64 {
	return clamp01(tfidfCosine(tokenize(jd), tokenize(resume)))
}

// Semantic implements SimilarityScorer.
func (s *similarityScorer) Semantic(ctx context.Context, jd, resume string) float64 {
	return s.semantic(ctx, s.PrepareJob(ctx, jd), resume)
}

// Combined implements SimilarityScorer.
func (s *similarityScorer) Combined(ctx context.Context, jd, resume string) float64 {
	return s.Score(ctx, s.PrepareJob(ctx, jd), resume)
}

// PrepareJob embeds the job description once when the semantic backend is
// available. An embedding failure leaves the semantic measure at 0.
func (s *similarityScorer) PrepareJob(ctx context.Context, jd string) *JobVector {
	job := &JobVector{Text: jd}
	if s.embedder == nil || strings.TrimSpace(jd) == "" {
		return job
	}

	vec, err := s.embedder.Embed(ctx, jd)
	if err != nil {
		s.logger.Warn("job description embedding failed", zap.Error(err))
		return job
	}
	job.embedding = vec
	return job
}

// Score implements SimilarityScorer.
func (s *similarityScorer) Score(ctx context.Context, job *JobVector, resume string) float64 {
	if job == nil {
		return 0
	}
	lexical := s.Lexical(job.Text, resume)
	if s.embedder == nil {
		return lexical
	}
	semantic := s.semantic(ctx, job, resume)
	return clamp01(s.alpha*lexical + (1-s.alpha)*semantic)
}

// ScoreResumes scores every resume against jd and returns them sorted by
// percentage descending. Equal percentages keep input order.
func (s *similarityScorer) ScoreResumes(ctx context.Context, jd string, resumes []ResumeText) []ScoredResume {
	job := s.PrepareJob(ctx, jd)

	scored := make([]ScoredResume, len(resumes))
	for i, r := range resumes {
		score := s.Score(ctx, job, r.Text)
		scored[i] = ScoredResume{Index: i, Name: r.Name, Score: score, Percent: ToPercent(score)}
	}
	SortScored(scored)
	return scored
}

func (s *similarityScorer) semantic(ctx context.Context, job *JobVector, resume string) float64 {
	if s.embedder == nil || job == nil || job.embedding == nil || strings.TrimSpace(resume) == "" {
		return 0
	}
	vec, err := s.embedder.Embed(ctx, resume)
	if err != nil {
		s.logger.Warn("resume embedding failed", zap.Error(err))
		return 0
	}
	return clamp01(cosine32(job.embedding, vec))
}

// SortScored orders by the presented percentage descending. Resumes that
// show the same percentage keep their input order.
func SortScored(scored []ScoredResume) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Percent > scored[j].Percent
	})
}

// ToPercent scales a [0,1] score to a percentage rounded to two decimals.
func ToPercent(score float64) float64 {
	return math.Round(clamp01(score)*10000) / 100
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// tokenize lowercases text and returns word tokens of two or more characters
// with stop words removed.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if !IsStopWord(t) {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// tfidfCosine weights both documents with raw term frequency and smoothed idf
// over the two-document corpus, then returns the cosine of the L2-normalized
// vectors. An empty vocabulary scores 0.
func tfidfCosine(a, b []string) float64 {
	tfA := termCounts(a)
	tfB := termCounts(b)

	vocab := make([]string, 0, len(tfA)+len(tfB))
	for t := range tfA {
		vocab = append(vocab, t)
	}
	for t := range tfB {
		if _, ok := tfA[t]; !ok {
			vocab = append(vocab, t)
		}
	}
	if len(vocab) == 0 {
		return 0
	}
	sort.Strings(vocab)

	const n = 2.0
	var dot, normA, normB float64
	for _, t := range vocab {
		df := 0.0
		if tfA[t] > 0 {
			df++
		}
		if tfB[t] > 0 {
			df++
		}
		idf := math.Log((1+n)/(1+df)) + 1

		wa := float64(tfA[t]) * idf
		wb := float64(tfB[t]) * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

func cosine32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
