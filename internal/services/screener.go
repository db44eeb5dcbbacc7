package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
)

var (
	ErrNoResumes           = errors.New("no resumes to screen")
	ErrEmptyJobDescription = errors.New("job description has no extractable text")
)

// Backends holds the optional process-wide capabilities. A nil field means
// the capability is unavailable and the baseline strategy is used.
type Backends struct {
	Lemmatizer Lemmatizer
	Embedder   Embedder
}

type ScreenOptions struct {
	KeywordCount int
	MaxSnippets  int
	Skills       []string
	Concurrency  int
}

const (
	DefaultKeywordCount = 20
	defaultConcurrency  = 4
)

func (o ScreenOptions) withDefaults() ScreenOptions {
	if o.KeywordCount <= 0 {
		o.KeywordCount = DefaultKeywordCount
	}
	if o.MaxSnippets <= 0 {
		o.MaxSnippets = DefaultMaxSnippets
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

// BatchResult is the outcome for one job description of a batch.
type BatchResult struct {
	JobName string
	Table   *models.ResultTable
	Err     error
}

// ScreenerService runs the matching pipeline: extract, pick keywords, score,
// collect evidence and rank.
type ScreenerService interface {
	Screen(ctx context.Context, jd *models.Document, resumes []models.Document, opts ScreenOptions) (*models.ResultTable, error)
	ScreenBatch(ctx context.Context, jds []models.Document, resumes []models.Document, opts ScreenOptions) []BatchResult
}

type screenerService struct {
	extractor TextExtractorService
	keywords  KeywordExtractor
	scorer    SimilarityScorer
	logger    *zap.Logger
}

func NewScreenerService(backends Backends, alpha float64, logger *zap.Logger) ScreenerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &screenerService{
		extractor: NewTextExtractorService(logger),
		keywords:  NewKeywordExtractor(backends.Lemmatizer),
		scorer:    NewSimilarityScorer(backends.Embedder, alpha, logger),
		logger:    logger,
	}
}

type extractedResume struct {
	doc  *models.Document
	text string
}

// Screen implements ScreenerService.
func (s *screenerService) Screen(ctx context.Context, jd *models.Document, resumes []models.Document, opts ScreenOptions) (*models.ResultTable, error) {
	opts = opts.withDefaults()
	if len(resumes) == 0 {
		return nil, ErrNoResumes
	}

	extracted, err := s.extractResumes(ctx, resumes, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	return s.screenJob(ctx, jd, extracted, opts)
}

// ScreenBatch implements ScreenerService. Resumes are extracted once and each
// job description is screened on its own; one failing does not affect the rest.
func (s *screenerService) ScreenBatch(ctx context.Context, jds []models.Document, resumes []models.Document, opts ScreenOptions) []BatchResult {
	opts = opts.withDefaults()
	results := make([]BatchResult, len(jds))

	var (
		extracted []extractedResume
		err       error
	)
	if len(resumes) == 0 {
		err = ErrNoResumes
	} else {
		extracted, err = s.extractResumes(ctx, resumes, opts.Concurrency)
	}

	for i := range jds {
		jd := &jds[i]
		results[i].JobName = jd.DisplayName()
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Table, results[i].Err = s.screenJob(ctx, jd, extracted, opts)
		if results[i].Err != nil {
			s.logger.Warn("job description screening failed",
				zap.String("job", results[i].JobName),
				zap.Error(results[i].Err),
			)
		}
	}
	return results
}

func (s *screenerService) extractResumes(ctx context.Context, resumes []models.Document, concurrency int) ([]extractedResume, error) {
	out := make([]extractedResume, len(resumes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range resumes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc := &resumes[i]
			out[i] = extractedResume{doc: doc, text: s.extractor.Extract(doc).Text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to extract resumes: %w", err)
	}
	return out, nil
}

func (s *screenerService) screenJob(ctx context.Context, jd *models.Document, resumes []extractedResume, opts ScreenOptions) (*models.ResultTable, error) {
	if jd == nil {
		return nil, ErrEmptyJobDescription
	}
	jobName := jd.DisplayName()

	extraction := s.extractor.Extract(jd)
	if extraction.Empty() {
		return nil, fmt.Errorf("%s: %w", jobName, ErrEmptyJobDescription)
	}

	keywords := s.keywords.Extract(extraction.Text, opts.KeywordCount)
	terms := models.Terms(keywords)
	job := s.scorer.PrepareJob(ctx, extraction.Text)

	s.logger.Debug("screening job description",
		zap.String("job", jobName),
		zap.String("strategy", s.keywords.Strategy()),
		zap.Bool("semantic", s.scorer.SemanticAvailable()),
		zap.Strings("keywords", terms),
		zap.String("preview", applog.TruncateForLog(extraction.Text, 120)),
	)

	rows := make([]models.ResultRow, len(resumes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range resumes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = s.buildRow(gctx, job, resumes[i], terms, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", jobName, err)
	}

	// Ranked on the displayed percentage so equal-looking rows keep input order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Percent > rows[j].Percent
	})

	return &models.ResultTable{
		JobName:  jobName,
		Keywords: keywords,
		Rows:     rows,
	}, nil
}

func (s *screenerService) buildRow(ctx context.Context, job *JobVector, resume extractedResume, terms []string, opts ScreenOptions) models.ResultRow {
	score := s.scorer.Score(ctx, job, resume.text)
	percent := ToPercent(score)
	snippets := ExtractSnippets(resume.text, terms, opts.MaxSnippets)

	return models.ResultRow{
		ResumeID:        resume.doc.ID,
		Resume:          resume.doc.DisplayName(),
		Score:           score,
		Percent:         percent,
		Band:            models.BandFor(percent),
		MatchedKeywords: MatchedKeywords(resume.text, terms),
		Snippets:        snippets,
		Highlighted:     Highlight(strings.Join(snippets, models.SnippetSeparator), terms, opts.Skills),
	}
}
