package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
)

// ScreeningService runs a persisted screening job against every stored resume.
type ScreeningService interface {
	RunScreening(ctx context.Context, screeningID uuid.UUID) error
}

type screeningService struct {
	screeningRepo repositories.ScreeningRepository
	docRepo       repositories.DocumentRepository
	screener      ScreenerService
	concurrency   int
	logger        *zap.Logger
}

func NewScreeningService(
	screeningRepo repositories.ScreeningRepository,
	docRepo repositories.DocumentRepository,
	screener ScreenerService,
	concurrency int,
	logger *zap.Logger,
) ScreeningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &screeningService{
		screeningRepo: screeningRepo,
		docRepo:       docRepo,
		screener:      screener,
		concurrency:   concurrency,
		logger:        logger,
	}
}

// RunScreening implements ScreeningService. Pipeline failures are recorded on
// the screening; only bookkeeping failures are returned.
func (s *screeningService) RunScreening(ctx context.Context, screeningID uuid.UUID) error {
	log := s.logger.With(zap.String("screening_id", screeningID.String()))

	if err := s.screeningRepo.UpdateStatus(screeningID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	log.Info("screening started")

	screening, err := s.screeningRepo.FindByID(screeningID)
	if err != nil {
		return s.fail(log, screeningID, fmt.Errorf("failed to get screening: %w", err))
	}

	resumes, err := s.docRepo.FindByKind(models.KindResume)
	if err != nil {
		return s.fail(log, screeningID, fmt.Errorf("failed to load resumes: %w", err))
	}

	table, err := s.screener.Screen(ctx, &screening.JobDescription, resumes, ScreenOptions{
		KeywordCount: screening.KeywordCount,
		MaxSnippets:  screening.MaxSnippets,
		Skills:       screening.SkillList(),
		Concurrency:  s.concurrency,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Left queued so the poller picks it up after a restart.
			if qerr := s.screeningRepo.UpdateStatus(screeningID, models.StatusQueued); qerr != nil {
				log.Warn("failed to requeue cancelled screening", zap.Error(qerr))
			}
			return err
		}
		return s.fail(log, screeningID, err)
	}

	rows := models.NewScreeningResults(screeningID, table)
	if err := s.screeningRepo.SaveResults(screeningID, table.Keywords, rows); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Info("screening completed",
		zap.String("job", table.JobName),
		zap.Int("resumes", len(rows)),
	)
	return nil
}

func (s *screeningService) fail(log *zap.Logger, id uuid.UUID, cause error) error {
	log.Error("screening failed", zap.Error(cause))
	if err := s.screeningRepo.UpdateError(id, cause.Error()); err != nil {
		log.Error("failed to record screening error", zap.Error(err))
	}
	return cause
}
