package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type ScreeningDefaults struct {
	KeywordCount int
	MaxSnippets  int
}

type ScreeningHandler struct {
	uploads       *UploadHandler
	screeningRepo repositories.ScreeningRepository
	worker        services.Worker
	defaults      ScreeningDefaults
	logger        *zap.Logger
}

func NewScreeningHandler(
	uploads *UploadHandler,
	screeningRepo repositories.ScreeningRepository,
	worker services.Worker,
	defaults ScreeningDefaults,
	logger *zap.Logger,
) *ScreeningHandler {
	return &ScreeningHandler{
		uploads:       uploads,
		screeningRepo: screeningRepo,
		worker:        worker,
		defaults:      defaults,
		logger:        logger,
	}
}

// HandleCreateScreenings handles POST /screenings. Every file in the
// "job_descriptions" field becomes its own queued screening against all stored
// resumes. Optional fields: keyword_count, max_snippets, skills.
func (h *ScreeningHandler) HandleCreateScreenings(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	files := form.File["job_descriptions"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_descriptions is required",
		})
	}

	keywordCount, err := positiveInt(formValue(form, "keyword_count"), h.defaults.KeywordCount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "keyword_count must be a positive integer",
		})
	}
	maxSnippets, err := positiveInt(formValue(form, "max_snippets"), h.defaults.MaxSnippets)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "max_snippets must be a positive integer",
		})
	}
	skills := models.JoinList(splitSkills(formValue(form, "skills")))

	var (
		screenings []models.ScreeningResponse
		rejected   []fiber.Map
	)
	for _, file := range files {
		doc, err := h.uploads.store(file, models.KindJobDescription, "")
		if err != nil {
			rejected = append(rejected, fiber.Map{"file": file.Filename, "error": err.Error()})
			continue
		}

		screening := &models.Screening{
			ID:               uuid.New(),
			JobDescriptionID: doc.ID,
			JobName:          doc.DisplayName(),
			Status:           models.StatusQueued,
			KeywordCount:     keywordCount,
			MaxSnippets:      maxSnippets,
			Skills:           skills,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		if err := h.screeningRepo.Create(screening); err != nil {
			h.logger.Error("failed to create screening", zap.Error(err))
			rejected = append(rejected, fiber.Map{"file": file.Filename, "error": "failed to create screening job"})
			continue
		}

		h.worker.EnqueueJob(screening.ID)
		screenings = append(screenings, models.ScreeningResponse{
			ID:      screening.ID.String(),
			JobName: screening.JobName,
			Status:  string(models.StatusQueued),
		})
	}

	if len(screenings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "no screening could be created",
			"rejected": rejected,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"screenings": screenings,
		"rejected":   rejected,
	})
}

func positiveInt(raw string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return n, nil
}

func splitSkills(raw string) []string {
	var skills []string
	for _, s := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
