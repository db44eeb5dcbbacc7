package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type ResultHandler struct {
	screeningRepo repositories.ScreeningRepository
	logger        *zap.Logger
}

func NewResultHandler(screeningRepo repositories.ScreeningRepository, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{
		screeningRepo: screeningRepo,
		logger:        logger,
	}
}

// HandleGetResult handles GET /screenings/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	screening, err := h.findScreening(c)
	if err != nil {
		return err
	}

	response := models.ResultResponse{
		ID:      screening.ID.String(),
		JobName: screening.JobName,
		Status:  string(screening.Status),
	}
	if screening.Status == models.StatusCompleted {
		response.Result = screening.ResultTable()
	}
	if screening.Status == models.StatusFailed && screening.ErrorMessage != "" {
		response.ErrorMessage = &screening.ErrorMessage
	}

	return c.JSON(response)
}

// HandleCSVReport handles GET /screenings/:id/report.csv
func (h *ResultHandler) HandleCSVReport(c *fiber.Ctx) error {
	return h.sendReport(c, "csv", services.ContentTypeCSV, services.BuildCSV)
}

// HandlePDFReport handles GET /screenings/:id/report.pdf
func (h *ResultHandler) HandlePDFReport(c *fiber.Ctx) error {
	return h.sendReport(c, "pdf", services.ContentTypePDF, services.BuildPDF)
}

func (h *ResultHandler) sendReport(c *fiber.Ctx, ext, contentType string, build func(*models.ResultTable) ([]byte, error)) error {
	screening, err := h.findScreening(c)
	if err != nil {
		return err
	}
	if screening.Status != models.StatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "screening is not completed",
			"status": screening.Status,
		})
	}

	data, err := build(screening.ResultTable())
	if err != nil {
		h.logger.Error("failed to build report", zap.String("format", ext), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build report")
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", services.ReportFilename(screening.JobName, ext)))
	return c.Send(data)
}

func (h *ResultHandler) findScreening(c *fiber.Ctx) (*models.Screening, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid screening ID format")
	}

	screening, err := h.screeningRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "screening not found")
		}
		h.logger.Error("failed to load screening", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load screening")
	}
	return screening, nil
}
