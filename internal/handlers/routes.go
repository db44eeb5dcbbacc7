package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Register mounts the API routes on router.
func Register(router fiber.Router, uploads *UploadHandler, screenings *ScreeningHandler, results *ResultHandler) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/resumes", uploads.HandleUploadResumes)
	router.Post("/screenings", screenings.HandleCreateScreenings)
	router.Get("/screenings/:id", results.HandleGetResult)
	router.Get("/screenings/:id/report.csv", results.HandleCSVReport)
	router.Get("/screenings/:id/report.pdf", results.HandlePDFReport)
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
