package handlers

import (
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
	logger *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		logger:         logger,
	}
}

// HandleUploadResumes handles POST /resumes. Each file in the "resumes" field
// is stored separately; "candidate_name" is optional.
func (h *UploadHandler) HandleUploadResumes(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	files := form.File["resumes"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no files uploaded, send one or more 'resumes' as PDF, DOCX or TXT",
		})
	}

	candidateName := formValue(form, "candidate_name")

	var (
		documents []models.UploadResponse
		rejected  []fiber.Map
	)
	for _, file := range files {
		doc, err := h.store(file, models.KindResume, candidateName)
		if err != nil {
			rejected = append(rejected, fiber.Map{"file": file.Filename, "error": err.Error()})
			continue
		}
		documents = append(documents, uploadResponse(doc))
	}

	if len(documents) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "no valid files uploaded",
			"rejected": rejected,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": documents,
		"rejected":  rejected,
	})
}

// store saves one upload and its record, removing the file if the record
// cannot be written.
func (h *UploadHandler) store(file *multipart.FileHeader, kind models.DocumentKind, candidateName string) (*models.Document, error) {
	if file.Size > h.maxFileSize {
		return nil, fmt.Errorf("file too large, max size: %d bytes", h.maxFileSize)
	}

	doc, err := h.storageService.SaveFile(file, kind, candidateName)
	if err != nil {
		return nil, err
	}

	if err := h.docRepo.Create(doc); err != nil {
		if delErr := h.storageService.DeleteFile(doc.Filename); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("file", doc.Filename), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	h.logger.Info("document stored",
		zap.String("id", doc.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("file", doc.Filename),
	)
	return doc, nil
}

func uploadResponse(doc *models.Document) models.UploadResponse {
	return models.UploadResponse{
		ID:            doc.ID.String(),
		Filename:      doc.Filename,
		OriginalName:  doc.OriginalFileName,
		CandidateName: doc.CandidateName,
		Format:        string(doc.Format),
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
