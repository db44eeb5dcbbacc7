package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/models"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, kind models.DocumentKind, candidateName string) (*models.Document, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
	now        func() time.Time
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
		now:        time.Now,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// SaveFile stores an upload under a unique name and returns the unsaved
// document record describing it.
func (s *storageService) SaveFile(file *multipart.FileHeader, kind models.DocumentKind, candidateName string) (*models.Document, error) {
	format := models.FormatFromFilename(file.Filename)
	if format == models.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(file.Filename))
	}

	label := string(kind)
	stem := CandidateFileStem(candidateName, s.now())
	if stem != "" {
		label += "_" + stem
	}
	uniqueFilename := fmt.Sprintf("%s_%s.%s", label, uuid.New().String(), format)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &models.Document{
		ID:               uuid.New(),
		Kind:             kind,
		CandidateName:    strings.TrimSpace(candidateName),
		CandidateStem:    stem,
		Filename:         uniqueFilename,
		OriginalFileName: filepath.Base(file.Filename),
		Format:           format,
		FilePath:         filePath,
	}, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filepath.Base(filename))
}

func (s *storageService) DeleteFile(filename string) error {
	if err := os.Remove(s.GetFilePath(filename)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

var nonNameChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// CandidateFileStem turns "Jane Q. Doe" into "Jane_Q_Doe_20240102_150405".
// An empty name yields an empty stem.
func CandidateFileStem(name string, at time.Time) string {
	cleaned := strings.Trim(nonNameChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if cleaned == "" {
		return ""
	}
	return cleaned + "_" + at.Format("20060102_150405")
}
