package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

type ScreeningRepository interface {
	Create(screening *models.Screening) error
	FindByID(id uuid.UUID) (*models.Screening, error)
	UpdateStatus(id uuid.UUID, status models.ScreeningStatus) error
	SaveResults(id uuid.UUID, keywords []models.Keyword, results []models.ScreeningResult) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Screening, error)
}

type screeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) ScreeningRepository {
	return &screeningRepository{db: db}
}

func (r *screeningRepository) Create(screening *models.Screening) error {
	if err := r.db.Create(screening).Error; err != nil {
		return fmt.Errorf("failed to create screening: %w", err)
	}
	return nil
}

// FindByID loads a screening with its job description and ranked results.
func (r *screeningRepository) FindByID(id uuid.UUID) (*models.Screening, error) {
	var screening models.Screening
	err := r.db.
		Preload("JobDescription").
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Where("id = ?", id).
		First(&screening).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("screening %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find screening: %w", err)
	}
	return &screening, nil
}

func (r *screeningRepository) UpdateStatus(id uuid.UUID, status models.ScreeningStatus) error {
	result := r.db.Model(&models.Screening{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("screening %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveResults replaces any earlier rows and marks the screening completed in
// one transaction.
func (r *screeningRepository) SaveResults(id uuid.UUID, keywords []models.Keyword, results []models.ScreeningResult) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("screening_id = ?", id).Delete(&models.ScreeningResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
		if len(results) > 0 {
			if err := tx.Create(&results).Error; err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}
		}

		// A struct update so the keywords pass through the json serializer.
		result := tx.Model(&models.Screening{}).
			Where("id = ?", id).
			Select("status", "keywords", "error_message", "updated_at").
			Updates(&models.Screening{
				Status:    models.StatusCompleted,
				Keywords:  keywords,
				UpdatedAt: time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete screening: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("screening %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *screeningRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Screening{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("screening %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *screeningRepository) FindPendingJobs(limit int) ([]models.Screening, error) {
	var screenings []models.Screening
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&screenings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return screenings, nil
}
