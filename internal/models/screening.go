package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScreeningStatus string

const (
	StatusQueued     ScreeningStatus = "queued"
	StatusProcessing ScreeningStatus = "processing"
	StatusCompleted  ScreeningStatus = "completed"
	StatusFailed     ScreeningStatus = "failed"
)

type Screening struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobDescriptionID uuid.UUID       `gorm:"type:uuid;not null" json:"job_description_id"`
	JobName          string          `gorm:"type:text" json:"job_name"`
	Status           ScreeningStatus `gorm:"not null;default:'queued'" json:"status"`
	KeywordCount     int             `gorm:"not null;default:20" json:"keyword_count"`
	MaxSnippets      int             `gorm:"not null;default:3" json:"max_snippets"`
	Skills           string          `gorm:"type:text" json:"skills,omitempty"`
	Keywords         []Keyword       `gorm:"type:text;serializer:json" json:"keywords,omitempty"`
	ErrorMessage     string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	JobDescription Document          `gorm:"foreignKey:JobDescriptionID" json:"-"`
	Results        []ScreeningResult `gorm:"foreignKey:ScreeningID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Screening) TableName() string {
	return "screenings"
}

// SkillList splits the comma separated Skills column.
func (s *Screening) SkillList() []string {
	return splitList(s.Skills)
}

// ScreeningResult is one persisted ResultRow. Rank preserves table order.
type ScreeningResult struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ScreeningID     uuid.UUID `gorm:"type:uuid;not null;index" json:"screening_id"`
	Rank            int       `gorm:"not null" json:"rank"`
	ResumeID        uuid.UUID `gorm:"type:uuid" json:"resume_id"`
	ResumeName      string    `gorm:"type:text" json:"resume_name"`
	Score           float64   `gorm:"not null" json:"score"`
	Percent         float64   `gorm:"type:decimal(5,2)" json:"percent"`
	MatchedKeywords []string  `gorm:"type:text;serializer:json" json:"matched_keywords"`
	Snippets        []string  `gorm:"type:text;serializer:json" json:"snippets"`
	Highlighted     string    `gorm:"type:text" json:"highlighted"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ScreeningResult) TableName() string {
	return "screening_results"
}

// NewScreeningResults flattens a table for persistence.
func NewScreeningResults(screeningID uuid.UUID, table *ResultTable) []ScreeningResult {
	if table == nil {
		return nil
	}
	out := make([]ScreeningResult, 0, len(table.Rows))
	for i, row := range table.Rows {
		out = append(out, ScreeningResult{
			ID:              uuid.New(),
			ScreeningID:     screeningID,
			Rank:            i + 1,
			ResumeID:        row.ResumeID,
			ResumeName:      row.Resume,
			Score:           row.Score,
			Percent:         row.Percent,
			MatchedKeywords: row.MatchedKeywords,
			Snippets:        row.Snippets,
			Highlighted:     row.Highlighted,
		})
	}
	return out
}

// ResultTable rebuilds the ranked table from a completed screening.
func (s *Screening) ResultTable() *ResultTable {
	table := &ResultTable{
		JobName: s.JobName,
		Rows:    make([]ResultRow, 0, len(s.Results)),
	}
	table.Keywords = append(table.Keywords, s.Keywords...)
	for _, r := range s.Results {
		table.Rows = append(table.Rows, ResultRow{
			ResumeID:        r.ResumeID,
			Resume:          r.ResumeName,
			Score:           r.Score,
			Percent:         r.Percent,
			Band:            BandFor(r.Percent),
			MatchedKeywords: r.MatchedKeywords,
			Snippets:        r.Snippets,
			Highlighted:     r.Highlighted,
		})
	}
	return table
}

// JoinList builds the comma separated Skills column.
func JoinList(items []string) string {
	return strings.Join(items, KeywordSeparator)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
