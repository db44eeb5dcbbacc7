package models

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	KindResume         DocumentKind = "resume"
	KindJobDescription DocumentKind = "job_description"
)

// Format is the declared document type, taken from the filename extension.
type Format string

const (
	FormatUnknown Format = ""
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatText    Format = "txt"
)

// FormatFromFilename maps a filename extension onto a supported Format.
func FormatFromFilename(name string) Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "txt", "text":
		return FormatText
	default:
		return FormatUnknown
	}
}

// Document is a single uploaded file. Content holds transient upload bytes and
// is never persisted; stored documents are read back from FilePath.
type Document struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Kind             DocumentKind `gorm:"type:text;index" json:"kind"`
	CandidateName    string       `gorm:"type:text" json:"candidate_name,omitempty"`
	CandidateStem    string       `gorm:"type:text" json:"candidate_stem,omitempty"`
	Filename         string       `gorm:"type:text" json:"filename"`
	OriginalFileName string       `gorm:"type:text" json:"original_filename"`
	Format           Format       `gorm:"type:text" json:"format"`
	FilePath         string       `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"updated_at"`

	Content []byte `gorm:"-" json:"-"`
}

func (d *Document) TableName() string {
	return "documents"
}

// NewUpload builds a transient document from in-memory bytes.
func NewUpload(name string, content []byte) Document {
	return Document{
		Filename:         name,
		OriginalFileName: name,
		Format:           FormatFromFilename(name),
		Content:          content,
	}
}

// NewFileDocument builds a document backed by a file on disk.
func NewFileDocument(path string) Document {
	name := filepath.Base(path)
	return Document{
		Filename:         name,
		OriginalFileName: name,
		Format:           FormatFromFilename(name),
		FilePath:         path,
	}
}

// DisplayName is the identifier shown in result tables. A named candidate is
// shown as Name_YYYYMMDD_HHMMSS with the document's extension.
func (d *Document) DisplayName() string {
	if d.CandidateStem != "" {
		if f := d.DeclaredFormat(); f != FormatUnknown {
			return d.CandidateStem + "." + string(f)
		}
		return d.CandidateStem
	}
	if d.OriginalFileName != "" {
		return d.OriginalFileName
	}
	return d.Filename
}

// DeclaredFormat returns Format, falling back to the filename extension.
func (d *Document) DeclaredFormat() Format {
	if d.Format != FormatUnknown {
		return d.Format
	}
	if f := FormatFromFilename(d.OriginalFileName); f != FormatUnknown {
		return f
	}
	return FormatFromFilename(d.Filename)
}

// Bytes returns the document content, reading FilePath when no content is held.
func (d *Document) Bytes() ([]byte, error) {
	if d.Content != nil {
		return d.Content, nil
	}
	return os.ReadFile(d.FilePath)
}
