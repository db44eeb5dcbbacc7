package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"alfredoptarigan/resume-screener/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// TextExtractorService turns a document into plain text. It never fails: a
// document that cannot be read yields empty text and a diagnostic in Err.
type TextExtractorService interface {
	Extract(doc *models.Document) *ExtractionResult
	SupportedFormats() []models.Format
}

type ExtractionResult struct {
	Text      string
	PageCount int
	Err       error
}

// Empty reports whether no usable text was extracted.
func (r *ExtractionResult) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

type textExtractorService struct {
	logger *zap.Logger
}

func NewTextExtractorService(logger *zap.Logger) TextExtractorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &textExtractorService{logger: logger}
}

func (t *textExtractorService) SupportedFormats() []models.Format {
	return []models.Format{models.FormatPDF, models.FormatDOCX, models.FormatText}
}

// Extract implements TextExtractorService.
func (t *textExtractorService) Extract(doc *models.Document) (result *ExtractionResult) {
	result = &ExtractionResult{}
	if doc == nil {
		result.Err = errors.New("nil document")
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result = &ExtractionResult{Err: fmt.Errorf("extraction panicked: %v", r)}
		}
		if result.Err != nil {
			t.logger.Warn("text extraction failed",
				zap.String("document", doc.DisplayName()),
				zap.String("format", string(doc.DeclaredFormat())),
				zap.Error(result.Err),
			)
		}
	}()

	format := doc.DeclaredFormat()
	if format == models.FormatUnknown {
		result.Err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.DisplayName())
		return result
	}

	var (
		text  string
		pages int
		err   error
	)
	switch format {
	case models.FormatPDF:
		text, pages, err = extractPDF(doc)
	case models.FormatDOCX:
		text, err = extractDOCX(doc)
	case models.FormatText:
		text, err = extractPlainText(doc)
	}
	if err != nil {
		result.Err = err
		return result
	}

	result.Text = NormalizeText(text)
	result.PageCount = pages
	return result
}

func extractPDF(doc *models.Document) (string, int, error) {
	var r *pdf.Reader

	if doc.Content == nil && doc.FilePath != "" {
		f, reader, err := pdf.Open(doc.FilePath)
		if err != nil {
			return "", 0, fmt.Errorf("failed to open PDF: %w", err)
		}
		defer f.Close()
		r = reader
	} else {
		if len(doc.Content) == 0 {
			return "", 0, nil
		}
		reader, err := pdf.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
		if err != nil {
			return "", 0, fmt.Errorf("failed to read PDF: %w", err)
		}
		r = reader
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), totalPage, nil
}

func extractDOCX(doc *models.Document) (string, error) {
	var (
		replaceDocx *docx.ReplaceDocx
		err         error
	)

	if doc.Content == nil && doc.FilePath != "" {
		replaceDocx, err = docx.ReadDocxFile(doc.FilePath)
	} else {
		if len(doc.Content) == 0 {
			return "", nil
		}
		replaceDocx, err = docx.ReadDocxFromMemory(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	}
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer replaceDocx.Close()

	return wordXMLToText(replaceDocx.Editable().GetContent())
}

// wordXMLToText flattens a WordprocessingML body: one line per paragraph,
// tabs and breaks kept, all other markup dropped.
func wordXMLToText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false

	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse DOCX body: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}

	return sb.String(), nil
}

func extractPlainText(doc *models.Document) (string, error) {
	data, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return decodeLenient(data), nil
}

// decodeLenient honours a UTF-8 or UTF-16 byte order mark and otherwise treats
// the input as UTF-8, dropping invalid byte sequences.
func decodeLenient(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data)
	if err != nil {
		decoded = data
	}
	return strings.ToValidUTF8(string(decoded), "")
}

var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// NormalizeText unifies line endings, trims trailing blanks on every line and
// collapses runs of blank lines.
func NormalizeText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	content = strings.Join(lines, "\n")
	content = excessiveBlankLines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
