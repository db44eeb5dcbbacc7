package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"alfredoptarigan/resume-screener/internal/models"
)

const (
	ContentTypeCSV = "text/csv"
	ContentTypePDF = "application/pdf"

	maxReportSnippet = 500
)

var csvHeader = []string{"Resume", "Match %", "Matching Keywords", "Snippet"}

// ReportFilename names a report after the job description it belongs to.
func ReportFilename(jobName, ext string) string {
	base := filepath.Base(strings.ReplaceAll(jobName, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "screening"
	}
	return fmt.Sprintf("%s_results.%s", base, strings.TrimPrefix(ext, "."))
}

// BuildCSV writes a header and one row per result. Markup is stripped.
func BuildCSV(table *models.ResultTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range tableRows(table) {
		record := []string{
			StripMarkup(row.Resume),
			strconv.FormatFloat(row.Percent, 'f', 2, 64),
			StripMarkup(row.KeywordString()),
			StripMarkup(row.SnippetString()),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPDF renders a title followed by one block per result in table order.
// An empty table yields a title-only document.
func BuildPDF(table *models.ResultTable) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf rendering panicked: %v", r)
		}
	}()

	jobName := ""
	if table != nil {
		jobName = table.JobName
	}
	title := "Matching Report - " + jobName

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 10, tr(title), "", "C", false)
	doc.Ln(4)

	for i, row := range tableRows(table) {
		doc.SetFont("Helvetica", "B", 12)
		heading := fmt.Sprintf("%d. %s - Match: %.2f%%", i+1, StripMarkup(row.Resume), row.Percent)
		doc.MultiCell(0, 7, tr(heading), "", "L", false)

		doc.SetFont("Helvetica", "", 10)
		if keywords := StripMarkup(row.KeywordString()); keywords != "" {
			doc.MultiCell(0, 6, tr("Keywords: "+keywords), "", "L", false)
		}

		snippet := truncateRunes(StripMarkup(row.SnippetString()), maxReportSnippet)
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 6, tr(snippet), "", "L", false)
		doc.Ln(3)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tableRows(table *models.ResultTable) []models.ResultRow {
	if table == nil {
		return nil
	}
	return table.Rows
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
