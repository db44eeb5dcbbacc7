package services

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/resume-screener/internal/models"
)

const wordBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Python developer</w:t></w:r></w:p>
<w:p><w:r><w:t>AWS</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">Docker &amp; Go</w:t></w:r></w:p>
<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
</w:body>
</w:document>`

const wordRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": wordRels,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_EmptyContentYieldsEmptyText(t *testing.T) {
	extractor := NewTextExtractorService(nil)

	for _, name := range []string{"cv.pdf", "cv.docx", "cv.txt"} {
		t.Run(name, func(t *testing.T) {
			doc := models.NewUpload(name, []byte{})
			result := extractor.Extract(&doc)
			assert.Equal(t, "", result.Text)
			assert.True(t, result.Empty())
		})
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	extractor := NewTextExtractorService(zap.New(core))

	doc := models.NewUpload("cv.xlsx", []byte("whatever"))
	result := extractor.Extract(&doc)

	assert.Equal(t, "", result.Text)
	assert.ErrorIs(t, result.Err, ErrUnsupportedFormat)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "text extraction failed", logs.All()[0].Message)
}

func TestExtract_PlainText(t *testing.T) {
	extractor := NewTextExtractorService(nil)

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"utf8", []byte("Python developer\r\nAWS  \r\n\r\n\r\n\r\nDocker"), "Python developer\nAWS\n\nDocker"},
		{"utf8 bom", []byte("\xef\xbb\xbfhello"), "hello"},
		{"utf16le bom", []byte("\xff\xfeh\x00i\x00"), "hi"},
		{"invalid bytes dropped", []byte("caf\xe9 ok\xff"), "caf ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := models.NewUpload("cv.txt", tt.content)
			result := extractor.Extract(&doc)
			require.NoError(t, result.Err)
			assert.Equal(t, tt.want, result.Text)
		})
	}
}

func TestExtract_DOCXFromMemoryAndDisk(t *testing.T) {
	extractor := NewTextExtractorService(nil)
	data := buildDocx(t, wordBody)
	want := "Python developer\nAWS\tDocker & Go\nLine one\nLine two"

	upload := models.NewUpload("cv.docx", data)
	result := extractor.Extract(&upload)
	require.NoError(t, result.Err)
	assert.Equal(t, want, result.Text)

	path := filepath.Join(t.TempDir(), "stored.docx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	stored := models.NewFileDocument(path)
	result = extractor.Extract(&stored)
	require.NoError(t, result.Err)
	assert.Equal(t, want, result.Text)
}

func TestExtract_LeavesNoTemporaryFiles(t *testing.T) {
	pdf, err := BuildPDF(&models.ResultTable{JobName: "jd.txt"})
	require.NoError(t, err)

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	extractor := NewTextExtractorService(nil)
	uploads := []models.Document{
		models.NewUpload("cv.docx", buildDocx(t, wordBody)),
		models.NewUpload("cv.pdf", pdf),
		models.NewUpload("cv.txt", []byte("Go and Kafka")),
	}
	for i := range uploads {
		result := extractor.Extract(&uploads[i])
		require.NoError(t, result.Err, uploads[i].DisplayName())
		assert.NotEmpty(t, result.Text, uploads[i].DisplayName())
	}

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_CorruptDocumentsNeverFail(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	extractor := NewTextExtractorService(zap.New(core))

	for _, name := range []string{"cv.pdf", "cv.docx"} {
		doc := models.NewUpload(name, []byte("definitely not a real document"))
		result := extractor.Extract(&doc)
		assert.Equal(t, "", result.Text, name)
		assert.Error(t, result.Err, name)
	}
	assert.Equal(t, 2, logs.FilterMessage("text extraction failed").Len())
}

func TestExtract_MissingFile(t *testing.T) {
	doc := models.NewFileDocument(filepath.Join(t.TempDir(), "missing.txt"))
	result := NewTextExtractorService(nil).Extract(&doc)

	assert.Equal(t, "", result.Text)
	assert.Error(t, result.Err)
}

func TestExtract_PDF(t *testing.T) {
	data, err := BuildPDF(&models.ResultTable{JobName: "jd.txt"})
	require.NoError(t, err)

	doc := models.NewUpload("report.pdf", data)
	result := NewTextExtractorService(nil).Extract(&doc)

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.PageCount)
	assert.Contains(t, result.Text, "Matching Report")
}

func TestExtract_NilDocument(t *testing.T) {
	result := NewTextExtractorService(nil).Extract(nil)
	assert.Error(t, result.Err)
	assert.True(t, result.Empty())
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "", NormalizeText(""))
	assert.Equal(t, "a\n\nb", NormalizeText("  a \t\r\n\n\n\nb\n"))
	assert.Equal(t, "a\nb", NormalizeText("a\rb"))
}
