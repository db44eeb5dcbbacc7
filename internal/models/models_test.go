package models

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestFormatFromFilename(t *testing.T) {
	tests := map[string]Format{
		"cv.pdf":        FormatPDF,
		"CV.PDF":        FormatPDF,
		"resume.docx":   FormatDOCX,
		"notes.txt":     FormatText,
		"notes.text":    FormatText,
		"legacy.doc":    FormatUnknown,
		"no-extension":  FormatUnknown,
		"archive.pdf.x": FormatUnknown,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, FormatFromFilename(name))
		})
	}
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandStrong, BandFor(70))
	assert.Equal(t, BandModerate, BandFor(69.99))
	assert.Equal(t, BandModerate, BandFor(40))
	assert.Equal(t, BandWeak, BandFor(39.99))
	assert.Equal(t, BandWeak, BandFor(0))
}

func TestDocument_DeclaredFormatAndDisplayName(t *testing.T) {
	doc := Document{Filename: "resume_1234.pdf", OriginalFileName: "Jane.pdf"}
	assert.Equal(t, FormatPDF, doc.DeclaredFormat())
	assert.Equal(t, "Jane.pdf", doc.DisplayName())

	doc = Document{Filename: "stored.txt"}
	assert.Equal(t, FormatText, doc.DeclaredFormat())
	assert.Equal(t, "stored.txt", doc.DisplayName())

	doc = Document{Filename: "stored.bin", Format: FormatDOCX}
	assert.Equal(t, FormatDOCX, doc.DeclaredFormat())
}

func TestDocument_DisplayNamePrefersCandidateStem(t *testing.T) {
	doc := Document{
		CandidateName:    "Jane Doe",
		CandidateStem:    "Jane_Doe_20240102_150405",
		Filename:         "resume_Jane_Doe_20240102_150405_0c4b.pdf",
		OriginalFileName: "My CV.pdf",
		Format:           FormatPDF,
	}
	assert.Equal(t, "Jane_Doe_20240102_150405.pdf", doc.DisplayName())

	doc.Format = FormatUnknown
	doc.OriginalFileName = "notes"
	doc.Filename = "stored"
	assert.Equal(t, "Jane_Doe_20240102_150405", doc.DisplayName())
}

func TestDocument_Bytes(t *testing.T) {
	upload := NewUpload("a.txt", []byte("inline"))
	data, err := upload.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "inline", string(data))

	path := filepath.Join(t.TempDir(), "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("on disk"), 0o644))
	stored := NewFileDocument(path)
	data, err = stored.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))
	assert.Equal(t, "b.txt", stored.DisplayName())
}

func TestScreeningResults_RoundTrip(t *testing.T) {
	screeningID := uuid.New()
	table := &ResultTable{
		JobName:  "jd.txt",
		Keywords: []Keyword{{Term: "go", Count: 2}, {Term: "kafka", Count: 1}},
		Rows: []ResultRow{
			{Resume: "r1.txt", Score: 0.81, Percent: 81, MatchedKeywords: []string{"go", "kafka"}, Snippets: []string{"Go services.", "Kafka streams."}},
			{Resume: "r2.txt", Score: 0.2, Percent: 20},
		},
	}

	rows := NewScreeningResults(screeningID, table)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, []string{"go", "kafka"}, rows[0].MatchedKeywords)
	assert.Equal(t, []string{"Go services.", "Kafka streams."}, rows[0].Snippets)

	screening := &Screening{JobName: "jd.txt", Keywords: table.Keywords, Results: rows}
	rebuilt := screening.ResultTable()

	assert.Equal(t, table.Keywords, rebuilt.Keywords)
	assert.Equal(t, table.Rows[0].MatchedKeywords, rebuilt.Rows[0].MatchedKeywords)
	assert.Equal(t, table.Rows[0].Snippets, rebuilt.Rows[0].Snippets)
	assert.Equal(t, BandStrong, rebuilt.Rows[0].Band)
	assert.Empty(t, rebuilt.Rows[1].MatchedKeywords)
	assert.Empty(t, rebuilt.Rows[1].Snippets)

	assert.Nil(t, NewScreeningResults(screeningID, nil))
}

// storeAndLoad writes one serialized column the way gorm does on save and
// scans it back into a zeroed field.
func storeAndLoad(t *testing.T, model any, column string) {
	t.Helper()
	ctx := context.Background()
	sch, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := sch.LookUpField(column)
	require.NotNil(t, field, column)
	require.NotNil(t, field.Serializer, column)

	dst := reflect.ValueOf(model)
	target := field.ReflectValueOf(ctx, dst)
	stored, err := field.Serializer.Value(ctx, field, dst, target.Interface())
	require.NoError(t, err)
	require.IsType(t, "", stored)

	target.Set(reflect.Zero(target.Type()))
	require.NoError(t, field.Serializer.Scan(ctx, field, dst, stored))
}

func TestScreeningColumns_SurviveStorage(t *testing.T) {
	snippets := []string{"Skills: Python | AWS | Docker", "Led the data, platform team"}
	matched := []string{"python", "aws"}
	result := &ScreeningResult{MatchedKeywords: matched, Snippets: snippets}
	storeAndLoad(t, result, "Snippets")
	storeAndLoad(t, result, "MatchedKeywords")
	assert.Equal(t, snippets, result.Snippets)
	assert.Equal(t, matched, result.MatchedKeywords)

	keywords := []Keyword{{Term: "python", Count: 3}, {Term: "aws", Count: 1}}
	screening := &Screening{Keywords: keywords}
	storeAndLoad(t, screening, "Keywords")
	assert.Equal(t, keywords, screening.Keywords)

	rebuilt := (&Screening{Keywords: screening.Keywords, Results: []ScreeningResult{*result}}).ResultTable()
	assert.Equal(t, 3, rebuilt.Keywords[0].Count)
	require.Len(t, rebuilt.Rows[0].Snippets, 2)
	assert.Equal(t, "Skills: Python | AWS | Docker", rebuilt.Rows[0].Snippets[0])
}

func TestScreening_SkillList(t *testing.T) {
	s := Screening{Skills: " Go, ,AWS ,kafka "}
	assert.Equal(t, []string{"Go", "AWS", "kafka"}, s.SkillList())
	assert.Empty(t, (&Screening{}).SkillList())
}
