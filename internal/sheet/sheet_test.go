package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"words.csv", CSV, false},
		{"words.CSV", CSV, false},
		{"words.xlsx", XLSX, false},
		{"words.xlsm", XLSX, false},
		{"words.txt", Text, false},
		{"words.xls", 0, true},
		{"words", 0, true},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestEntriesKeyMapping(t *testing.T) {
	rows := []Row{
		{"word": "猫", "reading": "ねこ"},
		{"单词": "犬", "假名": "いぬ"},
		{"word": "", "单词": "鳥", "reading": "", "假名": "とり"},
		{"word": "魚", "单词": "ignored", "reading": "さかな", "假名": "ignored"},
		{"reading": "orphan"},
		{"word": "水"},
	}

	got := Entries(rows, "2024-5-1")
	want := []wordstore.Entry{
		{Word: "猫", Reading: "ねこ", Date: "2024-5-1"},
		{Word: "犬", Reading: "いぬ", Date: "2024-5-1"},
		{Word: "鳥", Reading: "とり", Date: "2024-5-1"},
		{Word: "魚", Reading: "さかな", Date: "2024-5-1"},
		{Word: "水", Reading: "", Date: "2024-5-1"},
	}
	assert.Equal(t, want, got)
}

func TestReadRowsCSV(t *testing.T) {
	input := "\ufeffword, reading ,note\n猫,ねこ,pet\n\n犬\n,,\n"

	rows, err := ReadRows(strings.NewReader(input), CSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"word": "猫", "reading": "ねこ", "note": "pet"}, rows[0])
	assert.Equal(t, "犬", rows[1]["word"])
	assert.Empty(t, rows[1]["reading"])
}

func TestReadRowsCSVInvalid(t *testing.T) {
	_, err := ReadRows(strings.NewReader("word\n\"unterminated\n"), CSV)
	assert.Error(t, err)
}

func TestReadRowsXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"单词", "假名"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"猫", "ねこ"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"犬"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadRows(&buf, XLSX)
	require.NoError(t, err)

	entries := Entries(rows, "2024-5-1")
	assert.Equal(t, []wordstore.Entry{
		{Word: "猫", Reading: "ねこ", Date: "2024-5-1"},
		{Word: "犬", Date: "2024-5-1"},
	}, entries)
}

func TestExportImportRoundTrip(t *testing.T) {
	words := []wordstore.Word{
		{ID: "1", Word: "猫", Reading: "ねこ", Date: "2024-5-1"},
		{ID: "2", Word: "犬", Reading: "", Date: "2024-5-2"},
	}

	for _, name := range []string{"words.csv", "words.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Export(path, words))

			rows, err := ReadFile(path)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "1", rows[0]["id"])
			assert.Equal(t, "2024-5-2", rows[1]["date"])

			entries, err := Import(path, "2025-1-1")
			require.NoError(t, err)
			assert.Equal(t, []wordstore.Entry{
				{Word: "猫", Reading: "ねこ", Date: "2025-1-1"},
				{Word: "犬", Date: "2025-1-1"},
			}, entries)
		})
	}
}

func TestExportImportText(t *testing.T) {
	words := []wordstore.Word{
		{ID: "1", Word: "猫", Reading: "ねこ", Date: "2024-5-1"},
		{ID: "2", Word: "犬", Reading: "", Date: "2024-5-2"},
	}

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, Export(path, words))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "猫 = ねこ\n犬\n", string(data))

	entries, err := Import(path, "2025-1-1")
	require.NoError(t, err)
	assert.Equal(t, []wordstore.Entry{
		{Word: "猫", Reading: "ねこ", Date: "2025-1-1"},
		{Word: "犬", Date: "2025-1-1"},
	}, entries)
}

func TestWriteTextNeedsWordColumn(t *testing.T) {
	var buf bytes.Buffer
	err := write(&buf, Text, [][]string{{"id"}, {"1"}})
	assert.Error(t, err)
}

func TestExportXLSXSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, Export(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheet}, f.GetSheetList())
	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{ExportHeader}, rows)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.csv")
	require.NoError(t, WriteTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "word,reading\n猫,ねこ\n", string(data))

	entries, err := Import(path, "2024-5-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteTemplateToXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplateTo(&buf, XLSX))

	rows, err := ReadRows(&buf, XLSX)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "猫", rows[0]["word"])
	assert.Equal(t, "ねこ", rows[0]["reading"])
}

func TestImportUnsupported(t *testing.T) {
	_, err := Import("words.doc", "2024-5-1")
	assert.Error(t, err)

	_, err = Import(filepath.Join(t.TempDir(), "missing.csv"), "2024-5-1")
	assert.Error(t, err)
}
