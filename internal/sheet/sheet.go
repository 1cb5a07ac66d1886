// Package sheet reads and writes word lists as .xlsx or .csv spreadsheets,
// or as plain text lists in the batch format.
//
// The first row of a sheet is the header. Import looks for the columns
// "word" or "单词" for the primary form and "reading" or "假名" for the
// reading; other columns are ignored. Text lists carry only word and
// reading.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/kikitori/internal/batch"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// ExportSheet is the sheet name used for exported workbooks
const ExportSheet = "Words"

// Format is a spreadsheet file format
type Format int

const (
	CSV Format = iota
	XLSX
	Text
)

// Column keys, in lookup order
var (
	WordKeys    = []string{"word", "单词"}
	ReadingKeys = []string{"reading", "假名"}
)

// ExportHeader is the column order of exported files
var ExportHeader = []string{"id", "word", "reading", "date"}

// Row maps header names to cell values
type Row map[string]string

// FormatOf picks the format from the file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".xlsx", ".xlsm":
		return XLSX, nil
	case ".txt":
		return Text, nil
	default:
		return 0, fmt.Errorf("unsupported spreadsheet format: %s", filepath.Ext(path))
	}
}

// Import reads the file and returns entries stamped with date. Rows without
// a primary form are skipped.
func Import(path, date string) ([]wordstore.Entry, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Entries(rows, date), nil
}

// ReadFile reads all data rows of the file's first sheet
func ReadFile(path string) ([]Row, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return ReadRows(f, format)
}

// ReadRows decodes rows from r
func ReadRows(r io.Reader, format Format) ([]Row, error) {
	var records [][]string
	var err error

	switch format {
	case CSV:
		records, err = readCSV(r)
	case XLSX:
		records, err = readXLSX(r)
	case Text:
		records, err = readText(r)
	default:
		err = fmt.Errorf("unknown format %d", format)
	}
	if err != nil {
		return nil, err
	}

	return toRows(records), nil
}

// Entries maps rows onto store entries. The first non-empty value among the
// lookup keys wins.
func Entries(rows []Row, date string) []wordstore.Entry {
	var entries []wordstore.Entry
	for _, row := range rows {
		word := row.first(WordKeys)
		if word == "" {
			continue
		}
		entries = append(entries, wordstore.Entry{
			Word:    word,
			Reading: row.first(ReadingKeys),
			Date:    date,
		})
	}
	return entries
}

// Export writes words to path in the format given by its extension
func Export(path string, words []wordstore.Word) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteWords(f, format, words); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteWords encodes words with the export header
func WriteWords(w io.Writer, format Format, words []wordstore.Word) error {
	records := [][]string{ExportHeader}
	for _, word := range words {
		records = append(records, []string{word.ID, word.Word, word.Reading, word.Date})
	}
	return write(w, format, records)
}

// WriteTemplate writes an empty import template with one example row
func WriteTemplate(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	if err := WriteTemplateTo(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTemplateTo encodes the import template
func WriteTemplateTo(w io.Writer, format Format) error {
	records := [][]string{
		{WordKeys[0], ReadingKeys[0]},
		{"猫", "ねこ"},
	}
	return write(w, format, records)
}

func (r Row) first(keys []string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		// Excel saves UTF-8 CSV files with a byte order mark
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for _, record := range records[1:] {
		row := make(Row, len(header))
		empty := true
		for i, cell := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			row[header[i]] = cell
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return records, nil
}

func write(w io.Writer, format Format, records [][]string) error {
	switch format {
	case CSV:
		return writeCSV(w, records)
	case XLSX:
		return writeXLSX(w, records)
	case Text:
		return writeText(w, records)
	default:
		return fmt.Errorf("unknown format %d", format)
	}
}

func writeCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func readText(r io.Reader) ([][]string, error) {
	lines, err := batch.Parse(r)
	if err != nil {
		return nil, err
	}

	records := [][]string{{WordKeys[0], ReadingKeys[0]}}
	for _, l := range lines {
		records = append(records, []string{l.Word, l.Reading})
	}
	return records, nil
}

// writeText keeps the word and reading columns only
func writeText(w io.Writer, records [][]string) error {
	if len(records) == 0 {
		return nil
	}

	wordCol, readingCol := -1, -1
	for i, h := range records[0] {
		switch h {
		case WordKeys[0]:
			wordCol = i
		case ReadingKeys[0]:
			readingCol = i
		}
	}
	if wordCol < 0 {
		return errors.New("text word lists need a word column")
	}

	var lines []batch.Line
	for _, record := range records[1:] {
		l := batch.Line{Word: cell(record, wordCol)}
		if readingCol >= 0 {
			l.Reading = cell(record, readingCol)
		}
		lines = append(lines, l)
	}
	return batch.Write(w, lines)
}

func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
