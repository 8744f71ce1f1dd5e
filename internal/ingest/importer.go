package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexibot/internal/database"
	"github.com/example/lexibot/pkg/models"
)

// maxDay caps the day counter: the source lists are 28-day programs and
// anything beyond is folded into the last day.
const maxDay = 28

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	SheetName     string // Name of the sheet to import (Excel only)
	DayColumn     string // Column with the day number (optional)
	WordColumn    string // Column with the word
	IPAColumn     string // Column with the phonetic transcription
	MeaningColumn string // Column with the meaning
	ExampleColumn string // Column with the example sentence
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:     "Sheet1",
		DayColumn:     "A",
		WordColumn:    "B",
		IPAColumn:     "C",
		MeaningColumn: "D",
		ExampleColumn: "E",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Days           int
	Errors         []string
}

// ImportWords imports a word list from an Excel or CSV file, replaces the
// dataset wholesale and resets all learner progress: old indices and puzzle
// tiles are meaningless against new words.
func ImportWords(config ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error

	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSVRows(config.FilePath)
	} else {
		rows, err = readExcelRows(config)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	words := parseRows(rows, config, result)

	if len(words) == 0 {
		return result, fmt.Errorf("no words found in %s", config.FilePath)
	}

	wordRepo := database.NewWordRepository()
	if err := wordRepo.ReplaceAll(words); err != nil {
		return result, fmt.Errorf("failed to replace dataset: %v", err)
	}

	progressRepo := database.NewProgressRepository()
	if err := progressRepo.ResetAll(); err != nil {
		return result, fmt.Errorf("failed to reset progress: %v", err)
	}

	days := make(map[int]bool)
	for _, w := range words {
		days[w.Day] = true
	}
	result.Days = len(days)

	return result, nil
}

// readExcelRows loads all rows of the configured sheet
func readExcelRows(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

// readCSVRows loads all rows of a CSV file
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRows turns raw rows into ordered word records. The day comes from the
// day column when present, otherwise from "Day N" marker rows between word
// blocks.
func parseRows(rows [][]string, config ImportConfig, result *ImportResult) []models.Word {
	var words []models.Word
	currentDay := 1

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		if blankRow(row) {
			continue
		}

		if day, ok := DayMarker(strings.Join(row, " ")); ok {
			currentDay = capDay(day)
			continue
		}

		result.TotalProcessed++

		if day, ok := cellInt(row, config.DayColumn); ok {
			currentDay = capDay(day)
		}

		rawWord := cellValue(row, config.WordColumn)
		word, pos := ParseWordCell(rawWord)
		if word == "" || isHeaderWord(word) {
			result.Skipped++
			continue
		}

		meaning := strings.TrimSpace(cellValue(row, config.MeaningColumn))
		if meaning == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: word %q has no meaning", rowNum, word))
			result.Skipped++
			continue
		}

		words = append(words, models.Word{
			Day:          currentDay,
			Word:         word,
			PartOfSpeech: pos,
			IPA:          CleanIPA(cellValue(row, config.IPAColumn)),
			Meaning:      meaning,
			Example:      strings.TrimSpace(cellValue(row, config.ExampleColumn)),
		})
		result.Imported++
	}

	return words
}

var (
	wordCellRe  = regexp.MustCompile(`^([a-zA-Z\s\-/']+)\s*(\(.*\))?`)
	leadingNoRe = regexp.MustCompile(`^[\d.]+\s*`)
	dayMarkerRe = regexp.MustCompile(`(?i)\bday\s*(\d+)\b`)
)

// ParseWordCell cleans a raw word cell: leading numbering is stripped and a
// trailing "(pos.)" annotation is split off, e.g. "3. accept (v.)" ->
// ("accept", "(v.)").
func ParseWordCell(raw string) (word, pos string) {
	raw = leadingNoRe.ReplaceAllString(strings.TrimSpace(raw), "")
	m := wordCellRe.FindStringSubmatch(raw)
	if m == nil {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

// CleanIPA strips the surrounding slashes from a transcription cell.
func CleanIPA(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "/", ""))
}

// DayMarker recognizes "Day N" section rows that separate word blocks.
func DayMarker(text string) (int, bool) {
	m := dayMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 {
		return 0, false
	}
	return day, true
}

func capDay(day int) int {
	if day > maxDay {
		return maxDay
	}
	if day < 1 {
		return 1
	}
	return day
}

func isHeaderWord(word string) bool {
	switch strings.ToLower(word) {
	case "word", "vocabulary":
		return true
	}
	return false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellValue(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellInt(row []string, column string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(cellValue(row, column)))
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
