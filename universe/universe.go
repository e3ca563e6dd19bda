// Package universe loads instrument symbol lists from files and flag values.
package universe

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads a symbol list from path. Spreadsheets (.xlsx, .xlsm) read the
// first column of the first sheet, .csv files read the first field of each
// record, anything else is treated as one symbol per line.
func Load(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadSpreadsheet(path)
	case ".csv":
		return loadCsv(path)
	default:
		return loadLines(path)
	}
}

// ParseList splits a comma separated flag value into symbols.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}

func loadSpreadsheet(path string) ([]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening spreadsheet %s: %w", path, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", path)
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if trimmed := strings.TrimSpace(row[0]); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}

	return symbols, nil
}

func loadCsv(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening csv %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv %s: %w", path, err)
	}

	symbols := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		if trimmed := strings.TrimSpace(record[0]); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}

	return symbols, nil
}

func loadLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading symbol list %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	symbols := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}

	return symbols, nil
}
