package decks

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"flashdeck/internal/models"
)

// readXLSX returns the rows of the first sheet of a workbook
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// parseRows turns a header row plus data rows into cards. Missing cells are
// empty strings and rows without an id are skipped.
func parseRows(rows [][]string) ([]models.Card, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}

	columns := make(map[string]int)
	for i, cell := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i := columns[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cards []models.Card
	for n, row := range rows[1:] {
		rawID := cell(row, "id")
		if rawID == "" {
			continue
		}
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q", ErrInvalidCardID, n+2, rawID)
		}
		cards = append(cards, models.Card{
			ID:          id,
			Front:       cell(row, "front"),
			Back:        cell(row, "back"),
			Explanation: cell(row, "explanation"),
			Example:     cell(row, "example"),
		})
	}

	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	return cards, nil
}

// parseID accepts integer ids, including spreadsheet floats such as "12.0"
func parseID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
