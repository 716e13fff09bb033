package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"vaxboard/pkg/contracts/domain"
)

// Column header names as they appear in the source file. Matching is
// case-insensitive and tolerant of surrounding whitespace.
const (
	headerCountry               = "country"
	headerDate                  = "date"
	headerTotalVaccinations     = "total_vaccinations"
	headerPeopleVaccinated      = "people_vaccinated"
	headerPeopleFullyVaccinated = "people_fully_vaccinated"
	headerDailyVaccinations     = "daily_vaccinations"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
}

// ParseFile reads a vaccination dataset from a CSV or Excel file and
// returns it as an immutable Dataset. The file format is chosen by
// extension; anything that is not .xlsx is treated as CSV.
func ParseFile(filePath string) (*domain.Dataset, error) {
	var (
		records []domain.VaccinationRecord
		err     error
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		records, err = parseExcel(filePath)
	default:
		records, err = parseCSV(filePath)
	}
	if err != nil {
		return nil, err
	}

	return domain.NewDataset(filePath, records), nil
}

func parseCSV(filePath string) ([]domain.VaccinationRecord, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file %s is empty", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columnMap, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.VaccinationRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		record, ok, err := parseRow(row, columnMap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if ok {
			records = append(records, record)
		}
	}

	return records, nil
}

func parseExcel(filePath string) ([]domain.VaccinationRecord, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Use the first sheet that carries the expected header row.
	var rows [][]string
	var sheetFound bool
	for _, name := range f.GetSheetList() {
		testRows, testErr := f.GetRows(name)
		if testErr != nil || len(testRows) == 0 {
			continue
		}
		rowText := strings.ToLower(strings.Join(testRows[0], " "))
		if strings.Contains(rowText, headerCountry) && strings.Contains(rowText, headerDate) {
			rows = testRows
			sheetFound = true
			break
		}
	}
	if !sheetFound {
		return nil, fmt.Errorf("could not find vaccination data sheet in %s", filePath)
	}

	columnMap, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []domain.VaccinationRecord
	for i, row := range rows[1:] {
		record, ok, err := parseRow(row, columnMap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if ok {
			records = append(records, record)
		}
	}

	return records, nil
}

// mapColumns resolves header names to column indexes. Extra columns in
// the source file are ignored; the country and date columns are required.
func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int, len(header))
	for i, name := range header {
		columnMap[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{headerCountry, headerDate} {
		if _, exists := columnMap[required]; !exists {
			return nil, fmt.Errorf("could not find required column: %s", required)
		}
	}

	return columnMap, nil
}

// parseRow converts a single data row. Rows with a blank country or date
// cell are skipped rather than rejected; blank metric cells become nil.
func parseRow(row []string, columnMap map[string]int) (domain.VaccinationRecord, bool, error) {
	country := cellAt(row, columnMap, headerCountry)
	dateStr := cellAt(row, columnMap, headerDate)
	if country == "" || dateStr == "" {
		return domain.VaccinationRecord{}, false, nil
	}

	date, err := parseDate(dateStr)
	if err != nil {
		return domain.VaccinationRecord{}, false, err
	}

	record := domain.VaccinationRecord{
		Country: country,
		Date:    date,
	}

	for name, dst := range map[string]**float64{
		headerTotalVaccinations:     &record.TotalVaccinations,
		headerPeopleVaccinated:      &record.PeopleVaccinated,
		headerPeopleFullyVaccinated: &record.PeopleFullyVaccinated,
		headerDailyVaccinations:     &record.DailyVaccinations,
	} {
		value, err := parseMetric(cellAt(row, columnMap, name), name)
		if err != nil {
			return domain.VaccinationRecord{}, false, err
		}
		*dst = value
	}

	return record, true, nil
}

func cellAt(row []string, columnMap map[string]int, name string) string {
	idx, exists := columnMap[name]
	if !exists || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func parseMetric(value, column string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric value %q in column %s", value, column)
	}
	return &parsed, nil
}
