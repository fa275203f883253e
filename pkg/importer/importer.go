// Package importer reads customer rows from CSV or XLSX uploads.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column names expected on the header row. Matching ignores case and surrounding spaces.
const (
	ColumnName         = "name"
	ColumnPhone        = "phone"
	ColumnCustomerCode = "customer_code"
	ColumnTicketCount  = "ticket_count"
)

var requiredColumns = []string{ColumnName, ColumnPhone, ColumnCustomerCode, ColumnTicketCount}

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported import format")
	// ErrMissingColumns is returned when the header row lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrEmptyFile is returned when no header row is present.
	ErrEmptyFile = errors.New("import file is empty")
)

// Row is one data line of the upload. Line is the 1-based spreadsheet line, header included.
type Row struct {
	Line         int
	Name         string
	Phone        string
	CustomerCode string
	TicketCount  string
}

// Parse dispatches on the file extension.
func Parse(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseCSV reads a comma separated file, tolerating a UTF-8 BOM and ragged rows.
func ParseCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRecords(records)
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return fromRecords(records)
}

func fromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	index, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		cell := func(column string) string {
			pos := index[column]
			if pos >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[pos])
		}
		rows = append(rows, Row{
			Line:         i + 2,
			Name:         cell(ColumnName),
			Phone:        cell(ColumnPhone),
			CustomerCode: cell(ColumnCustomerCode),
			TicketCount:  cell(ColumnTicketCount),
		})
	}
	return rows, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(requiredColumns))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	missing := make([]string, 0)
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
