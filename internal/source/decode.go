// Package source holds the dataset loaders and the tabular decoders they
// share. Every loader returns raw records mapped by header name, so column
// order in the source does not matter.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"wastedash/internal/core"
)

// ErrEmptyDataset is returned when a source has no header row.
var ErrEmptyDataset = errors.New("dataset has no header row")

// Format is a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from the file extension of name. Anything that
// is not .xlsx is read as CSV.
func FormatOf(name string) Format {
	if strings.EqualFold(path.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Decode reads r in the given format.
func Decode(format Format, r io.Reader) ([]core.RawRecord, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r, "")
	default:
		return ReadCSV(r)
	}
}

// ReadCSV parses a CSV document whose first row is the header.
func ReadCSV(r io.Reader) ([]core.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return FromRows(rows)
}

// ReadXLSX reads the named worksheet, or the first one when sheet is empty.
func ReadXLSX(r io.Reader, sheet string) ([]core.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyDataset
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return FromRows(rows)
}

// FromRows maps a header row plus data rows to raw records. Blank rows are
// skipped.
func FromRows(rows [][]string) ([]core.RawRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	idx, err := core.IndexColumns(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]core.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, core.RecordFromColumns(idx, row))
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
