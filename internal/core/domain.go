package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names expected in the source dataset.
const (
	ColumnYear     = "Year"
	ColumnMonth    = "Month"
	ColumnCategory = "Category"
	ColumnMaterial = "Material Type"
	ColumnWeight   = "Weight (lbs)"
)

// UnknownCategory replaces an empty category.
const UnknownCategory = "Unknown"

type (
	// RawRecord is one source row before validation. All fields are the
	// untrimmed strings found in the dataset.
	RawRecord struct {
		Year     string
		Month    string
		Category string
		Material string
		Weight   string
	}

	// YearMonth identifies a calendar month. Its string form is YYYY-MM.
	YearMonth struct {
		Year  int
		Month Month
	}

	// Observation is a validated waste-collection record.
	Observation struct {
		Year     int
		Month    Month
		Category string
		Material string
		Weight   float64 // pounds, never negative
	}
)

var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidWeight  = errors.New("invalid weight")
	ErrMissingColumns = errors.New("missing required columns")
)

// Key returns the month the observation belongs to.
func (o Observation) Key() YearMonth {
	return YearMonth{Year: o.Year, Month: o.Month}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Before reports whether ym is chronologically earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// ParseYearMonth parses the YYYY-MM form produced by String.
func ParseYearMonth(s string) (YearMonth, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("parse year-month %q: missing separator", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, ErrInvalidYear)
	}
	mi, err := strconv.Atoi(m)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, ErrInvalidMonth)
	}
	month, err := MonthOf(mi)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// RecordFromColumns builds a RawRecord from a header row and a data row.
// Columns are matched by name, so their order in the source does not matter.
// Short rows yield empty fields.
func RecordFromColumns(idx ColumnIndex, row []string) RawRecord {
	get := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return RawRecord{
		Year:     get(idx.Year),
		Month:    get(idx.Month),
		Category: get(idx.Category),
		Material: get(idx.Material),
		Weight:   get(idx.Weight),
	}
}

// ColumnIndex holds the position of each known column in a header row, -1
// when absent.
type ColumnIndex struct {
	Year, Month, Category, Material, Weight int
}

// IndexColumns locates the dataset columns in header. Year, Month and Weight
// are mandatory; Category and Material may be absent.
func IndexColumns(header []string) (ColumnIndex, error) {
	idx := ColumnIndex{
		Year:     indexOf(header, ColumnYear),
		Month:    indexOf(header, ColumnMonth),
		Category: indexOf(header, ColumnCategory),
		Material: indexOf(header, ColumnMaterial),
		Weight:   indexOf(header, ColumnWeight),
	}
	var missing []string
	if idx.Year == -1 {
		missing = append(missing, ColumnYear)
	}
	if idx.Month == -1 {
		missing = append(missing, ColumnMonth)
	}
	if idx.Weight == -1 {
		missing = append(missing, ColumnWeight)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumns, strings.Join(missing, ","), header)
	}
	return idx, nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		// Spreadsheets exported with a BOM carry it on the first header cell.
		v = strings.TrimPrefix(v, "\uFEFF")
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}
