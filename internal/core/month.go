package core

import (
	"errors"
	"strings"
)

// Month is a calendar month, January = 1.
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

var ErrInvalidMonth = errors.New("invalid month")

var monthAbbrevs = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseMonth maps a three-letter abbreviation (case-insensitive) to a Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for i, abbr := range monthAbbrevs {
		if strings.EqualFold(s, abbr) {
			return Month(i + 1), nil
		}
	}
	return 0, ErrInvalidMonth
}

// MonthOf converts a 1-12 index to a Month.
func MonthOf(i int) (Month, error) {
	if i < 1 || i > 12 {
		return 0, ErrInvalidMonth
	}
	return Month(i), nil
}

// Valid reports whether m is one of the twelve months.
func (m Month) Valid() bool {
	return m >= January && m <= December
}

// String returns the three-letter abbreviation.
func (m Month) String() string {
	if !m.Valid() {
		return "Invalid"
	}
	return monthAbbrevs[m-1]
}
