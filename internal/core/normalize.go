// Package core holds the waste-collection domain types and the record
// normalizer that turns raw dataset rows into validated observations.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rejections counts dropped records per reason.
type Rejections struct {
	MissingField  int
	InvalidYear   int
	InvalidMonth  int
	InvalidWeight int
}

// Total returns the number of dropped records.
func (r Rejections) Total() int {
	return r.MissingField + r.InvalidYear + r.InvalidMonth + r.InvalidWeight
}

func (r *Rejections) add(err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		r.MissingField++
	case errors.Is(err, ErrInvalidYear):
		r.InvalidYear++
	case errors.Is(err, ErrInvalidMonth):
		r.InvalidMonth++
	case errors.Is(err, ErrInvalidWeight):
		r.InvalidWeight++
	}
}

// Normalize validates a raw record and converts it into an Observation.
//
// A record missing year, month or weight is rejected with ErrMissingField.
// Fields that are present but unparsable are rejected with ErrInvalidYear,
// ErrInvalidMonth or ErrInvalidWeight instead of producing a bogus value.
//
// Examples:
//
//	{Year:"2022", Month:"Jan", Category:"recycling", Weight:"1,000"}
//	  -> {Year:2022, Month:January, Category:"Recycling", Weight:1000}
//	{Year:"2022", Month:"Jan", Weight:""} -> ErrMissingField
func Normalize(r RawRecord) (Observation, error) {
	yearStr := strings.TrimSpace(r.Year)
	monthStr := strings.TrimSpace(r.Month)
	weightStr := strings.TrimSpace(r.Weight)
	if yearStr == "" || monthStr == "" || weightStr == "" {
		return Observation{}, ErrMissingField
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %q", ErrInvalidYear, yearStr)
	}
	month, err := ParseMonth(monthStr)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %q", err, monthStr)
	}
	weight, err := ParseWeight(weightStr)
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		Year:     year,
		Month:    month,
		Category: NormalizeCategory(r.Category),
		Material: strings.TrimSpace(r.Material),
		Weight:   weight,
	}, nil
}

// NormalizeAll normalizes every record, keeping input order, and reports how
// many records were dropped and why.
func NormalizeAll(records []RawRecord) ([]Observation, Rejections) {
	out := make([]Observation, 0, len(records))
	var rej Rejections
	for _, r := range records {
		o, err := Normalize(r)
		if err != nil {
			rej.add(err)
			continue
		}
		out = append(out, o)
	}
	return out, rej
}

// MaxWeight is the largest weight in pounds accepted for a single record.
// It keeps every sum over a dataset finite.
const MaxWeight = 1e12

// ParseWeight parses a weight in pounds. Thousands separators are stripped
// before parsing; negative, non-finite and values above MaxWeight are
// rejected.
func ParseWeight(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrMissingField
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeight, s)
	}
	if f > MaxWeight {
		return 0, fmt.Errorf("%w: %q exceeds %g lbs", ErrInvalidWeight, s, float64(MaxWeight))
	}
	return f, nil
}

// NormalizeCategory upper-cases the first letter and lower-cases the rest.
// An empty category becomes UnknownCategory.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownCategory
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
