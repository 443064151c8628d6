// Package filter holds the dashboard selection state and derives the
// filtered chart views from a snapshot. State values are immutable: every
// transition goes through Reduce and returns a new State.
package filter

import (
	"errors"
	"fmt"
	"slices"

	"wastedash/internal/aggregate"
)

var (
	ErrUnknownYear     = errors.New("year not available for selected category")
	ErrUnknownCategory = errors.New("unknown category")
)

// State is the user selection: one category, an optional year and the set of
// categories drawn on the stacked area chart.
type State struct {
	Category string
	Year     int
	HasYear  bool

	hidden map[string]struct{}
}

// New returns the default state for snap: the first category in sorted
// order, its latest year and every category visible.
func New(snap *aggregate.Snapshot) State {
	var st State
	if len(snap.Categories) > 0 {
		st = selectCategory(snap, st, snap.Categories[0])
	}
	return st
}

// Visible reports whether category c is drawn on the stacked area chart.
func (s State) Visible(c string) bool {
	_, hidden := s.hidden[c]
	return !hidden
}

// VisibleCategories returns the visible categories of snap in sorted order.
func (s State) VisibleCategories(snap *aggregate.Snapshot) []string {
	out := make([]string, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		if s.Visible(c) {
			out = append(out, c)
		}
	}
	return out
}

// Hidden returns the hidden categories, sorted.
func (s State) Hidden() []string {
	out := make([]string, 0, len(s.hidden))
	for c := range s.hidden {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Action is a state transition.
type Action interface {
	apply(snap *aggregate.Snapshot, s State) (State, error)
}

type (
	// SelectCategory switches the selected category and resets the year to the
	// latest one available for it. A category without data is accepted and
	// yields empty years and series.
	SelectCategory struct{ Category string }

	// SelectYear narrows the line chart to one year of the selected category.
	SelectYear struct{ Year int }

	// ClearYear removes the year selection.
	ClearYear struct{}

	// ToggleCategory flips the visibility of a category.
	ToggleCategory struct{ Category string }

	// SetVisible shows or hides a category.
	SetVisible struct {
		Category string
		Visible  bool
	}
)

// Reduce applies a to s. On error s is returned unchanged.
func Reduce(snap *aggregate.Snapshot, s State, a Action) (State, error) {
	next, err := a.apply(snap, s)
	if err != nil {
		return s, err
	}
	return next, nil
}

func (a SelectCategory) apply(snap *aggregate.Snapshot, s State) (State, error) {
	return selectCategory(snap, s, a.Category), nil
}

func (a SelectYear) apply(snap *aggregate.Snapshot, s State) (State, error) {
	if !slices.Contains(snap.Years(s.Category), a.Year) {
		return s, fmt.Errorf("%w: %d", ErrUnknownYear, a.Year)
	}
	s.Year, s.HasYear = a.Year, true
	return s, nil
}

func (ClearYear) apply(_ *aggregate.Snapshot, s State) (State, error) {
	s.Year, s.HasYear = 0, false
	return s, nil
}

func (a ToggleCategory) apply(snap *aggregate.Snapshot, s State) (State, error) {
	return SetVisible{Category: a.Category, Visible: !s.Visible(a.Category)}.apply(snap, s)
}

func (a SetVisible) apply(snap *aggregate.Snapshot, s State) (State, error) {
	if !snap.HasCategory(a.Category) {
		return s, fmt.Errorf("%w: %q", ErrUnknownCategory, a.Category)
	}
	hidden := make(map[string]struct{}, len(s.hidden)+1)
	for c := range s.hidden {
		hidden[c] = struct{}{}
	}
	if a.Visible {
		delete(hidden, a.Category)
	} else {
		hidden[a.Category] = struct{}{}
	}
	if len(hidden) == 0 {
		hidden = nil
	}
	s.hidden = hidden
	return s, nil
}

func selectCategory(snap *aggregate.Snapshot, s State, c string) State {
	s.Category = c
	s.Year, s.HasYear = 0, false
	if years := snap.Years(c); len(years) > 0 {
		s.Year, s.HasYear = years[len(years)-1], true
	}
	return s
}
