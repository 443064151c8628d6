package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"wastedash/internal/aggregate"
)

// Query parameter names understood by FromQuery.
const (
	ParamCategory = "category"
	ParamYear     = "year"
	ParamHide     = "hide"

	// AllYears selects no year.
	AllYears = "all"
)

// FromQuery rebuilds a state by replaying the selection encoded in q on top
// of the defaults for snap. hide may be repeated or comma separated.
//
//	?category=Recycling&year=2022&hide=Trash,Compost
func FromQuery(snap *aggregate.Snapshot, q url.Values) (State, error) {
	st := New(snap)
	var actions []Action

	if c := strings.TrimSpace(q.Get(ParamCategory)); c != "" {
		actions = append(actions, SelectCategory{Category: c})
	}
	if q.Has(ParamYear) {
		raw := strings.TrimSpace(q.Get(ParamYear))
		if raw == "" || strings.EqualFold(raw, AllYears) {
			actions = append(actions, ClearYear{})
		} else {
			y, err := strconv.Atoi(raw)
			if err != nil {
				return st, fmt.Errorf("%w: %q", ErrUnknownYear, raw)
			}
			actions = append(actions, SelectYear{Year: y})
		}
	}
	for _, v := range q[ParamHide] {
		for _, c := range splitList(snap, v) {
			actions = append(actions, SetVisible{Category: c, Visible: false})
		}
	}

	for _, a := range actions {
		var err error
		if st, err = Reduce(snap, st, a); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Query encodes s so that FromQuery returns an equal state.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.Category != "" {
		q.Set(ParamCategory, s.Category)
	}
	if s.HasYear {
		q.Set(ParamYear, strconv.Itoa(s.Year))
	} else {
		q.Set(ParamYear, AllYears)
	}
	if hidden := s.Hidden(); len(hidden) > 0 {
		q[ParamHide] = hidden
	}
	return q
}

// splitList splits a comma separated value, unless it names a category that
// itself contains a comma.
func splitList(snap *aggregate.Snapshot, v string) []string {
	if c := strings.TrimSpace(v); snap.HasCategory(c) {
		return []string{c}
	}
	var out []string
	for _, c := range strings.Split(v, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Key returns a stable cache key for s.
func (s State) Key() string {
	return s.Query().Encode()
}
