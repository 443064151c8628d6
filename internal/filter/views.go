package filter

import (
	"wastedash/internal/aggregate"
)

// OtherLabel names the pie slice that collects truncated materials.
const OtherLabel = "Other"

// Years returns the selectable years for the selected category.
func (s State) Years(snap *aggregate.Snapshot) []int {
	return snap.Years(s.Category)
}

// LineView returns the monthly series of the selected category, limited to
// the selected year when there is one.
func (s State) LineView(snap *aggregate.Snapshot) []aggregate.SeriesPoint {
	series := snap.Series(s.Category)
	out := make([]aggregate.SeriesPoint, 0, len(series))
	for _, p := range series {
		if s.HasYear && p.Key.Year != s.Year {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AreaView projects every matrix row onto the visible categories. A visible
// category without data in a month is reported as 0, a hidden category is
// left out of the row. The snapshot matrix is not modified.
func (s State) AreaView(snap *aggregate.Snapshot) []aggregate.MonthlyRow {
	visible := s.VisibleCategories(snap)
	out := make([]aggregate.MonthlyRow, 0, len(snap.Matrix))
	for _, row := range snap.Matrix {
		values := make(map[string]float64, len(visible))
		for _, c := range visible {
			values[c] = row.Values[c]
		}
		out = append(out, aggregate.MonthlyRow{Key: row.Key, Values: values})
	}
	return out
}

// BarView returns the category totals in category order.
func (s State) BarView(snap *aggregate.Snapshot) []aggregate.CategoryTotal {
	return snap.CategoryTotals
}

// PieView returns the top materials. With withOther set, the truncated
// materials are folded into one extra OtherLabel slice.
func (s State) PieView(snap *aggregate.Snapshot, withOther bool) []aggregate.MaterialTotal {
	top := snap.Materials.Top
	out := make([]aggregate.MaterialTotal, len(top), len(top)+1)
	copy(out, top)
	if withOther && snap.Materials.OtherCount > 0 {
		out = append(out, aggregate.MaterialTotal{
			Material: OtherLabel,
			Weight:   snap.Materials.OtherWeight,
			Color:    aggregate.OtherColor,
		})
	}
	return out
}

// CategoryOption describes one category in the selector and legend.
type CategoryOption struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
}

// Dashboard is the full view model rendered by the dashboard page.
type Dashboard struct {
	Version    uint64                    `json:"version"`
	Category   string                    `json:"category"`
	Year       *int                      `json:"year"`
	Categories []CategoryOption          `json:"categories"`
	Years      []int                     `json:"years"`
	Area       []aggregate.MonthlyRow    `json:"area"`
	Line       []aggregate.SeriesPoint   `json:"line"`
	Bar        []aggregate.CategoryTotal `json:"bar"`
	Pie        []aggregate.MaterialTotal `json:"pie"`
}

// Options tunes derived views.
type Options struct {
	PieOther bool
}

// CategoryOptions lists every category with its color and visibility.
func (s State) CategoryOptions(snap *aggregate.Snapshot) []CategoryOption {
	out := make([]CategoryOption, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		out = append(out, CategoryOption{Name: c, Color: snap.CategoryColor(c), Visible: s.Visible(c)})
	}
	return out
}

// Dashboard derives every view for s.
func (s State) Dashboard(snap *aggregate.Snapshot, opts Options) Dashboard {
	d := Dashboard{
		Version:    snap.Version,
		Category:   s.Category,
		Categories: s.CategoryOptions(snap),
		Years:      s.Years(snap),
		Area:       s.AreaView(snap),
		Line:       s.LineView(snap),
		Bar:        s.BarView(snap),
		Pie:        s.PieView(snap, opts.PieOther),
	}
	if s.HasYear {
		y := s.Year
		d.Year = &y
	}
	return d
}
