// Package aggregate computes the dashboard summaries from normalized
// observations. Every function is pure and returns an empty, non-nil result
// for empty input.
package aggregate

import (
	"encoding/json"
	"slices"
	"sort"

	"wastedash/internal/core"
)

// DefaultMaterialLimit is the number of materials kept by MaterialTotals.
const DefaultMaterialLimit = 6

type (
	// CategoryTotal is the summed weight of one category.
	CategoryTotal struct {
		Category string  `json:"category"`
		Weight   float64 `json:"weight"`
	}

	// MaterialTotal is the summed weight of one material with its display color.
	MaterialTotal struct {
		Material string  `json:"material"`
		Weight   float64 `json:"weight"`
		Color    string  `json:"color"`
	}

	// MaterialSummary holds the top materials and what the truncation dropped.
	MaterialSummary struct {
		Top         []MaterialTotal `json:"top"`
		OtherCount  int             `json:"other_count"`
		OtherWeight float64         `json:"other_weight"`
	}

	// MonthlyRow is one month of the category matrix. Values only holds
	// categories with data in that month.
	MonthlyRow struct {
		Key    core.YearMonth
		Values map[string]float64
	}

	// SeriesPoint is one month of a single-category series.
	SeriesPoint struct {
		Key    core.YearMonth `json:"-"`
		Date   string         `json:"date"`
		Weight float64        `json:"weight"`
	}
)

// Date returns the YYYY-MM key of the row.
func (r MonthlyRow) Date() string {
	return r.Key.String()
}

// MarshalJSON flattens the row to {"date": "YYYY-MM", "<category>": weight, ...}
// which is the shape the stacked area chart consumes.
func (r MonthlyRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		m[k] = v
	}
	m["date"] = r.Key.String()
	return json.Marshal(m)
}

// CategoryTotals sums weight per category, ordered by category name.
func CategoryTotals(obs []core.Observation) []CategoryTotal {
	sums := map[string]float64{}
	for _, o := range obs {
		sums[o.Category] += o.Weight
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, w := range sums {
		out = append(out, CategoryTotal{Category: c, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// MaterialTotals sums weight per material and keeps the heaviest limit
// entries. Equal weights keep first-encountered order. A limit <= 0 keeps all
// materials.
func MaterialTotals(obs []core.Observation, limit int) MaterialSummary {
	sums := map[string]float64{}
	order := make([]string, 0)
	for _, o := range obs {
		if _, seen := sums[o.Material]; !seen {
			order = append(order, o.Material)
		}
		sums[o.Material] += o.Weight
	}
	all := make([]MaterialTotal, 0, len(order))
	for _, name := range order {
		all = append(all, MaterialTotal{Material: name, Weight: sums[name]})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Weight > all[j].Weight })

	summary := MaterialSummary{Top: all}
	if limit > 0 && len(all) > limit {
		summary.Top = all[:limit:limit]
		for _, m := range all[limit:] {
			summary.OtherCount++
			summary.OtherWeight += m.Weight
		}
	}
	for i := range summary.Top {
		summary.Top[i].Color = ColorFor(i)
	}
	return summary
}

// MonthlyCategoryMatrix sums weight per month and category, one row per
// month in chronological order.
func MonthlyCategoryMatrix(obs []core.Observation) []MonthlyRow {
	rows := map[core.YearMonth]map[string]float64{}
	for _, o := range obs {
		k := o.Key()
		byCat, ok := rows[k]
		if !ok {
			byCat = map[string]float64{}
			rows[k] = byCat
		}
		byCat[o.Category] += o.Weight
	}
	out := make([]MonthlyRow, 0, len(rows))
	for k, v := range rows {
		out = append(out, MonthlyRow{Key: k, Values: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Before(out[j].Key) })
	return out
}

// MonthlySeries sums the weight of a single category per month, in
// chronological order. Months without data for the category are absent.
func MonthlySeries(obs []core.Observation, category string) []SeriesPoint {
	sums := map[core.YearMonth]float64{}
	for _, o := range obs {
		if o.Category != category {
			continue
		}
		sums[o.Key()] += o.Weight
	}
	out := make([]SeriesPoint, 0, len(sums))
	for k, w := range sums {
		out = append(out, SeriesPoint{Key: k, Date: k.String(), Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Before(out[j].Key) })
	return out
}

// Years returns the distinct years with data for category, ascending.
func Years(obs []core.Observation, category string) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0)
	for _, o := range obs {
		if o.Category != category {
			continue
		}
		if _, ok := seen[o.Year]; ok {
			continue
		}
		seen[o.Year] = struct{}{}
		out = append(out, o.Year)
	}
	slices.Sort(out)
	return out
}

// Categories returns the distinct categories, sorted.
func Categories(obs []core.Observation) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, o := range obs {
		if _, ok := seen[o.Category]; ok {
			continue
		}
		seen[o.Category] = struct{}{}
		out = append(out, o.Category)
	}
	slices.Sort(out)
	return out
}

// TotalWeight sums every observation weight.
func TotalWeight(obs []core.Observation) float64 {
	var total float64
	for _, o := range obs {
		total += o.Weight
	}
	return total
}
