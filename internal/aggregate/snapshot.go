package aggregate

import (
	"slices"
	"time"

	"wastedash/internal/core"
)

// Snapshot bundles the observations of one successful load with every
// aggregate derived from them. A Snapshot is never mutated after Build.
type Snapshot struct {
	Version      uint64
	Source       string
	LoadedAt     time.Time
	Observations []core.Observation
	Rejected     core.Rejections

	Categories     []string
	CategoryTotals []CategoryTotal
	Materials      MaterialSummary
	Matrix         []MonthlyRow

	series map[string][]SeriesPoint
	years  map[string][]int
	index  map[string]int
}

// Build computes all aggregates for obs. materialLimit is passed to
// MaterialTotals.
func Build(obs []core.Observation, materialLimit int) *Snapshot {
	if obs == nil {
		obs = []core.Observation{}
	}
	s := &Snapshot{
		Observations:   obs,
		Categories:     Categories(obs),
		CategoryTotals: CategoryTotals(obs),
		Materials:      MaterialTotals(obs, materialLimit),
		Matrix:         MonthlyCategoryMatrix(obs),
		series:         map[string][]SeriesPoint{},
		years:          map[string][]int{},
		index:          map[string]int{},
	}
	for i, c := range s.Categories {
		s.index[c] = i
		s.series[c] = MonthlySeries(obs, c)
		s.years[c] = Years(obs, c)
	}
	return s
}

// Empty returns the snapshot served before the first successful load.
func Empty() *Snapshot {
	return Build(nil, DefaultMaterialLimit)
}

// Len returns the number of observations.
func (s *Snapshot) Len() int {
	return len(s.Observations)
}

// HasCategory reports whether c occurs in the dataset.
func (s *Snapshot) HasCategory(c string) bool {
	_, ok := s.index[c]
	return ok
}

// CategoryColor returns the palette color of c, keyed by its position in the
// sorted category list. Unknown categories get the first palette color.
func (s *Snapshot) CategoryColor(c string) string {
	return ColorFor(s.index[c])
}

// Series returns the monthly series of category. The returned slice is shared
// and must not be modified.
func (s *Snapshot) Series(category string) []SeriesPoint {
	if p, ok := s.series[category]; ok {
		return p
	}
	return []SeriesPoint{}
}

// Years returns the years with data for category, ascending.
func (s *Snapshot) Years(category string) []int {
	if y, ok := s.years[category]; ok {
		return slices.Clone(y)
	}
	return []int{}
}
