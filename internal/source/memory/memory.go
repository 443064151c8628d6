// Package memory is an in-process dataset used for demos and tests. It can be
// replaced at runtime so reload paths can be exercised without a real store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"wastedash/internal/core"
	"wastedash/internal/source"
)

// SeedFile is read by NewFromDir when present.
const SeedFile = "seed_records.csv"

type Store struct {
	mu      sync.Mutex
	records []core.RawRecord
	loads   int
}

func New(records []core.RawRecord) *Store {
	return &Store{records: slices.Clone(records)}
}

// NewFromDir seeds the store from dir/seed_records.csv. Only a missing seed
// file falls back to the built-in demo dataset; a seed file that cannot be
// read or parsed is an error.
func NewFromDir(dir string) (*Store, error) {
	path := filepath.Join(dir, SeedFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(Demo()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	recs, err := source.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(recs), nil
}

// Load returns a copy of the stored records.
func (s *Store) Load(_ context.Context) ([]core.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return slices.Clone(s.records), nil
}

// Replace swaps the stored records.
func (s *Store) Replace(records []core.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
}

// Loads returns how many times Load was called.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Demo returns a small two-year dataset covering three categories.
func Demo() []core.RawRecord {
	rec := func(y, m, c, mat, w string) core.RawRecord {
		return core.RawRecord{Year: y, Month: m, Category: c, Material: mat, Weight: w}
	}
	return []core.RawRecord{
		rec("2022", "Jan", "recycling", "Cardboard", "1,250"),
		rec("2022", "Jan", "recycling", "Plastic", "640"),
		rec("2022", "Jan", "trash", "Mixed Waste", "2,100"),
		rec("2022", "Feb", "recycling", "Glass", "410"),
		rec("2022", "Feb", "compost", "Food Waste", "380"),
		rec("2022", "Mar", "trash", "Mixed Waste", "1,980"),
		rec("2022", "Mar", "recycling", "Metal", "220"),
		rec("2023", "Jan", "recycling", "Cardboard", "1,310"),
		rec("2023", "Jan", "compost", "Yard Waste", "520"),
		rec("2023", "Feb", "trash", "Mixed Waste", "2,040"),
		rec("2023", "Feb", "recycling", "Paper", "760"),
		rec("2023", "Mar", "recycling", "Electronics", "95"),
		rec("2023", "Mar", "compost", "Food Waste", "405"),
	}
}
