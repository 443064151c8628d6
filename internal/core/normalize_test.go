package core

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   RawRecord
		want Observation
		err  error
	}{
		{
			name: "thousands separator",
			in:   RawRecord{Year: "2022", Month: "Jan", Category: "recycling", Material: "Plastic", Weight: "1,000"},
			want: Observation{Year: 2022, Month: January, Category: "Recycling", Material: "Plastic", Weight: 1000},
		},
		{
			name: "mixed case category and padded fields",
			in:   RawRecord{Year: " 2021 ", Month: " dec ", Category: "cOMPOST", Material: " Food ", Weight: " 12.5 "},
			want: Observation{Year: 2021, Month: December, Category: "Compost", Material: "Food", Weight: 12.5},
		},
		{
			name: "empty category",
			in:   RawRecord{Year: "2020", Month: "Mar", Weight: "3"},
			want: Observation{Year: 2020, Month: March, Category: UnknownCategory, Weight: 3},
		},
		{name: "missing weight", in: RawRecord{Year: "2022", Month: "Jan"}, err: ErrMissingField},
		{name: "weight above ceiling", in: RawRecord{Year: "2022", Month: "Jan", Weight: "1e308"}, err: ErrInvalidWeight},
		{name: "missing year", in: RawRecord{Month: "Jan", Weight: "1"}, err: ErrMissingField},
		{name: "missing month", in: RawRecord{Year: "2022", Weight: "1"}, err: ErrMissingField},
		{name: "bad year", in: RawRecord{Year: "twenty", Month: "Jan", Weight: "1"}, err: ErrInvalidYear},
		{name: "bad month", in: RawRecord{Year: "2022", Month: "Janvier", Weight: "1"}, err: ErrInvalidMonth},
		{name: "bad weight", in: RawRecord{Year: "2022", Month: "Jan", Weight: "heavy"}, err: ErrInvalidWeight},
		{name: "negative weight", in: RawRecord{Year: "2022", Month: "Jan", Weight: "-4"}, err: ErrInvalidWeight},
		{name: "nan weight", in: RawRecord{Year: "2022", Month: "Jan", Weight: "NaN"}, err: ErrInvalidWeight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeAllKeepsExactlyValidRecords(t *testing.T) {
	in := []RawRecord{
		{Year: "2022", Month: "Jan", Category: "recycling", Material: "Plastic", Weight: "1,000"},
		{Year: "2022", Month: "Jan", Category: "recycling", Material: "Glass"},
		{Year: "", Month: "Feb", Category: "trash", Material: "Mixed", Weight: "5"},
		{Year: "2022", Month: "Foo", Category: "trash", Material: "Mixed", Weight: "5"},
		{Year: "2023", Month: "Feb", Category: "trash", Material: "Mixed", Weight: "x"},
		{Year: "2022", Month: "Feb", Category: "trash", Material: "Mixed", Weight: "7"},
	}
	obs, rej := NormalizeAll(in)
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d: %+v", len(obs), obs)
	}
	if obs[0].Material != "Plastic" || obs[1].Material != "Mixed" {
		t.Fatalf("input order not preserved: %+v", obs)
	}
	want := Rejections{MissingField: 2, InvalidMonth: 1, InvalidWeight: 1}
	if rej != want {
		t.Fatalf("rejections got %+v, want %+v", rej, want)
	}
	if rej.Total() != 4 {
		t.Fatalf("total got %d", rej.Total())
	}
}

func TestNormalizeAllEmpty(t *testing.T) {
	obs, rej := NormalizeAll(nil)
	if obs == nil || len(obs) != 0 || rej.Total() != 0 {
		t.Fatalf("unexpected result: %v %+v", obs, rej)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"":          UnknownCategory,
		"   ":       UnknownCategory,
		"recycling": "Recycling",
		"TRASH":     "Trash",
		"é-waste":   "É-waste",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHugeWeightsKeepTotalsFinite(t *testing.T) {
	recs := []RawRecord{
		{Year: "2022", Month: "Jan", Category: "trash", Weight: "1e308"},
		{Year: "2022", Month: "Jan", Category: "trash", Weight: "1e308"},
		{Year: "2022", Month: "Jan", Category: "trash", Weight: "1,000,000,000,000"},
	}
	obs, rej := NormalizeAll(recs)
	if rej.InvalidWeight != 2 || len(obs) != 1 {
		t.Fatalf("expected 2 rejected and 1 kept, got %d kept, %+v", len(obs), rej)
	}
	if obs[0].Weight != MaxWeight {
		t.Fatalf("weight at the ceiling should be kept, got %v", obs[0].Weight)
	}
}
