package lcia

import (
	"sort"

	"github.com/ecolabel/platescore/internal/catalog"
)

// Band assigns a grade letter to scaled values below Cutoff.
type Band struct {
	Grade  string
	Cutoff float64
}

// Scale maps an aggregated value onto the grading scale by linear min-max
// scaling against scheme-wide bounds. It is pure: identical inputs always
// produce identical grades.
type Scale struct {
	Version string
	// NeutralMidpoint is used when a bound pair has no variance.
	NeutralMidpoint float64
	Bands           []Band
}

// DefaultScale returns the reference calibration: five letter bands at
// 0.1 / 0.3 / 0.5 / 0.7 and a neutral midpoint of 0.5.
func DefaultScale() Scale {
	return Scale{
		Version:         "agb-2024.1",
		NeutralMidpoint: 0.5,
		Bands: []Band{
			{Grade: "A", Cutoff: 0.1},
			{Grade: "B", Cutoff: 0.3},
			{Grade: "C", Cutoff: 0.5},
			{Grade: "D", Cutoff: 0.7},
			{Grade: "E", Cutoff: 1.0},
		},
	}
}

// Scaled maps v into [0, 1] relative to the bounds. Values are clamped
// because an aggregated total (a recipe sum in particular) can fall outside
// the bounds observed over the reference catalog. min == max yields the
// neutral midpoint.
func (s Scale) Scaled(v float64, mm catalog.MinMax) float64 {
	if mm.Max == mm.Min {
		return s.NeutralMidpoint
	}
	scaled := (v - mm.Min) / (mm.Max - mm.Min)
	if scaled < 0 {
		return 0
	}
	if scaled > 1 {
		return 1
	}
	return scaled
}

// Grade picks the band for a scaled value in [0, 1].
func (s Scale) Grade(scaled float64) string {
	i := sort.Search(len(s.Bands)-1, func(i int) bool {
		return scaled < s.Bands[i].Cutoff
	})
	return s.Bands[i].Grade
}

// Apply scales and grades one aggregated value.
func (s Scale) Apply(v float64, mm catalog.MinMax) GradedValue {
	scaled := s.Scaled(v, mm)
	return GradedValue{Value: v, Scaled: scaled, Grade: s.Grade(scaled)}
}

// GradeTotals grades every category and stage total of an aggregate against
// the scheme-wide bounds, plus the single score when present.
//
// A nonzero total whose category or stage is missing from the bounds map
// means the catalog and the engine disagree about the scheme's coverage;
// that is an internal error, not a gradable state. A zero total without
// bounds (no rows anywhere in the catalog for that slot) grades at the
// neutral midpoint.
func GradeTotals(t Totals, bounds catalog.Bounds, scale Scale) (GradedResult, error) {
	out := GradedResult{
		Proxy:      t.Proxy,
		Categories: make(map[int]GradedValue, len(t.Categories)),
		Stages:     make(map[int]GradedValue, len(t.Stages)),
	}

	for id, v := range t.Categories {
		mm, ok := bounds.Categories[id]
		if !ok {
			if v != 0 {
				return GradedResult{}, internalf("no bounds for impact category %d with nonzero total", id)
			}
			mm = catalog.MinMax{}
		}
		out.Categories[id] = scale.Apply(v, mm)
	}

	for id, v := range t.Stages {
		mm, ok := bounds.Stages[id]
		if !ok {
			if v != 0 {
				return GradedResult{}, internalf("no bounds for lifecycle stage %d with nonzero total", id)
			}
			mm = catalog.MinMax{}
		}
		out.Stages[id] = scale.Apply(v, mm)
	}

	if t.SingleScore != nil {
		gv := scale.Apply(*t.SingleScore, bounds.SingleScore)
		out.SingleScore = &gv
	}
	return out, nil
}
