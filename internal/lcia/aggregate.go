package lcia

import (
	"sort"

	"github.com/ecolabel/platescore/internal/catalog"
)

// Lifecycle stages the pipeline attributes impact to. Stage ids 3 and 6 exist
// in the catalog but carry no data in the reference build.
const (
	StageAgriculture = 1
	StageProcessing  = 2
	StageTransport   = 4
	StageRetail      = 5
)

// CategoryBiodiversity occurs only in the agricultural stage.
const CategoryBiodiversity = 17

// DefaultStages returns the lifecycle stages considered per impact category.
func DefaultStages() []int {
	return []int{StageAgriculture, StageProcessing, StageTransport, StageRetail}
}

// Domain is the set of (category, stage) combinations a scheme covers:
// every weighted category crossed with every stage, except biodiversity,
// which pairs only with agriculture.
type Domain struct {
	Categories []int
	Stages     []int
	pairs      map[[2]int]bool
}

func NewDomain(weights map[int]float64, stages []int) Domain {
	d := Domain{
		Stages: append([]int(nil), stages...),
		pairs:  make(map[[2]int]bool),
	}
	for id := range weights {
		d.Categories = append(d.Categories, id)
	}
	sort.Ints(d.Categories)
	sort.Ints(d.Stages)

	for _, c := range d.Categories {
		if c == CategoryBiodiversity {
			d.pairs[[2]int{c, StageAgriculture}] = true
			continue
		}
		for _, s := range d.Stages {
			d.pairs[[2]int{c, s}] = true
		}
	}
	return d
}

func (d Domain) Contains(category, stage int) bool {
	return d.pairs[[2]int{category, stage}]
}

// Totals are one item's (or the whole recipe's) aggregated pre-grade values.
// Amounts are already folded in; downstream stages must not rescale.
type Totals struct {
	Categories map[int]float64
	Stages     map[int]float64
	// SingleScore is nil when the catalog has no precomputed score for the
	// item ("not computed", never zero).
	SingleScore *float64
	Proxy       bool
}

// AggregateItem folds one item's weighted rows into per-category and
// per-stage totals, scaled by the item's recipe amount. This is the only
// place amounts are applied. Rows outside the scheme's domain are ignored;
// absent rows contribute zero, so an item with no data yields all-zero
// totals rather than an error.
func AggregateItem(amount float64, rows []catalog.WeightedRow, singleScore *float64, proxy bool, d Domain) Totals {
	t := Totals{
		Categories: make(map[int]float64, len(d.Categories)),
		Stages:     make(map[int]float64, len(d.Stages)),
		Proxy:      proxy,
	}
	for _, c := range d.Categories {
		t.Categories[c] = 0
	}
	for _, s := range d.Stages {
		t.Stages[s] = 0
	}

	for _, row := range rows {
		if !d.Contains(row.CategoryID, row.StageID) {
			continue
		}
		scaled := amount * row.Value
		t.Categories[row.CategoryID] += scaled
		t.Stages[row.StageID] += scaled
	}

	if singleScore != nil {
		v := amount * *singleScore
		t.SingleScore = &v
	}
	return t
}
