package lcia

import (
	"github.com/google/uuid"

	"github.com/ecolabel/platescore/internal/catalog"
)

// GradedValue pairs an aggregated value with its scaled position on the
// grading scale and the assigned grade letter.
type GradedValue struct {
	Value  float64 `json:"value"`
	Scaled float64 `json:"scaled"`
	Grade  string  `json:"grade"`
}

// GradedResult is one graded breakdown: per-category and per-stage values
// plus the combined single score. It is produced once per item and once more
// for the whole recipe.
type GradedResult struct {
	Proxy bool `json:"contains_proxy"`
	// SingleScore is nil when no precomputed score exists.
	SingleScore *GradedValue        `json:"single_score,omitempty"`
	Categories  map[int]GradedValue `json:"categories"`
	Stages      map[int]GradedValue `json:"stages"`
}

// ItemScore is the graded outcome for one resolved recipe item.
type ItemScore struct {
	Selector string          `json:"selector"`
	Key      catalog.ItemKey `json:"key"`
	Amount   float64         `json:"amount"`
	GradedResult
}

// ItemFailure annotates one item selector that could not be resolved.
// Failures accompany, not replace, the successful results.
type ItemFailure struct {
	Selector string `json:"selector"`
	Reason   string `json:"reason"`
}

// Result is the full pipeline output for one request.
type Result struct {
	CalculationID  uuid.UUID      `json:"calculation_id"`
	Scheme         catalog.Scheme `json:"scheme"`
	GradingVersion string         `json:"grading_version"`

	Items    []ItemScore   `json:"items"`
	Recipe   GradedResult  `json:"recipe"`
	Failures []ItemFailure `json:"failures,omitempty"`

	StageNames    map[int]string `json:"stage_names"`
	CategoryNames map[int]string `json:"category_names"`
}
