package notify

import "time"

// CatalogRebuiltEvent announces that the offline pipeline has published a new
// catalog build. Grading bounds and weighted results may have changed.
type CatalogRebuiltEvent struct {
	BuildID     string    `json:"build_id"`
	ItemCount   int       `json:"item_count,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// RecipeScoredEvent is emitted after every successful scoring request.
type RecipeScoredEvent struct {
	CalculationID string    `json:"calculation_id"`
	Scheme        string    `json:"scheme"`
	Items         int       `json:"items"`
	Failures      int       `json:"failures"`
	Timestamp     time.Time `json:"timestamp"`
}
