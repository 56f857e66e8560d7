package lcia

// CombineRecipe merges per-item totals into one recipe-level aggregate by the
// same summation rule used within an item. Amounts were folded in by
// AggregateItem; nothing is rescaled here, and because combination is pure
// summation the result does not depend on item order.
//
// The combined totals are graded afterwards against the same scheme-wide
// bounds as every item, so recipe grades and item grades share one scale.
func CombineRecipe(items []Totals) Totals {
	recipe := Totals{
		Categories: make(map[int]float64),
		Stages:     make(map[int]float64),
	}

	for _, item := range items {
		for id, v := range item.Categories {
			recipe.Categories[id] += v
		}
		for id, v := range item.Stages {
			recipe.Stages[id] += v
		}
		if item.SingleScore != nil {
			if recipe.SingleScore == nil {
				recipe.SingleScore = new(float64)
			}
			*recipe.SingleScore += *item.SingleScore
		}
		if item.Proxy {
			recipe.Proxy = true
		}
	}
	return recipe
}
