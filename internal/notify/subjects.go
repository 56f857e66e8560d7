package notify

const (
	// Catalog build events come from the offline pipeline that recomputes
	// weighted results and single scores.
	SubjectCatalogRebuilt = "ecolabel.catalog.rebuilt"

	StreamName   = "ECOLABEL_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectRecipeScored(calculationID string) string {
	return "ecolabel.recipe." + calculationID + ".scored"
}
