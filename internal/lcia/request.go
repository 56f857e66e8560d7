package lcia

import (
	"fmt"
	"regexp"

	"github.com/ecolabel/platescore/internal/catalog"
)

// itemSelectorRe matches "<item_id>-<ALPHA3>": a 4 or 5 digit item id,
// optionally suffixed with an underscore variant, and an ISO 3166-1 alpha-3
// geography code.
var itemSelectorRe = regexp.MustCompile(`^(\d{4,5}(?:_\d+)?)-([A-Z]{3})$`)

// RecipeRequest is the request-scoped input to the scoring pipeline: item
// selectors mapped to strictly positive amounts (kilograms), plus exactly one
// of SchemeName or SchemeID.
type RecipeRequest struct {
	Items      map[string]float64
	SchemeName string
	SchemeID   *int
}

// Validate rejects malformed requests before any catalog access.
func (r *RecipeRequest) Validate() error {
	if r.SchemeName == "" && r.SchemeID == nil {
		return &ValidationError{Reason: "one of scheme_name or scheme_id is required"}
	}
	if r.SchemeName != "" && r.SchemeID != nil {
		return &ValidationError{Reason: "only one of scheme_name or scheme_id may be given"}
	}
	if len(r.Items) == 0 {
		return &ValidationError{Reason: "at least one item is required"}
	}
	for sel, amount := range r.Items {
		if !itemSelectorRe.MatchString(sel) {
			return &ValidationError{Reason: fmt.Sprintf("malformed item selector %q, expected \"<item_id>-<ALPHA3>\"", sel)}
		}
		if amount <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("amount for %q must be greater than 0", sel)}
		}
	}
	return nil
}

// SchemeSelector converts the request's scheme fields to the catalog
// selector. Call only after Validate.
func (r *RecipeRequest) SchemeSelector() catalog.SchemeSelector {
	if r.SchemeID != nil {
		return catalog.SchemeByID(*r.SchemeID)
	}
	return catalog.SchemeByName(r.SchemeName)
}

// splitSelector breaks a validated selector into its item id and geography
// code parts.
func splitSelector(sel string) (itemID, alpha3 string) {
	m := itemSelectorRe.FindStringSubmatch(sel)
	return m[1], m[2]
}
