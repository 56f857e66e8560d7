package catalog

import (
	"context"
	"strconv"
)

// ItemKey is the natural composite key for all per-item catalog data.
type ItemKey struct {
	ItemID string `json:"item_id"`
	GeoID  int    `json:"geo_id"`
}

type Geography struct {
	ID                int    `json:"geo_id"`
	InternationalCode int    `json:"international_code"`
	Alpha2            string `json:"alpha2"`
	Alpha3            string `json:"alpha3"`
	Name              string `json:"name"`
}

type ImpactCategory struct {
	ID                 int     `json:"ic_id"`
	Name               string  `json:"name"`
	Shorthand          string  `json:"shorthand"`
	NormalizationValue float64 `json:"normalization_value"`
	NormalizationUnit  string  `json:"normalization_unit"`
}

type LifecycleStage struct {
	ID        int    `json:"lc_stage_id"`
	Shorthand string `json:"shorthand"`
	Name      string `json:"name"`
}

type Scheme struct {
	ID   int    `json:"scheme_id"`
	Name string `json:"name"`
}

// ItemInfo is the display metadata for one catalog item.
type ItemInfo struct {
	Key               ItemKey `json:"-"`
	Selector          string  `json:"-"`
	Name              string  `json:"product_name"`
	Country           string  `json:"country"`
	InternationalCode int     `json:"international_code"`
	Group             *string `json:"group"`
	Subgroup          *string `json:"subgroup"`
	Proxy             bool    `json:"proxy"`
}

// WeightedRow is one precomputed weighted value for an item under a scheme.
type WeightedRow struct {
	CategoryID int
	StageID    int
	Value      float64
}

type MinMax struct {
	Min float64
	Max float64
}

// Bounds are the scheme-wide grading bounds, computed over non-proxy catalog
// rows only so that substituted data cannot stretch the scale.
type Bounds struct {
	SingleScore MinMax
	Categories  map[int]MinMax
	Stages      map[int]MinMax
}

// Batch is everything the scoring pipeline needs for a set of item pairs
// under one scheme, fetched in a fixed number of round trips.
type Batch struct {
	// ProxyFlags has an entry for every pair that exists in the catalog.
	ProxyFlags map[ItemKey]bool
	// Weighted holds the scheme's weighted rows per pair. A known pair with
	// no rows is simply absent here, not an error.
	Weighted map[ItemKey][]WeightedRow
	// SingleScores holds precomputed single scores; nil means not computed.
	SingleScores map[ItemKey]*float64
	Bounds       Bounds
	// Unknown lists requested pairs with no catalog entry at all.
	Unknown []ItemKey
}

// Names resolves stage and category identifiers to display names.
type Names struct {
	Stages     map[int]string
	Categories map[int]string
}

// SchemeSelector picks a weighting scheme by name or by id, never both.
// Construct with SchemeByName or SchemeByID.
type SchemeSelector struct {
	name string
	id   int
	byID bool
}

func SchemeByName(name string) SchemeSelector { return SchemeSelector{name: name} }
func SchemeByID(id int) SchemeSelector        { return SchemeSelector{id: id, byID: true} }

func (s SchemeSelector) ByID() (int, bool) {
	return s.id, s.byID
}

func (s SchemeSelector) ByName() (string, bool) {
	return s.name, !s.byID
}

func (s SchemeSelector) String() string {
	if s.byID {
		return "scheme_id=" + strconv.Itoa(s.id)
	}
	return "scheme_name=" + s.name
}

// Store is the read-only catalog collaborator. Implementations must be safe
// for concurrent readers; the pipeline never writes through it.
type Store interface {
	// ResolveScheme returns the scheme for the selector, or nil if no scheme
	// matches.
	ResolveScheme(ctx context.Context, sel SchemeSelector) (*Scheme, error)

	// SchemeWeights returns the category weights owned by a scheme,
	// keyed by impact category id.
	SchemeWeights(ctx context.Context, schemeID int) (map[int]float64, error)

	// ResolveGeographies maps ISO 3166-1 alpha-3 codes to geographies.
	// Codes with no catalog entry are absent from the result.
	ResolveGeographies(ctx context.Context, alpha3 []string) (map[string]Geography, error)

	// FetchBatch retrieves proxy flags, weighted rows, single scores and
	// scheme-wide bounds for the given pairs in a fixed number of queries,
	// independent of len(pairs).
	FetchBatch(ctx context.Context, pairs []ItemKey, schemeID int) (*Batch, error)

	// ReferenceNames resolves display names for the given stage and
	// category ids.
	ReferenceNames(ctx context.Context, stageIDs, categoryIDs []int) (*Names, error)

	ListItems(ctx context.Context) ([]ItemInfo, error)
	ListSchemes(ctx context.Context) ([]Scheme, error)

	Close() error
}
