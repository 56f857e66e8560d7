package lcia

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/ecolabel/platescore/internal/catalog"
)

// Engine runs the scoring pipeline: resolve scheme, validate, bulk fetch,
// aggregate per item, grade per item, combine, grade recipe. It holds no
// per-request state and never writes to the catalog, so one Engine serves
// concurrent requests.
type Engine struct {
	store  catalog.Store
	scale  Scale
	stages []int
	logger *slog.Logger
}

func NewEngine(store catalog.Store, scale Scale, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		scale:  scale,
		stages: DefaultStages(),
		logger: logger,
	}
}

// Score computes the graded result for one recipe request.
//
// Validation and scheme resolution failures reject the request before any
// batch fetch. Items that cannot be resolved are reported in
// Result.Failures without aborting the rest of the batch.
func (e *Engine) Score(ctx context.Context, req RecipeRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scheme, err := e.store.ResolveScheme(ctx, req.SchemeSelector())
	if err != nil {
		return nil, fmt.Errorf("resolve scheme: %w", err)
	}
	if scheme == nil {
		return nil, &SchemeNotFoundError{Selector: req.SchemeSelector().String()}
	}

	selectors := make([]string, 0, len(req.Items))
	for sel := range req.Items {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	codeSet := make(map[string]bool)
	for _, sel := range selectors {
		_, code := splitSelector(sel)
		codeSet[code] = true
	}
	codes := make([]string, 0, len(codeSet))
	for c := range codeSet {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	geos, err := e.store.ResolveGeographies(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("resolve geographies: %w", err)
	}

	var failures []ItemFailure
	var pairs []catalog.ItemKey
	selectorByKey := make(map[catalog.ItemKey]string)
	for _, sel := range selectors {
		itemID, code := splitSelector(sel)
		geo, ok := geos[code]
		if !ok {
			failures = append(failures, ItemFailure{Selector: sel, Reason: "unknown geography " + code})
			continue
		}
		key := catalog.ItemKey{ItemID: itemID, GeoID: geo.ID}
		selectorByKey[key] = sel
		pairs = append(pairs, key)
	}

	result := &Result{
		CalculationID:  uuid.New(),
		Scheme:         *scheme,
		GradingVersion: e.scale.Version,
		Items:          []ItemScore{},
		Failures:       failures,
		StageNames:     map[int]string{},
		CategoryNames:  map[int]string{},
	}
	if len(pairs) == 0 {
		return result, nil
	}

	batch, err := e.store.FetchBatch(ctx, pairs, scheme.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	for _, key := range batch.Unknown {
		result.Failures = append(result.Failures, ItemFailure{
			Selector: selectorByKey[key],
			Reason:   "unknown item",
		})
	}

	weights, err := e.store.SchemeWeights(ctx, scheme.ID)
	if err != nil {
		return nil, fmt.Errorf("scheme weights: %w", err)
	}
	domain := NewDomain(weights, e.stages)

	// Cancellation checkpoint: everything past the fetches is pure
	// computation with nothing to undo.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var itemTotals []Totals
	for _, sel := range selectors {
		itemID, code := splitSelector(sel)
		geo, ok := geos[code]
		if !ok {
			continue
		}
		key := catalog.ItemKey{ItemID: itemID, GeoID: geo.ID}
		proxy, known := batch.ProxyFlags[key]
		if !known {
			continue
		}

		t := AggregateItem(req.Items[sel], batch.Weighted[key], batch.SingleScores[key], proxy, domain)
		graded, err := GradeTotals(t, batch.Bounds, e.scale)
		if err != nil {
			return nil, err
		}

		itemTotals = append(itemTotals, t)
		result.Items = append(result.Items, ItemScore{
			Selector:     sel,
			Key:          key,
			Amount:       req.Items[sel],
			GradedResult: graded,
		})
	}

	recipeGraded, err := GradeTotals(CombineRecipe(itemTotals), batch.Bounds, e.scale)
	if err != nil {
		return nil, err
	}
	result.Recipe = recipeGraded

	names, err := e.store.ReferenceNames(ctx, domain.Stages, domain.Categories)
	if err != nil {
		return nil, fmt.Errorf("reference names: %w", err)
	}
	result.StageNames = names.Stages
	result.CategoryNames = names.Categories

	e.logger.Info("recipe scored",
		"calculation_id", result.CalculationID,
		"scheme", scheme.Name,
		"items", len(result.Items),
		"failures", len(result.Failures),
	)
	return result, nil
}
