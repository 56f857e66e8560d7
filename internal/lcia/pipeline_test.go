package lcia

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/ecolabel/platescore/internal/catalog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore serves a small fixed catalog: items 10001 (France) and 10002
// (Germany, proxy), scheme delphi_r0110 with two weighted categories plus
// biodiversity.
type fakeStore struct {
	calls int
}

var (
	fakeScheme = catalog.Scheme{ID: 4, Name: "delphi_r0110"}
	keyFRA     = catalog.ItemKey{ItemID: "10001", GeoID: 11}
	keyDEU     = catalog.ItemKey{ItemID: "10002", GeoID: 12}
)

func (s *fakeStore) ResolveScheme(ctx context.Context, sel catalog.SchemeSelector) (*catalog.Scheme, error) {
	s.calls++
	if name, ok := sel.ByName(); ok && name == fakeScheme.Name {
		sc := fakeScheme
		return &sc, nil
	}
	if id, ok := sel.ByID(); ok && id == fakeScheme.ID {
		sc := fakeScheme
		return &sc, nil
	}
	return nil, nil
}

func (s *fakeStore) SchemeWeights(ctx context.Context, schemeID int) (map[int]float64, error) {
	s.calls++
	return map[int]float64{1: 0.5, 2: 0.3, CategoryBiodiversity: 0.2}, nil
}

func (s *fakeStore) ResolveGeographies(ctx context.Context, alpha3 []string) (map[string]catalog.Geography, error) {
	s.calls++
	known := map[string]catalog.Geography{
		"FRA": {ID: 11, Alpha3: "FRA", Name: "France"},
		"DEU": {ID: 12, Alpha3: "DEU", Name: "Germany"},
	}
	out := make(map[string]catalog.Geography)
	for _, code := range alpha3 {
		if g, ok := known[code]; ok {
			out[code] = g
		}
	}
	return out, nil
}

func (s *fakeStore) FetchBatch(ctx context.Context, pairs []catalog.ItemKey, schemeID int) (*catalog.Batch, error) {
	s.calls++
	batch := &catalog.Batch{
		ProxyFlags:   map[catalog.ItemKey]bool{},
		Weighted:     map[catalog.ItemKey][]catalog.WeightedRow{},
		SingleScores: map[catalog.ItemKey]*float64{},
		Bounds: catalog.Bounds{
			SingleScore: catalog.MinMax{Min: 0, Max: 10},
			Categories: map[int]catalog.MinMax{
				1: {Min: 0, Max: 4}, 2: {Min: 0, Max: 4}, CategoryBiodiversity: {Min: 0, Max: 4},
			},
			Stages: map[int]catalog.MinMax{
				StageAgriculture: {Min: 0, Max: 4}, StageProcessing: {Min: 0, Max: 4},
				StageTransport: {Min: 0, Max: 4}, StageRetail: {Min: 0, Max: 4},
			},
		},
	}
	for _, key := range pairs {
		switch key {
		case keyFRA:
			batch.ProxyFlags[key] = false
			batch.Weighted[key] = []catalog.WeightedRow{
				{CategoryID: 1, StageID: StageAgriculture, Value: 2.0},
				{CategoryID: 2, StageID: StageTransport, Value: 1.0},
				{CategoryID: CategoryBiodiversity, StageID: StageAgriculture, Value: 0.5},
			}
			batch.SingleScores[key] = float64Ptr(6.0)
		case keyDEU:
			batch.ProxyFlags[key] = true
			batch.Weighted[key] = []catalog.WeightedRow{
				{CategoryID: 1, StageID: StageProcessing, Value: 1.0},
			}
			batch.SingleScores[key] = nil
		default:
			batch.Unknown = append(batch.Unknown, key)
		}
	}
	return batch, nil
}

func (s *fakeStore) ReferenceNames(ctx context.Context, stageIDs, categoryIDs []int) (*catalog.Names, error) {
	s.calls++
	names := &catalog.Names{Stages: map[int]string{}, Categories: map[int]string{}}
	stageNames := map[int]string{
		StageAgriculture: "Agriculture", StageProcessing: "Processing",
		StageTransport: "Transport", StageRetail: "Retail",
	}
	categoryNames := map[int]string{1: "Climate change", 2: "Water use", CategoryBiodiversity: "Biodiversity"}
	for _, id := range stageIDs {
		names.Stages[id] = stageNames[id]
	}
	for _, id := range categoryIDs {
		names.Categories[id] = categoryNames[id]
	}
	return names, nil
}

func (s *fakeStore) ListItems(ctx context.Context) ([]catalog.ItemInfo, error)  { return nil, nil }
func (s *fakeStore) ListSchemes(ctx context.Context) ([]catalog.Scheme, error) { return nil, nil }
func (s *fakeStore) Close() error                                              { return nil }

func newTestEngine(store catalog.Store) *Engine {
	return NewEngine(store, DefaultScale(), discardLogger())
}

func TestScoreSingleItem(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.1},
		SchemeName: "delphi_r0110",
	}

	res, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if res.Scheme.Name != "delphi_r0110" || res.Scheme.ID != 4 {
		t.Errorf("unexpected scheme %+v", res.Scheme)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}

	item := res.Items[0]
	if item.Selector != "10001-FRA" || item.Amount != 0.1 {
		t.Errorf("unexpected item header %+v", item)
	}
	if v := item.Categories[1].Value; math.Abs(v-0.2) > 1e-12 {
		t.Errorf("category 1 value = %f, want 0.2", v)
	}
	if v := item.Stages[StageAgriculture].Value; math.Abs(v-0.25) > 1e-12 {
		t.Errorf("agriculture value = %f, want 0.25", v)
	}
	if item.SingleScore == nil {
		t.Fatal("expected item single score")
	}
	if math.Abs(item.SingleScore.Value-0.6) > 1e-12 {
		t.Errorf("single score = %f, want 0.6", item.SingleScore.Value)
	}
	if item.SingleScore.Grade != "A" {
		t.Errorf("single score grade = %s, want A", item.SingleScore.Grade)
	}

	// One item: recipe equals the item.
	if math.Abs(res.Recipe.Categories[1].Scaled-item.Categories[1].Scaled) > 1e-12 {
		t.Errorf("recipe category scaled %f != item %f", res.Recipe.Categories[1].Scaled, item.Categories[1].Scaled)
	}

	if res.StageNames[StageAgriculture] != "Agriculture" {
		t.Errorf("missing stage name: %+v", res.StageNames)
	}
	if res.CategoryNames[CategoryBiodiversity] != "Biodiversity" {
		t.Errorf("missing category name: %+v", res.CategoryNames)
	}
	if res.GradingVersion == "" {
		t.Error("expected grading version")
	}
}

func TestScoreIsReproducible(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.1, "10002-DEU": 0.4},
		SchemeName: "delphi_r0110",
	}

	first, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("first Score: %v", err)
	}
	second, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}

	if len(first.Items) != len(second.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].Selector != second.Items[i].Selector {
			t.Errorf("item order differs at %d: %s vs %s", i, first.Items[i].Selector, second.Items[i].Selector)
		}
		for id, want := range first.Items[i].Categories {
			got := second.Items[i].Categories[id]
			if math.Abs(got.Scaled-want.Scaled) > 1e-12 || got.Grade != want.Grade {
				t.Errorf("item %d category %d differs: %+v vs %+v", i, id, want, got)
			}
		}
	}
	for id, want := range first.Recipe.Categories {
		got := second.Recipe.Categories[id]
		if math.Abs(got.Scaled-want.Scaled) > 1e-12 || got.Grade != want.Grade {
			t.Errorf("recipe category %d differs: %+v vs %+v", id, want, got)
		}
	}
	if first.CalculationID == second.CalculationID {
		t.Error("calculation ids must be unique per run")
	}
}

func TestScoreProxyPropagation(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.5, "10002-DEU": 0.5},
		SchemeName: "delphi_r0110",
	}

	res, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, item := range res.Items {
		want := item.Selector == "10002-DEU"
		if item.Proxy != want {
			t.Errorf("item %s proxy = %v, want %v", item.Selector, item.Proxy, want)
		}
	}
	if !res.Recipe.Proxy {
		t.Error("recipe must flag proxy when any item is a proxy")
	}
}

func TestScorePartialSuccess(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items: map[string]float64{
			"10001-FRA": 0.1,
			"99999-ZZZ": 1.0,
			"88888-FRA": 1.0,
		},
		SchemeName: "delphi_r0110",
	}

	res, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if len(res.Items) != 1 || res.Items[0].Selector != "10001-FRA" {
		t.Fatalf("expected only 10001-FRA to score, got %+v", res.Items)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", res.Failures)
	}
	failed := map[string]string{}
	for _, f := range res.Failures {
		failed[f.Selector] = f.Reason
	}
	if _, ok := failed["99999-ZZZ"]; !ok {
		t.Errorf("expected failure for 99999-ZZZ, got %v", failed)
	}
	if _, ok := failed["88888-FRA"]; !ok {
		t.Errorf("expected failure for 88888-FRA, got %v", failed)
	}
}

func TestScoreAllItemsUnresolvable(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items:      map[string]float64{"10001-XXX": 1.0},
		SchemeName: "delphi_r0110",
	}

	res, err := eng.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected no scored items, got %+v", res.Items)
	}
	if len(res.Failures) != 1 {
		t.Errorf("expected 1 failure, got %+v", res.Failures)
	}
}

func TestScoreSchemeNotFound(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	req := RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.1},
		SchemeName: "no_such_scheme",
	}

	_, err := eng.Score(context.Background(), req)
	var notFound *SchemeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SchemeNotFoundError, got %v", err)
	}
}

func TestScoreValidationBeforeStore(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store)
	req := RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.1},
		SchemeName: "ef31_nr",
		SchemeID:   intPtr(1),
	}

	_, err := eng.Score(context.Background(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("expected no store calls for invalid request, got %d", store.calls)
	}
}

func TestScoreCanceledContext(t *testing.T) {
	eng := newTestEngine(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Score(ctx, RecipeRequest{
		Items:      map[string]float64{"10001-FRA": 0.1},
		SchemeName: "delphi_r0110",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
