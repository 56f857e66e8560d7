package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the reference catalog from Postgres. The catalog is
// maintained by an external build process; this store never writes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ResolveScheme(ctx context.Context, sel SchemeSelector) (*Scheme, error) {
	var (
		query string
		arg   any
	)
	if id, ok := sel.ByID(); ok {
		query = `SELECT scheme_id, name FROM weighting_schemes WHERE scheme_id = $1`
		arg = id
	} else {
		name, _ := sel.ByName()
		query = `SELECT scheme_id, name FROM weighting_schemes WHERE name = $1`
		arg = name
	}

	sch := &Scheme{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&sch.ID, &sch.Name)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve scheme %s: %w", sel, err)
	}
	return sch, nil
}

func (s *PostgresStore) SchemeWeights(ctx context.Context, schemeID int) (map[int]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ic_id, ic_weight
		FROM impact_category_weights
		WHERE scheme_id = $1`, schemeID)
	if err != nil {
		return nil, fmt.Errorf("scheme weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[int]float64)
	for rows.Next() {
		var id int
		var w float64
		if err := rows.Scan(&id, &w); err != nil {
			return nil, err
		}
		weights[id] = w
	}
	return weights, rows.Err()
}

func (s *PostgresStore) ResolveGeographies(ctx context.Context, alpha3 []string) (map[string]Geography, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT geo_id, international_code, geo_shorthand_2, geo_shorthand_3, country_name
		FROM geographies
		WHERE geo_shorthand_3 = ANY($1)`, alpha3)
	if err != nil {
		return nil, fmt.Errorf("resolve geographies: %w", err)
	}
	defer rows.Close()

	geos := make(map[string]Geography)
	for rows.Next() {
		var g Geography
		if err := rows.Scan(&g.ID, &g.InternationalCode, &g.Alpha2, &g.Alpha3, &g.Name); err != nil {
			return nil, err
		}
		geos[g.Alpha3] = g
	}
	return geos, rows.Err()
}

// FetchBatch issues six queries regardless of how many pairs are requested:
// proxy flags, weighted rows, single scores, and the three bound aggregates.
func (s *PostgresStore) FetchBatch(ctx context.Context, pairs []ItemKey, schemeID int) (*Batch, error) {
	itemIDs, geoIDs := splitPairs(pairs)

	batch := &Batch{
		ProxyFlags:   make(map[ItemKey]bool),
		Weighted:     make(map[ItemKey][]WeightedRow),
		SingleScores: make(map[ItemKey]*float64),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT m.item_id, m.geo_id, m.proxy_flag
		FROM item_metadata m
		JOIN unnest($1::text[], $2::int[]) AS req(item_id, geo_id)
		  ON m.item_id = req.item_id AND m.geo_id = req.geo_id`,
		itemIDs, geoIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy flags: %w", err)
	}
	for rows.Next() {
		var key ItemKey
		var proxy bool
		if err := rows.Scan(&key.ItemID, &key.GeoID, &proxy); err != nil {
			rows.Close()
			return nil, err
		}
		batch.ProxyFlags[key] = proxy
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range pairs {
		if _, ok := batch.ProxyFlags[p]; !ok {
			batch.Unknown = append(batch.Unknown, p)
		}
	}

	rows, err = s.pool.Query(ctx, `
		SELECT w.item_id, w.geo_id, w.ic_id, w.lc_stage_id, w.weighted_value
		FROM weighted_results w
		JOIN unnest($1::text[], $2::int[]) AS req(item_id, geo_id)
		  ON w.item_id = req.item_id AND w.geo_id = req.geo_id
		WHERE w.scheme_id = $3 AND w.weighted_value IS NOT NULL`,
		itemIDs, geoIDs, schemeID)
	if err != nil {
		return nil, fmt.Errorf("fetch weighted results: %w", err)
	}
	for rows.Next() {
		var key ItemKey
		var wr WeightedRow
		if err := rows.Scan(&key.ItemID, &key.GeoID, &wr.CategoryID, &wr.StageID, &wr.Value); err != nil {
			rows.Close()
			return nil, err
		}
		batch.Weighted[key] = append(batch.Weighted[key], wr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT ss.item_id, ss.geo_id, ss.single_score
		FROM single_scores ss
		JOIN unnest($1::text[], $2::int[]) AS req(item_id, geo_id)
		  ON ss.item_id = req.item_id AND ss.geo_id = req.geo_id
		WHERE ss.scheme_id = $3`,
		itemIDs, geoIDs, schemeID)
	if err != nil {
		return nil, fmt.Errorf("fetch single scores: %w", err)
	}
	for rows.Next() {
		var key ItemKey
		var score *float64
		if err := rows.Scan(&key.ItemID, &key.GeoID, &score); err != nil {
			rows.Close()
			return nil, err
		}
		batch.SingleScores[key] = score
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bounds, err := s.fetchBounds(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	batch.Bounds = *bounds

	return batch, nil
}

// fetchBounds aggregates scheme-wide min/max over non-proxy rows. Proxy data
// must not stretch the grading scale.
func (s *PostgresStore) fetchBounds(ctx context.Context, schemeID int) (*Bounds, error) {
	bounds := &Bounds{
		Categories: make(map[int]MinMax),
		Stages:     make(map[int]MinMax),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT w.ic_id, MIN(w.weighted_value), MAX(w.weighted_value)
		FROM weighted_results w
		JOIN item_metadata m ON m.item_id = w.item_id AND m.geo_id = w.geo_id
		WHERE w.scheme_id = $1 AND m.proxy_flag = FALSE AND w.weighted_value IS NOT NULL
		GROUP BY w.ic_id`, schemeID)
	if err != nil {
		return nil, fmt.Errorf("fetch category bounds: %w", err)
	}
	for rows.Next() {
		var id int
		var mm MinMax
		if err := rows.Scan(&id, &mm.Min, &mm.Max); err != nil {
			rows.Close()
			return nil, err
		}
		bounds.Categories[id] = mm
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT w.lc_stage_id, MIN(w.weighted_value), MAX(w.weighted_value)
		FROM weighted_results w
		JOIN item_metadata m ON m.item_id = w.item_id AND m.geo_id = w.geo_id
		WHERE w.scheme_id = $1 AND m.proxy_flag = FALSE AND w.weighted_value IS NOT NULL
		GROUP BY w.lc_stage_id`, schemeID)
	if err != nil {
		return nil, fmt.Errorf("fetch stage bounds: %w", err)
	}
	for rows.Next() {
		var id int
		var mm MinMax
		if err := rows.Scan(&id, &mm.Min, &mm.Max); err != nil {
			rows.Close()
			return nil, err
		}
		bounds.Stages[id] = mm
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(MIN(ss.single_score), 0), COALESCE(MAX(ss.single_score), 0)
		FROM single_scores ss
		JOIN item_metadata m ON m.item_id = ss.item_id AND m.geo_id = ss.geo_id
		WHERE ss.scheme_id = $1 AND m.proxy_flag = FALSE AND ss.single_score IS NOT NULL`,
		schemeID,
	).Scan(&bounds.SingleScore.Min, &bounds.SingleScore.Max)
	if err != nil {
		return nil, fmt.Errorf("fetch single score bounds: %w", err)
	}

	return bounds, nil
}

func (s *PostgresStore) ReferenceNames(ctx context.Context, stageIDs, categoryIDs []int) (*Names, error) {
	names := &Names{
		Stages:     make(map[int]string),
		Categories: make(map[int]string),
	}

	if len(stageIDs) > 0 {
		rows, err := s.pool.Query(ctx, `
			SELECT lc_stage_id, lc_name FROM lifecycle_stages WHERE lc_stage_id = ANY($1)`, stageIDs)
		if err != nil {
			return nil, fmt.Errorf("fetch stage names: %w", err)
		}
		for rows.Next() {
			var id int
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, err
			}
			names.Stages[id] = name
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	if len(categoryIDs) > 0 {
		rows, err := s.pool.Query(ctx, `
			SELECT ic_id, ic_name FROM impact_categories WHERE ic_id = ANY($1)`, categoryIDs)
		if err != nil {
			return nil, fmt.Errorf("fetch category names: %w", err)
		}
		for rows.Next() {
			var id int
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, err
			}
			names.Categories[id] = name
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return names, nil
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]ItemInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.item_id, m.geo_id, m.name_lci, g.country_name, g.international_code,
		       g.geo_shorthand_3, gr.group_name, sg.subgroup_name, m.proxy_flag
		FROM item_metadata m
		JOIN geographies g ON g.geo_id = m.geo_id
		LEFT JOIN groups gr ON gr.group_id = m.group_id
		LEFT JOIN subgroups sg ON sg.subgroup_id = m.subgroup_id
		ORDER BY m.item_id, m.geo_id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []ItemInfo
	for rows.Next() {
		var it ItemInfo
		var alpha3 string
		if err := rows.Scan(&it.Key.ItemID, &it.Key.GeoID, &it.Name, &it.Country,
			&it.InternationalCode, &alpha3, &it.Group, &it.Subgroup, &it.Proxy); err != nil {
			return nil, err
		}
		it.Selector = it.Key.ItemID + "-" + alpha3
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListSchemes(ctx context.Context) ([]Scheme, error) {
	rows, err := s.pool.Query(ctx, `SELECT scheme_id, name FROM weighting_schemes ORDER BY scheme_id`)
	if err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []Scheme
	for rows.Next() {
		var sch Scheme
		if err := rows.Scan(&sch.ID, &sch.Name); err != nil {
			return nil, err
		}
		schemes = append(schemes, sch)
	}
	return schemes, rows.Err()
}

func splitPairs(pairs []ItemKey) ([]string, []int) {
	itemIDs := make([]string, len(pairs))
	geoIDs := make([]int, len(pairs))
	for i, p := range pairs {
		itemIDs[i] = p.ItemID
		geoIDs[i] = p.GeoID
	}
	return itemIDs, geoIDs
}
