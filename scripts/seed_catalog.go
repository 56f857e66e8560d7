// seed_catalog.go — standalone script to create the catalog schema and load a
// small development dataset.
//
// Usage:
//
//	go run scripts/seed_catalog.go -db postgres://localhost/platescore -drop
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS weighting_schemes (
		scheme_id INT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS impact_categories (
		ic_id INT PRIMARY KEY,
		ic_name TEXT NOT NULL,
		ic_shorthand TEXT NOT NULL,
		normalization_value DOUBLE PRECISION,
		normalization_unit TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_stages (
		lc_stage_id INT PRIMARY KEY,
		lc_shorthand TEXT NOT NULL,
		lc_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS impact_category_weights (
		scheme_id INT NOT NULL REFERENCES weighting_schemes(scheme_id),
		ic_id INT NOT NULL REFERENCES impact_categories(ic_id),
		ic_weight DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (scheme_id, ic_id)
	)`,
	`CREATE TABLE IF NOT EXISTS geographies (
		geo_id INT PRIMARY KEY,
		international_code INT NOT NULL,
		geo_shorthand_2 TEXT NOT NULL,
		geo_shorthand_3 TEXT NOT NULL UNIQUE,
		country_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		group_id INT PRIMARY KEY,
		group_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subgroups (
		subgroup_id INT PRIMARY KEY,
		subgroup_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS item_metadata (
		item_id TEXT NOT NULL,
		geo_id INT NOT NULL REFERENCES geographies(geo_id),
		name_lci TEXT NOT NULL,
		group_id INT REFERENCES groups(group_id),
		subgroup_id INT REFERENCES subgroups(subgroup_id),
		proxy_flag BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (item_id, geo_id)
	)`,
	`CREATE TABLE IF NOT EXISTS weighted_results (
		item_id TEXT NOT NULL,
		geo_id INT NOT NULL,
		scheme_id INT NOT NULL REFERENCES weighting_schemes(scheme_id),
		ic_id INT NOT NULL REFERENCES impact_categories(ic_id),
		lc_stage_id INT NOT NULL REFERENCES lifecycle_stages(lc_stage_id),
		weighted_value DOUBLE PRECISION,
		PRIMARY KEY (item_id, geo_id, scheme_id, ic_id, lc_stage_id),
		FOREIGN KEY (item_id, geo_id) REFERENCES item_metadata(item_id, geo_id)
	)`,
	`CREATE TABLE IF NOT EXISTS single_scores (
		item_id TEXT NOT NULL,
		geo_id INT NOT NULL,
		scheme_id INT NOT NULL REFERENCES weighting_schemes(scheme_id),
		single_score DOUBLE PRECISION,
		PRIMARY KEY (item_id, geo_id, scheme_id),
		FOREIGN KEY (item_id, geo_id) REFERENCES item_metadata(item_id, geo_id)
	)`,
}

var dropTables = []string{
	"single_scores", "weighted_results", "item_metadata", "subgroups", "groups",
	"geographies", "impact_category_weights", "lifecycle_stages",
	"impact_categories", "weighting_schemes",
}

var seed = []string{
	`INSERT INTO weighting_schemes (scheme_id, name) VALUES
		(1, 'ef31_r0510'), (2, 'ef31_r0110'), (3, 'ef31_nr'),
		(4, 'delphi_r0510'), (5, 'delphi_r0110'), (6, 'delphi_nr')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO lifecycle_stages (lc_stage_id, lc_shorthand, lc_name) VALUES
		(1, 'agri', 'Agriculture'),
		(2, 'proc', 'Processing'),
		(3, 'pack', 'Packaging'),
		(4, 'trans', 'Transport'),
		(5, 'retail', 'Retail'),
		(6, 'cons', 'Consumption')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO impact_categories (ic_id, ic_name, ic_shorthand, normalization_value, normalization_unit) VALUES
		(1, 'Climate change', 'cc', 7553, 'kg CO2 eq'),
		(2, 'Ozone depletion', 'odp', 0.0536, 'kg CFC11 eq'),
		(3, 'Ionising radiation', 'ir', 4220, 'kBq U-235 eq'),
		(4, 'Photochemical ozone formation', 'pocp', 40.1, 'kg NMVOC eq'),
		(5, 'Particulate matter', 'pm', 0.000595, 'disease inc.'),
		(6, 'Human toxicity, non-cancer', 'htox_nc', 0.000229, 'CTUh'),
		(7, 'Human toxicity, cancer', 'htox_c', 0.0000169, 'CTUh'),
		(8, 'Acidification', 'ac', 55.6, 'mol H+ eq'),
		(9, 'Eutrophication, freshwater', 'fwe', 1.61, 'kg P eq'),
		(10, 'Eutrophication, marine', 'swe', 19.5, 'kg N eq'),
		(11, 'Eutrophication, terrestrial', 'te', 177, 'mol N eq'),
		(12, 'Ecotoxicity, freshwater', 'ecotox', 56700, 'CTUe'),
		(13, 'Land use', 'lu', 819000, 'Pt'),
		(14, 'Water use', 'wu', 11500, 'm3 depriv.'),
		(15, 'Resource use, fossils', 'fru', 65000, 'MJ'),
		(16, 'Resource use, minerals and metals', 'mru', 0.0636, 'kg Sb eq'),
		(17, 'Biodiversity', 'bdv', 1.0, 'PDF')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO impact_category_weights (scheme_id, ic_id, ic_weight)
		SELECT s.scheme_id, c.ic_id, 1.0 / 17
		FROM weighting_schemes s CROSS JOIN impact_categories c
		ON CONFLICT DO NOTHING`,
	`INSERT INTO geographies (geo_id, international_code, geo_shorthand_2, geo_shorthand_3, country_name) VALUES
		(11, 250, 'FR', 'FRA', 'France'),
		(12, 276, 'DE', 'DEU', 'Germany'),
		(13, 380, 'IT', 'ITA', 'Italy'),
		(14, 724, 'ES', 'ESP', 'Spain')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO groups (group_id, group_name) VALUES
		(1, 'Vegetables'), (2, 'Fruits'), (3, 'Cereal products')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO subgroups (subgroup_id, subgroup_name) VALUES
		(1, 'Root vegetables'), (2, 'Citrus'), (3, 'Bread')
		ON CONFLICT DO NOTHING`,
	`INSERT INTO item_metadata (item_id, geo_id, name_lci, group_id, subgroup_id, proxy_flag) VALUES
		('10001', 11, 'Carrot, raw', 1, 1, FALSE),
		('10001', 12, 'Carrot, raw', 1, 1, TRUE),
		('10002', 13, 'Orange, raw', 2, 2, FALSE),
		('10003', 11, 'Baguette, wheat', 3, 3, FALSE)
		ON CONFLICT DO NOTHING`,
	`INSERT INTO weighted_results (item_id, geo_id, scheme_id, ic_id, lc_stage_id, weighted_value)
		SELECT m.item_id, m.geo_id, s.scheme_id, c.ic_id, st.lc_stage_id,
		       0.001 * c.ic_id * st.lc_stage_id
		FROM item_metadata m
		CROSS JOIN weighting_schemes s
		CROSS JOIN impact_categories c
		CROSS JOIN lifecycle_stages st
		WHERE st.lc_stage_id IN (1, 2, 4, 5)
		  AND (c.ic_id <> 17 OR st.lc_stage_id = 1)
		ON CONFLICT DO NOTHING`,
	`INSERT INTO single_scores (item_id, geo_id, scheme_id, single_score)
		SELECT m.item_id, m.geo_id, s.scheme_id, 0.05 * s.scheme_id
		FROM item_metadata m CROSS JOIN weighting_schemes s
		ON CONFLICT DO NOTHING`,
}

func main() {
	dbURL := flag.String("db", os.Getenv("PLATESCORE_DATABASE_URL"), "Postgres connection URL")
	drop := flag.Bool("drop", false, "drop existing catalog tables first")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("database URL required: pass -db or set PLATESCORE_DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if *drop {
		for _, table := range dropTables {
			if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
				log.Fatalf("drop %s: %v", table, err)
			}
		}
		log.Println("dropped existing catalog tables")
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("create schema: %v", err)
		}
	}
	log.Println("schema ready")

	for _, stmt := range seed {
		tag, err := pool.Exec(ctx, stmt)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if tag.RowsAffected() > 0 {
			log.Printf("seeded %d rows", tag.RowsAffected())
		}
	}
	log.Println("catalog seeded")
}
