package schema

import (
	"gorm.io/gorm"
)

// AllModels returns all schema models for GORM AutoMigrate.
func AllModels() []any {
	return []any{
		&Dataset{},
		&Unit{},
		&Field{},
		&CrawlRun{},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// ListingView is the name of the view with one row per dataset.
const ListingView = "dataset_listing"

// ListingViewSQL creates a view of datasets with their georeferencing
// status. It needs PostGIS geometry in units.
const ListingViewSQL = `CREATE OR REPLACE VIEW dataset_listing AS
SELECT d.dataset_id AS id,
	d.title AS dataset,
	COALESCE(NULLIF(d.landing_page, ''), d.source_url) AS link,
	d.provider,
	d.units_count,
	d.version_marker,
	EXISTS (
		SELECT 1 FROM units u
		WHERE u.dataset_id = d.dataset_id AND u.geom IS NOT NULL
	) AS is_geo_referenced
FROM datasets d`
