package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"comparables/server/internal/geometry"
	"comparables/server/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrListingNotFound is returned when a listing key is not in the store.
var ErrListingNotFound = errors.New("listing not found")

// DefaultCandidateLimit caps a candidate query when the caller sets no limit.
const DefaultCandidateLimit = 200

type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, err
	}
	// SQLite allows one writer; the import workers serialize on this.
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(&sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &Database{db: db}, nil
}

// GetDB exposes the gorm handle for transactional writers.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertListings inserts the batch, replacing stored listings with the same
// listing key.
func UpsertListings(tx *gorm.DB, batch []*models.Listing) error {
	if len(batch) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_key"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).CreateInBatches(batch, 100).Error
}

var upsertColumns = []string{
	"status", "property_type", "property_sub_type", "address", "city",
	"postal_code", "subdivision", "list_price", "close_price", "living_area",
	"beds", "baths", "year_built", "latitude", "longitude", "list_date",
	"close_date", "days_on_market", "updated_at",
}

// GetListing returns the stored listing with the given key.
func (d *Database) GetListing(ctx context.Context, key string) (*models.Listing, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Where("listing_key = ?", key).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s: %w", key, err)
	}
	return &listing, nil
}

// FindComps returns the listings passing the query's hard filters, most
// recent first. The radius is applied as a bounding box in SQL and checked
// exactly afterwards.
func (d *Database) FindComps(ctx context.Context, q models.CompQuery) ([]models.Listing, error) {
	statuses := make([]string, len(models.CompStatuses))
	for i, s := range models.CompStatuses {
		statuses[i] = strings.ToLower(s)
	}

	tx := d.db.WithContext(ctx).Model(&models.Listing{}).
		Where("LOWER(status) IN ?", statuses).
		Where("living_area > 0").
		Where("(COALESCE(close_price, 0) > 0 OR list_price > 0)")

	if q.ExcludeKey != "" {
		tx = tx.Where("listing_key <> ?", q.ExcludeKey)
	}
	if q.Subdivision != "" {
		tx = tx.Where("LOWER(TRIM(subdivision)) = LOWER(?)", strings.TrimSpace(q.Subdivision))
	}
	if q.Beds != nil {
		tx = tx.Where("beds BETWEEN ? AND ?", *q.Beds-q.BedRange, *q.Beds+q.BedRange)
	}
	if q.Baths != nil {
		tx = tx.Where("baths BETWEEN ? AND ?", *q.Baths-q.BathRange, *q.Baths+q.BathRange)
	}
	if q.Sqft != nil && q.SqftRange > 0 {
		tx = tx.Where("living_area BETWEEN ? AND ?", *q.Sqft-q.SqftRange, *q.Sqft+q.SqftRange)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("COALESCE(close_date, list_date) >= ?", q.Since.UTC())
	}
	if q.Center != nil && q.RadiusMiles != nil {
		bound := geometry.RadiusBound(*q.Center, *q.RadiusMiles)
		tx = tx.Where("latitude BETWEEN ? AND ?", bound.Min.Lat(), bound.Max.Lat()).
			Where("longitude BETWEEN ? AND ?", bound.Min.Lon(), bound.Max.Lon())
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	var rows []models.Listing
	err := tx.Order("COALESCE(close_date, list_date) DESC").Order("listing_key").
		Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query comps: %w", err)
	}

	listings := rows[:0]
	for i := range rows {
		if q.Matches(&rows[i]) {
			listings = append(listings, rows[i])
		}
	}
	return listings, nil
}

// GetListingStats counts stored listings by status.
func (d *Database) GetListingStats(ctx context.Context) (models.ListingStats, error) {
	var stats models.ListingStats
	err := d.db.WithContext(ctx).Model(&models.Listing{}).Select(`
		COUNT(*) AS total_listings,
		COALESCE(SUM(CASE WHEN LOWER(status) IN ('active', 'pending') THEN 1 ELSE 0 END), 0) AS total_active,
		COALESCE(SUM(CASE WHEN LOWER(status) IN ('closed', 'sold') THEN 1 ELSE 0 END), 0) AS total_closed
	`).Scan(&stats).Error
	if err != nil {
		return stats, fmt.Errorf("failed to get listing stats: %w", err)
	}
	return stats, nil
}
