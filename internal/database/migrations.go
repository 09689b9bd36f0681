package database

import (
	"fmt"

	"comparables/server/internal/models"
)

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Listing{}); err != nil {
		return fmt.Errorf("failed to migrate listings table: %w", err)
	}

	// Candidate queries order by the effective sale date
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_effective_date
		ON listings(COALESCE(close_date, list_date));
	`).Error; err != nil {
		return fmt.Errorf("failed to create effective date index: %w", err)
	}

	return nil
}
