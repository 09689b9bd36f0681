package models

import (
	"strings"
	"time"

	"comparables/server/internal/cma"
	"comparables/server/internal/geometry"

	"gorm.io/gorm"
)

// Listing statuses as reported by the MLS feed.
const (
	StatusActive  = "Active"
	StatusPending = "Pending"
	StatusClosed  = "Closed"
	StatusSold    = "Sold"
)

// CompStatuses are the statuses a listing may have to be used as a comp.
var CompStatuses = []string{StatusActive, StatusPending, StatusClosed, StatusSold}

// Listing is one MLS listing as stored in the comp store.
type Listing struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ListingKey      string     `gorm:"uniqueIndex;not null" json:"listing_key" binding:"required"`
	Status          string     `gorm:"index" json:"status" binding:"required"`
	PropertyType    string     `json:"property_type"`
	PropertySubType string     `json:"property_sub_type"`
	Address         string     `json:"address"`
	City            string     `gorm:"index" json:"city"`
	PostalCode      string     `json:"postal_code"`
	Subdivision     string     `gorm:"index" json:"subdivision"`
	ListPrice       float64    `json:"list_price" binding:"gte=0"`
	ClosePrice      *float64   `json:"close_price" binding:"omitempty,gte=0"`
	LivingArea      float64    `json:"living_area" binding:"gte=0"`
	Beds            float64    `json:"beds" binding:"gte=0"`
	Baths           float64    `json:"baths" binding:"gte=0"`
	YearBuilt       *int       `json:"year_built"`
	Latitude        *float64   `gorm:"index:idx_listings_coordinates" json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64   `gorm:"index:idx_listings_coordinates" json:"longitude" binding:"omitempty,longitude"`
	ListDate        time.Time  `json:"list_date"`
	CloseDate       *time.Time `gorm:"index" json:"close_date"`
	DaysOnMarket    *int       `json:"days_on_market"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsClosed reports whether the listing is a completed sale.
func (l *Listing) IsClosed() bool {
	s := strings.ToLower(l.Status)
	return (s == "closed" || s == "sold") && l.ClosePrice != nil && *l.ClosePrice > 0
}

// EffectivePrice is the close price for completed sales and the list price
// otherwise.
func (l *Listing) EffectivePrice() float64 {
	if l.IsClosed() {
		return *l.ClosePrice
	}
	return l.ListPrice
}

// EffectiveDate is the close date for completed sales and the list date
// otherwise.
func (l *Listing) EffectiveDate() time.Time {
	if l.IsClosed() && l.CloseDate != nil {
		return *l.CloseDate
	}
	return l.ListDate
}

// ToComp converts the stored listing into the engine's comp representation.
func (l *Listing) ToComp() cma.Comp {
	return cma.Comp{
		ListingKey:      l.ListingKey,
		Status:          l.Status,
		Price:           l.EffectivePrice(),
		ListPrice:       l.ListPrice,
		ClosePrice:      l.ClosePrice,
		Sqft:            l.LivingArea,
		Beds:            l.Beds,
		Baths:           l.Baths,
		Date:            l.EffectiveDate(),
		CloseDate:       l.CloseDate,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		PropertySubType: l.PropertySubType,
		Subdivision:     l.Subdivision,
		Address:         l.Address,
		YearBuilt:       l.YearBuilt,
		DaysOnMarket:    l.DaysOnMarket,
	}
}

// ToSubject derives a CMA subject from a stored listing.
func (l *Listing) ToSubject() cma.Subject {
	s := cma.Subject{
		PropertyID:  l.ListingKey,
		Subdivision: l.Subdivision,
	}
	if l.Beds > 0 {
		beds := l.Beds
		s.Beds = &beds
	}
	if l.Baths > 0 {
		baths := l.Baths
		s.Baths = &baths
	}
	if l.LivingArea > 0 {
		sqft := l.LivingArea
		s.Sqft = &sqft
	}
	if l.ListPrice > 0 {
		price := l.ListPrice
		s.ListPrice = &price
	}
	if p, ok := l.ToComp().Point(); ok {
		s.Location = &p
	}
	return s
}

// BeforeSave stores times in UTC so date filters compare lexically in SQLite,
// and stores placeholder coordinates as unknown.
func (l *Listing) BeforeSave(tx *gorm.DB) error {
	l.clearPlaceholderCoordinates()
	l.ListDate = l.ListDate.UTC()
	if l.CloseDate != nil {
		closed := l.CloseDate.UTC()
		l.CloseDate = &closed
	}
	return nil
}

func (l *Listing) clearPlaceholderCoordinates() {
	if l.Latitude == nil || l.Longitude == nil || !geometry.ValidCoordinates(*l.Latitude, *l.Longitude) {
		l.Latitude, l.Longitude = nil, nil
	}
}

// ListingStats summarizes the comp store contents.
type ListingStats struct {
	TotalListings int `json:"total_listings"`
	TotalActive   int `json:"total_active"`
	TotalClosed   int `json:"total_closed"`
	QueuedBatches int `json:"queued_batches"`
	QueueCapacity int `json:"queue_capacity"`
}
