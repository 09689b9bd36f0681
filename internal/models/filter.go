package models

import (
	"strings"
	"time"

	"comparables/server/internal/geometry"

	"github.com/paulmach/orb"
)

// CompQuery holds the hard filters a candidate listing must pass before it
// is scored. Nil fields are not filtered on.
type CompQuery struct {
	Subdivision string
	Beds        *float64
	Baths       *float64
	Sqft        *float64
	BedRange    float64
	BathRange   float64
	SqftRange   float64
	Center      *orb.Point
	RadiusMiles *float64
	// ExcludeKey drops the subject itself from its own comps.
	ExcludeKey string
	Since      time.Time
	Limit      int
}

// Matches checks if a listing passes the query's hard filters
func (q *CompQuery) Matches(l *Listing) bool {
	if q == nil {
		return true // No query means allow all
	}

	if l.ListingKey == q.ExcludeKey && q.ExcludeKey != "" {
		return false
	}
	if l.EffectivePrice() <= 0 || l.LivingArea <= 0 {
		return false
	}

	// Check status
	allowed := false
	for _, status := range CompStatuses {
		if strings.EqualFold(status, l.Status) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if q.Subdivision != "" && !strings.EqualFold(strings.TrimSpace(l.Subdivision), strings.TrimSpace(q.Subdivision)) {
		return false
	}

	// Check bed/bath/area windows around the subject
	if q.Beds != nil && (l.Beds < *q.Beds-q.BedRange || l.Beds > *q.Beds+q.BedRange) {
		return false
	}
	if q.Baths != nil && (l.Baths < *q.Baths-q.BathRange || l.Baths > *q.Baths+q.BathRange) {
		return false
	}
	if q.Sqft != nil && q.SqftRange > 0 && (l.LivingArea < *q.Sqft-q.SqftRange || l.LivingArea > *q.Sqft+q.SqftRange) {
		return false
	}

	if !q.Since.IsZero() && l.EffectiveDate().Before(q.Since) {
		return false
	}

	// Check radius
	if q.Center != nil && q.RadiusMiles != nil {
		if l.Latitude == nil || l.Longitude == nil || !geometry.ValidCoordinates(*l.Latitude, *l.Longitude) {
			return false // Radius search requires coordinates
		}
		if !geometry.WithinRadius(*q.Center, geometry.Point(*l.Latitude, *l.Longitude), *q.RadiusMiles) {
			return false
		}
	}

	return true
}
