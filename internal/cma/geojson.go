package cma

import (
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the subject and the located comps as GeoJSON
// points for map display. Comps without coordinates are skipped.
func (r *Report) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if r.Subject.Location != nil {
		f := geojson.NewFeature(*r.Subject.Location)
		f.Properties["role"] = "subject"
		f.Properties["pointEstimate"] = r.Summary.PointEstimate
		if r.Subject.PropertyID != "" {
			f.Properties["listingKey"] = r.Subject.PropertyID
		}
		fc.Append(f)
	}

	for i, c := range r.Comps {
		p, ok := c.Point()
		if !ok {
			continue
		}
		f := geojson.NewFeature(p)
		f.ID = c.ListingKey
		f.Properties["role"] = "comp"
		f.Properties["rank"] = i + 1
		f.Properties["listingKey"] = c.ListingKey
		f.Properties["status"] = c.Status
		f.Properties["price"] = c.Price
		f.Properties["sqft"] = c.Sqft
		f.Properties["pricePerSqft"] = roundCents(c.PricePerSqft)
		f.Properties["score"] = round(c.Score, 4)
		if c.Address != "" {
			f.Properties["address"] = c.Address
		}
		if c.DistanceMiles != nil {
			f.Properties["distanceMiles"] = round(*c.DistanceMiles, 2)
		}
		fc.Append(f)
	}
	return fc
}
