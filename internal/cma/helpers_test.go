package cma

import (
	"fmt"
	"time"
)

func f(v float64) *float64 { return &v }

func closedComp(key string, price, sqft float64, closed time.Time) Comp {
	return Comp{
		ListingKey: key,
		Status:     "Closed",
		Price:      price,
		ListPrice:  price,
		ClosePrice: f(price),
		Sqft:       sqft,
		Beds:       3,
		Baths:      2,
		Date:       closed,
		CloseDate:  &closed,
	}
}

func activeComp(key string, price, sqft, beds, baths float64) Comp {
	return Comp{
		ListingKey: key,
		Status:     "Active",
		Price:      price,
		ListPrice:  price,
		Sqft:       sqft,
		Beds:       beds,
		Baths:      baths,
		Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// uniformPool returns n comps of identical shape priced at the given
// price/sqft values.
func uniformPool(ppsf ...float64) []Comp {
	comps := make([]Comp, len(ppsf))
	for i, v := range ppsf {
		comps[i] = activeComp(fmt.Sprintf("L%02d", i), v*2000, 2000, 3, 2)
	}
	return comps
}

func keys(comps []ScoredComp) []string {
	out := make([]string, len(comps))
	for i, c := range comps {
		out[i] = c.ListingKey
	}
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
