package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMiles(t *testing.T) {
	// Palm Springs to Palm Desert, roughly 11 miles apart.
	palmSprings := Point(33.8303, -116.5453)
	palmDesert := Point(33.7222, -116.3745)

	d := DistanceMiles(palmSprings, palmDesert)
	assert.InDelta(t, 12.3, d, 1.0)
	assert.Equal(t, 0.0, DistanceMiles(palmSprings, palmSprings))
}

func TestWithinRadius(t *testing.T) {
	center := Point(33.7222, -116.3745)

	tests := []struct {
		name   string
		point  [2]float64
		miles  float64
		within bool
	}{
		{"same point", [2]float64{33.7222, -116.3745}, 1, true},
		{"half mile north", [2]float64{33.7294, -116.3745}, 1, true},
		{"two miles east", [2]float64{33.7222, -116.3397}, 1, false},
		{"two miles east wide radius", [2]float64{33.7222, -116.3397}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithinRadius(center, Point(tt.point[0], tt.point[1]), tt.miles)
			assert.Equal(t, tt.within, got)
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(33.7, -116.3))
	assert.False(t, ValidCoordinates(0, 0))
	assert.False(t, ValidCoordinates(91, 10))
	assert.False(t, ValidCoordinates(10, 181))
}
