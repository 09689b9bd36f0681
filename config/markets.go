package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"comparables/server/internal/geometry"

	"github.com/paulmach/orb"
)

// ErrMarketNotFound is returned for names missing from the markets file.
var ErrMarketNotFound = errors.New("market not found")

// Market is a named area made of one or more subdivisions.
type Market struct {
	Name         string    `json:"name" binding:"required"`
	City         string    `json:"city,omitempty"`
	Subdivisions []string  `json:"subdivisions"`
	Center       []float64 `json:"center,omitempty" binding:"omitempty,len=2"`
	RadiusMiles  float64   `json:"radius_miles,omitempty" binding:"gte=0"`
}

// HasSubdivision reports whether the subdivision belongs to the market.
func (m Market) HasSubdivision(name string) bool {
	name = strings.TrimSpace(name)
	for _, s := range m.Subdivisions {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// CenterPoint returns the market centre, stored as [lat, lng], when it is
// configured with usable coordinates.
func (m Market) CenterPoint() (orb.Point, bool) {
	if len(m.Center) != 2 || !geometry.ValidCoordinates(m.Center[0], m.Center[1]) {
		return orb.Point{}, false
	}
	return geometry.Point(m.Center[0], m.Center[1]), true
}

// MarketsConfig represents the full markets file
type MarketsConfig struct {
	Markets []Market `json:"markets"`
}

// Markets holds the market areas loaded from a JSON file.
type Markets struct {
	mu     sync.RWMutex
	path   string
	config MarketsConfig
}

// LoadMarkets loads the markets configuration from file. A missing file
// yields an empty set that is created on the first save.
func LoadMarkets(path string) (*Markets, error) {
	m := &Markets{path: path}

	// Get absolute path to config file
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	m.path = absPath

	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read markets file: %w", err)
	}

	if err := json.Unmarshal(data, &m.config); err != nil {
		return nil, fmt.Errorf("failed to parse markets file: %w", err)
	}
	return m, nil
}

// save writes the configuration back to file. Callers hold the write lock.
func (m *Markets) save() error {
	// Marshal configuration with pretty printing
	data, err := json.MarshalIndent(m.config, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal markets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create markets directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write markets file: %w", err)
	}
	return nil
}

// All returns all configured markets
func (m *Markets) All() []Market {
	m.mu.RLock()
	defer m.mu.RUnlock()

	markets := make([]Market, len(m.config.Markets))
	copy(markets, m.config.Markets)
	return markets
}

// ByName returns a specific market by name, ignoring case
func (m *Markets) ByName(name string) (Market, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, market := range m.config.Markets {
		if strings.EqualFold(market.Name, name) {
			return market, nil
		}
	}
	return Market{}, fmt.Errorf("%w: %s", ErrMarketNotFound, name)
}

// ForSubdivision returns the first market containing the subdivision.
func (m *Markets) ForSubdivision(subdivision string) (Market, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, market := range m.config.Markets {
		if market.HasSubdivision(subdivision) {
			return market, true
		}
	}
	return Market{}, false
}

// Update updates or adds a market and persists the file
func (m *Markets) Update(market Market) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Find and update existing market or add new one
	found := false
	for i, existing := range m.config.Markets {
		if strings.EqualFold(existing.Name, market.Name) {
			m.config.Markets[i] = market
			found = true
			break
		}
	}
	if !found {
		m.config.Markets = append(m.config.Markets, market)
	}

	return m.save()
}

// Delete removes a market and persists the file
func (m *Markets) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, market := range m.config.Markets {
		if strings.EqualFold(market.Name, name) {
			m.config.Markets = append(m.config.Markets[:i], m.config.Markets[i+1:]...)
			return m.save()
		}
	}
	return fmt.Errorf("%w: %s", ErrMarketNotFound, name)
}
