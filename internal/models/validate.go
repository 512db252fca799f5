package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalid marks a snapshot or result that breaks the world invariants.
var ErrInvalid = errors.New("invalid world data")

// ValidLatLng reports whether lat and lng are finite and on the globe.
func ValidLatLng(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// NormalizeCity checks the fields a city cannot do without and clamps the
// ones that have a range. The input is not modified.
func NormalizeCity(c City) (City, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" {
		return City{}, errors.New("city has no id")
	}
	if c.Name == "" {
		return City{}, fmt.Errorf("city %s has no name", c.ID)
	}
	if !ValidLatLng(c.Lat, c.Lng) {
		return City{}, fmt.Errorf("city %s has invalid coordinates (%v, %v)", c.ID, c.Lat, c.Lng)
	}
	if c.Population < 0 {
		return City{}, fmt.Errorf("city %s has negative population %d", c.ID, c.Population)
	}
	change, err := ParseChange(string(c.Change))
	if err != nil {
		return City{}, fmt.Errorf("city %s: %w", c.ID, err)
	}
	c.Change = change
	c.Brightness = ClampBrightness(c.Brightness)
	c.TechLevel = ClampTechLevel(c.TechLevel)
	return c, nil
}

// ValidateWorld checks every invariant a snapshot must hold without
// coercing anything. Canned data must pass it as-is.
func ValidateWorld(w WorldState) error {
	if len(w.Cities) == 0 {
		return errors.New("world has no cities")
	}
	seen := make(map[string]bool, len(w.Cities))
	for _, c := range w.Cities {
		n, err := NormalizeCity(c)
		if err != nil {
			return err
		}
		if n.Brightness != c.Brightness || n.TechLevel != c.TechLevel {
			return fmt.Errorf("city %s is out of range (brightness %v, tech level %d)", c.ID, c.Brightness, c.TechLevel)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate city id %s", c.ID)
		}
		seen[c.ID] = true
	}
	if err := checkRoutes(w.TradeRoutes); err != nil {
		return err
	}
	return checkRegions(w.Regions)
}
