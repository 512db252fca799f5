package models

import (
	"fmt"
	"strings"
)

// CoerceResult enforces the world invariants on a generator result in
// place: ranges are clamped, change tags normalised, and anything that
// cannot be repaired is reported as ErrInvalid.
func CoerceResult(r *InterventionResult) error {
	cities, err := coerceCities(r.Cities)
	if err != nil {
		return err
	}
	r.Cities = cities

	if err := checkRoutes(r.TradeRoutes); err != nil {
		return err
	}
	if err := checkRegions(r.Regions); err != nil {
		return err
	}
	for i, m := range r.Milestones {
		if !ValidLatLng(m.Lat, m.Lng) {
			return fmt.Errorf("%w: milestone %d has invalid coordinates", ErrInvalid, i)
		}
	}
	if strings.TrimSpace(r.WorldNarrative) == "" {
		return fmt.Errorf("%w: empty world narrative", ErrInvalid)
	}
	if !ValidLatLng(r.MostSurprising.Lat, r.MostSurprising.Lng) {
		r.MostSurprising.Lat, r.MostSurprising.Lng = 0, 0
		r.MostSurprising.Description = ""
	}
	return nil
}

// CoerceWorld is CoerceResult for a generated starting world.
func CoerceWorld(w *WorldState) error {
	cities, err := coerceCities(w.Cities)
	if err != nil {
		return err
	}
	w.Cities = cities
	if err := checkRoutes(w.TradeRoutes); err != nil {
		return err
	}
	return checkRegions(w.Regions)
}

// CoerceScore clamps the score to 0-100 and requires a summary.
func CoerceScore(s *Score) error {
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("%w: score has no summary", ErrInvalid)
	}
	s.Score = max(0, min(100, s.Score))
	return nil
}

func coerceCities(in []City) ([]City, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no cities", ErrInvalid)
	}
	out := make([]City, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		n, err := NormalizeCity(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("%w: duplicate city id %s", ErrInvalid, n.ID)
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out, nil
}

func checkRoutes(routes []TradeRoute) error {
	for _, r := range routes {
		if !finite(r.Volume) || r.Volume <= 0 {
			return fmt.Errorf("%w: trade route %s has volume %v", ErrInvalid, r.ID, r.Volume)
		}
		if !ValidLatLng(r.From.Lat, r.From.Lng) || !ValidLatLng(r.To.Lat, r.To.Lng) {
			return fmt.Errorf("%w: trade route %s has invalid endpoints", ErrInvalid, r.ID)
		}
	}
	return nil
}

func checkRegions(regions []Region) error {
	for _, r := range regions {
		if !finite(r.Radius) || r.Radius < 0 || !ValidLatLng(r.Center.Lat, r.Center.Lng) {
			return fmt.Errorf("%w: region %s has invalid geometry", ErrInvalid, r.ID)
		}
	}
	return nil
}
