package models

import (
	"fmt"
	"strings"
)

// Change classifies how a city differs from the previous snapshot.
type Change string

const (
	ChangeBrighter  Change = "brighter"
	ChangeDimmer    Change = "dimmer"
	ChangeNew       Change = "new"
	ChangeGone      Change = "gone"
	ChangeUnchanged Change = "unchanged"
)

// ParseChange normalises a change tag. The empty string means unchanged.
func ParseChange(s string) (Change, error) {
	switch c := Change(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChangeUnchanged, nil
	case ChangeBrighter, ChangeDimmer, ChangeNew, ChangeGone, ChangeUnchanged:
		return c, nil
	default:
		return "", fmt.Errorf("unknown change tag %q", s)
	}
}

const (
	MinTechLevel = 1
	MaxTechLevel = 10
)

// ClampBrightness keeps b in [0,1].
func ClampBrightness(b float64) float64 {
	switch {
	case b != b: // NaN
		return 0
	case b < 0:
		return 0
	case b > 1:
		return 1
	}
	return b
}

// ClampTechLevel keeps t in [1,10].
func ClampTechLevel(t int) int {
	if t < MinTechLevel {
		return MinTechLevel
	}
	if t > MaxTechLevel {
		return MaxTechLevel
	}
	return t
}

// Boost adjusts brightness and tech level, clamping both into range.
func (c *City) Boost(brightness float64, tech int) {
	c.Brightness = ClampBrightness(c.Brightness + brightness)
	c.TechLevel = ClampTechLevel(c.TechLevel + tech)
}

// Clone returns a deep copy of the world.
func (w WorldState) Clone() WorldState {
	out := w
	out.Cities = append([]City(nil), w.Cities...)
	out.TradeRoutes = append([]TradeRoute(nil), w.TradeRoutes...)
	out.Regions = append([]Region(nil), w.Regions...)
	return out
}

// City looks up a city by id.
func (w WorldState) City(id string) (City, bool) {
	for _, c := range w.Cities {
		if c.ID == id {
			return c, true
		}
	}
	return City{}, false
}

// Clone returns a deep copy of the result.
func (r InterventionResult) Clone() InterventionResult {
	out := r
	out.Milestones = append([]Milestone(nil), r.Milestones...)
	out.Cities = append([]City(nil), r.Cities...)
	out.TradeRoutes = append([]TradeRoute(nil), r.TradeRoutes...)
	out.Regions = append([]Region(nil), r.Regions...)
	out.MostSurprising.CausalChain = append([]string(nil), r.MostSurprising.CausalChain...)
	return out
}

// FormatYear renders a signed year as BC/AD. Year zero does not exist and is shown as 1 AD.
func FormatYear(year int) string {
	switch {
	case year < 0:
		return fmt.Sprintf("%d BC", -year)
	case year == 0:
		return "1 AD"
	default:
		return fmt.Sprintf("%d AD", year)
	}
}

var techPalette = [MaxTechLevel]string{
	"#4a3000", "#6b4400", "#8b6914", "#b8860b", "#daa520",
	"#f0c040", "#f5d060", "#fae080", "#fff4c0", "#ffffff",
}

// TechColor maps a tech level to its display color.
func TechColor(techLevel int) string {
	return techPalette[ClampTechLevel(techLevel)-1]
}
