package mockdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tatianab/chronicle/internal/geo"
	"github.com/tatianab/chronicle/internal/models"
)

// ErrNoImage is returned by Gateway.Image; offline play has no pictures.
var ErrNoImage = errors.New("image generation unavailable in offline mode")

// Gateway answers every generator call from local rules. It is used when
// no API key is configured, and by tests.
type Gateway struct{}

// Intervene brightens everything near the target, founds one new city and
// writes a generic account of the ripple.
func (Gateway) Intervene(ctx context.Context, req models.InterventionRequest) (*models.InterventionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := req.Target
	cities := make([]models.City, 0, len(req.World.Cities)+1)
	for _, c := range req.World.Cities {
		if geo.Within(target, c.Position(), 20, 30) {
			c.Boost(0.2, 1)
			c.Change = models.ChangeBrighter
			c.CausalNote = fmt.Sprintf("Because %s, this region experienced accelerated development and increased trade.", req.Description)
		} else {
			c.Change = models.ChangeUnchanged
			c.CausalNote = ""
		}
		cities = append(cities, c)
	}

	hub := offset(target, 5, 5)
	cities = append(cities, models.City{
		ID:           fmt.Sprintf("new-city-%d", len(req.History)),
		Name:         "New Trade Hub",
		Lat:          hub.Lat,
		Lng:          hub.Lng,
		Population:   15000,
		Brightness:   0.7,
		TechLevel:    models.ClampTechLevel(4 + len(req.History)),
		Civilization: "Emerging",
		Description:  "A new city that emerged as a result of changed trade patterns.",
		CausalNote:   fmt.Sprintf("Because %s, this location became a crucial nexus for new trade routes.", req.Description),
		Change:       models.ChangeNew,
	})

	routes := make([]models.TradeRoute, len(req.World.TradeRoutes))
	for i, r := range req.World.TradeRoutes {
		r.Volume++
		routes[i] = r
	}

	span := req.EndYear - req.StartYear
	step := func(n int) int { return req.StartYear + span*n/4 }
	second, third := offset(target, 10, 10), offset(target, 20, -10)

	return &models.InterventionResult{
		Milestones: []models.Milestone{
			{Year: step(1), Lat: target.Lat, Lng: target.Lng, Event: fmt.Sprintf("The effects of %q begin to spread", req.Description), CausalLink: "Direct result of player intervention"},
			{Year: step(2), Lat: second.Lat, Lng: second.Lng, Event: "Neighboring regions adopt new practices", CausalLink: "Cultural diffusion from intervention point"},
			{Year: step(3), Lat: third.Lat, Lng: third.Lng, Event: "Trade networks restructure around new centers", CausalLink: "Economic ripple effects"},
		},
		Cities:          cities,
		TradeRoutes:     routes,
		Regions:         append([]models.Region(nil), req.World.Regions...),
		WorldNarrative:  fmt.Sprintf("The world has been transformed by the player's intervention: %q. New powers are rising, old empires are adapting, and the flow of history has been forever altered.", req.Description),
		NarrationScript: fmt.Sprintf("From the point of intervention, a wave of change spreads across the globe. %s sends ripples through trade networks and political alliances. Cities that once dominated begin to share power with new rising centers. By the end of this epoch, the world map has been redrawn by forces set in motion by a single decision.", capitalize(req.Description)),
		MostSurprising: models.Surprise{
			Lat:         offset(target, 15, 20).Lat,
			Lng:         offset(target, 15, 20).Lng,
			Description: "An unexpected civilization emerged in this unlikely location",
			CausalChain: []string{
				"Player intervention changes local dynamics",
				"Displaced peoples migrate to new territories",
				"They bring knowledge and practices to fertile land",
				"A new civilization flourishes where none existed before",
			},
		},
	}, nil
}

// Score always returns DefaultScore.
func (Gateway) Score(ctx context.Context, req models.ScoreRequest) (*models.Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := DefaultScore(req.History)
	return &s, nil
}

func (Gateway) Image(ctx context.Context, _ models.ImageRequest) ([]byte, error) {
	return nil, ErrNoImage
}

// DefaultScore is the verdict used whenever scoring fails.
func DefaultScore(history []models.Intervention) models.Score {
	chain := make([]string, len(history))
	for i, iv := range history {
		chain[i] = iv.Description
	}
	return models.Score{
		Score:       50,
		Summary:     "Your decisions shaped history in unexpected ways.",
		CausalChain: chain,
	}
}

type area struct {
	name, civilization string
	minLat, maxLat     float64
	minLng, maxLng     float64
}

// Checked in order; the first box containing the point wins.
var areas = []area{
	{"Fertile Crescent", "Mesopotamian and Levantine", 25, 45, 30, 50},
	{"Egypt and the Nile", "Egyptian", 20, 35, 25, 40},
	{"Indus Valley", "Indus Valley", 25, 40, 60, 80},
	{"East Asia", "Chinese", 20, 45, 100, 130},
	{"Mediterranean", "Mediterranean", 30, 50, -10, 30},
	{"Northern Europe", "European tribal", 40, 60, -10, 40},
	{"Americas", "Pre-Columbian", -20, 20, -80, -30},
}

// RegionContext describes a point from a fixed gazetteer.
func RegionContext(lat, lng float64, year int) models.RegionContext {
	name, civ := "Unknown Region", "Local peoples"
	for _, a := range areas {
		if lat > a.minLat && lat < a.maxLat && lng > a.minLng && lng < a.maxLng {
			name, civ = a.name, a.civilization
			break
		}
	}

	return models.RegionContext{
		Description: fmt.Sprintf("The %s at %s. %s peoples dominate this area, with established settlements and developing trade networks. Tensions between neighboring groups create both conflict and opportunity for change.", name, models.FormatYear(year), civ),
		Suggestions: []models.Suggestion{
			{Text: fmt.Sprintf("A charismatic leader unifies the scattered %s tribes into a powerful confederation", name), Reasoning: "Political unification often accelerates technological and cultural development"},
			{Text: fmt.Sprintf("%s metallurgists discover a revolutionary new alloy 500 years ahead of schedule", civ), Reasoning: "Technological leaps can reshape military and economic balances across regions"},
			{Text: fmt.Sprintf("A devastating plague sweeps through %s, decimating the population but opening land for newcomers", name), Reasoning: "Catastrophes can redirect the flow of history by clearing paths for new civilizations"},
			{Text: "Traders from a distant land arrive with exotic goods and revolutionary ideas", Reasoning: "Cross-cultural contact often sparks innovation and changes power dynamics"},
		},
	}
}

// offset moves p by the given degrees, clamping latitude and wrapping longitude.
func offset(p models.LatLng, dLat, dLng float64) models.LatLng {
	lat := math.Max(-90, math.Min(90, p.Lat+dLat))
	lng := math.Mod(p.Lng+dLng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return models.LatLng{Lat: lat, Lng: lng - 180}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
