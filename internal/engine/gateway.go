package engine

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/tatianab/chronicle/internal/models"
)

// Intervene asks the model to simulate one epoch of consequences. The
// answer is validated before it is returned; a result that fails
// validation is an error, never a partial success.
func (e *Engine) Intervene(ctx context.Context, req models.InterventionRequest) (*models.InterventionResult, error) {
	span := req.EndYear - req.StartYear
	if span < 0 {
		span = -span
	}

	prompt, err := render("intervene.txt", struct {
		Span        int
		World       string
		History     string
		Lat, Lng    float64
		Chosen      *models.City
		Description string
		StartYear   int
		EndYear     int
		Schema      string
	}{
		Span:        span,
		World:       toYAML(req.World),
		History:     toYAML(req.History),
		Lat:         req.Target.Lat,
		Lng:         req.Target.Lng,
		Chosen:      req.Chosen,
		Description: req.Description,
		StartYear:   req.StartYear,
		EndYear:     req.EndYear,
		Schema:      SchemaText(&models.InterventionResult{}),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.callText(ctx, "intervene", prompt)
	if err != nil {
		return nil, err
	}

	var result models.InterventionResult
	if err := decode(text, &result); err != nil {
		return nil, err
	}
	if err := models.CoerceResult(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Score asks the model to judge the playthrough against the goal.
func (e *Engine) Score(ctx context.Context, req models.ScoreRequest) (*models.Score, error) {
	prompt, err := render("score.txt", struct {
		Goal    string
		History string
		Year    int
		World   string
		Schema  string
	}{
		Goal:    req.Goal,
		History: toYAML(req.History),
		Year:    req.World.Year,
		World:   toYAML(req.World),
		Schema:  SchemaText(&models.Score{}),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.callText(ctx, "score", prompt)
	if err != nil {
		return nil, err
	}

	var score models.Score
	if err := decode(text, &score); err != nil {
		return nil, err
	}
	if err := models.CoerceScore(&score); err != nil {
		return nil, err
	}
	return &score, nil
}

// Image renders a representative picture of the world and returns the raw
// image bytes.
func (e *Engine) Image(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	landmark := "a city at the height of its power"
	best := -1.0
	for _, c := range req.World.Cities {
		if c.Brightness > best {
			best = c.Brightness
			landmark = fmt.Sprintf("%s of the %s civilization", c.Name, c.Civilization)
		}
	}

	prompt, err := render("image.txt", struct {
		Year      int
		Goal      string
		Narrative string
		Landmark  string
	}{
		Year:      req.World.Year,
		Goal:      req.Goal,
		Narrative: req.World.Narrative,
		Landmark:  landmark,
	})
	if err != nil {
		return nil, err
	}

	parts, err := e.call(ctx, e.image, "image", prompt)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if blob, ok := p.(genai.Blob); ok && len(blob.Data) > 0 {
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("image: no image data in response: %w", ErrNoContent)
}

// RegionContext describes a point on the globe and suggests interventions there.
func (e *Engine) RegionContext(ctx context.Context, lat, lng float64, world models.WorldState) (*models.RegionContext, error) {
	prompt, err := render("region_context.txt", struct {
		World    string
		Lat, Lng float64
		Year     int
		Schema   string
	}{
		World:  toYAML(world),
		Lat:    lat,
		Lng:    lng,
		Year:   world.Year,
		Schema: SchemaText(&models.RegionContext{}),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.callText(ctx, "region_context", prompt)
	if err != nil {
		return nil, err
	}

	var rc models.RegionContext
	if err := decode(text, &rc); err != nil {
		return nil, err
	}
	if rc.Description == "" {
		return nil, fmt.Errorf("%w: region context has no description", ErrInvalidResult)
	}
	return &rc, nil
}

// GenerateWorld asks the model for a fresh starting world for an epoch.
func (e *Engine) GenerateWorld(ctx context.Context, epoch, year int) (*models.WorldState, error) {
	prompt, err := render("generate_world.txt", struct {
		Epoch  int
		Year   int
		Schema string
	}{
		Epoch:  epoch,
		Year:   year,
		Schema: SchemaText(&models.WorldState{}),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.callText(ctx, "generate_world", prompt)
	if err != nil {
		return nil, err
	}

	var world models.WorldState
	if err := decode(text, &world); err != nil {
		return nil, err
	}
	if err := models.CoerceWorld(&world); err != nil {
		return nil, err
	}
	world.Epoch = epoch
	world.Year = year
	return &world, nil
}
