package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/chronicle/internal/mockdata"
	"github.com/tatianab/chronicle/internal/models"
)

type fakeModel struct {
	parts   []genai.Part
	err     error
	block   bool
	prompts []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			f.prompts = append(f.prompts, string(t))
		}
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: f.parts}}},
	}, nil
}

func textModel(s string) *fakeModel {
	return &fakeModel{parts: []genai.Part{genai.Text(s)}}
}

const validResult = `{
  "milestones": [{"year": -9000, "lat": 31.9, "lng": 35.4, "event": "Trading post founded", "causalLink": "Direct"}],
  "cities": [
    {"id": "jericho", "name": "Jericho", "civilization": "Natufian", "lat": 31.87, "lng": 35.44, "population": 900, "brightness": 1.4, "techLevel": 14, "causalNote": "Because of the trading post, Jericho grew.", "change": "Brighter"},
    {"id": "gobekli", "name": "Göbekli Tepe", "lat": 37.22, "lng": 38.92, "population": 200, "brightness": -0.5, "techLevel": 0}
  ],
  "tradeRoutes": [{"id": "r1", "from": {"lat": 31.87, "lng": 35.44, "city": "Jericho"}, "to": {"lat": 37.22, "lng": 38.92, "city": "Göbekli Tepe"}, "volume": 3, "description": "Obsidian"}],
  "regions": [{"id": "fc", "civilization": "Natufian", "color": "#8B4513", "center": {"lat": 34, "lng": 38}, "radius": 8}],
  "worldNarrative": "Trade flourishes.",
  "narrationScript": "A post rises by the spring.",
  "mostSurprising": {"lat": 40, "lng": 40, "description": "Early writing", "causalChain": ["trade", "tallies", "writing"]}
}`

func request() models.InterventionRequest {
	world, _ := mockdata.ForEpoch(1)
	return models.InterventionRequest{
		World:       world,
		Description: "Found an early trading post",
		Target:      models.LatLng{Lat: 31.87, Lng: 35.44},
		History:     []models.Intervention{{ID: "a", Description: "Found an early trading post", Epoch: 1, Year: -10000}},
		StartYear:   -10000,
		EndYear:     -2000,
	}
}

func TestInterveneCoercesResult(t *testing.T) {
	model := textModel("```json\n" + validResult + "\n```")
	e := newEngine(model, nil, Options{})

	res, err := e.Intervene(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, res.Cities, 2)
	assert.Equal(t, 1.0, res.Cities[0].Brightness)
	assert.Equal(t, 10, res.Cities[0].TechLevel)
	assert.Equal(t, models.ChangeBrighter, res.Cities[0].Change)
	assert.Equal(t, 0.0, res.Cities[1].Brightness)
	assert.Equal(t, 1, res.Cities[1].TechLevel)
	assert.Equal(t, models.ChangeUnchanged, res.Cities[1].Change)
	assert.Equal(t, []string{"trade", "tallies", "writing"}, res.MostSurprising.CausalChain)

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	assert.Contains(t, prompt, `Change: "Found an early trading post"`)
	assert.Contains(t, prompt, "Simulate from 10000 BC to 2000 BC.")
	assert.Contains(t, prompt, "8000 years")
	assert.Contains(t, prompt, `"techLevel"`)
}

func TestInterveneRejectsMalformedResults(t *testing.T) {
	tests := map[string]string{
		"not json":            "the ancients were busy",
		"city without id":     strings.Replace(validResult, `"id": "jericho", `, "", 1),
		"unknown change":      strings.Replace(validResult, `"Brighter"`, `"sideways"`, 1),
		"negative population": strings.Replace(validResult, `"population": 900`, `"population": -5`, 1),
		"bad coordinates":     strings.Replace(validResult, `"lat": 31.87, "lng": 35.44, "population"`, `"lat": 131.87, "lng": 35.44, "population"`, 1),
		"zero volume":         strings.Replace(validResult, `"volume": 3`, `"volume": 0`, 1),
		"no narrative":        strings.Replace(validResult, `"Trade flourishes."`, `""`, 1),
		"duplicate city":      strings.Replace(validResult, `"id": "gobekli"`, `"id": "jericho"`, 1),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			e := newEngine(textModel(body), nil, Options{})
			_, err := e.Intervene(context.Background(), request())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResult)
		})
	}
}

func TestInterveneSurfacesTransportFailures(t *testing.T) {
	boom := errors.New("503 unavailable")
	e := newEngine(&fakeModel{err: boom}, nil, Options{})
	_, err := e.Intervene(context.Background(), request())
	assert.ErrorIs(t, err, boom)

	e = newEngine(&fakeModel{}, nil, Options{})
	_, err = e.Intervene(context.Background(), request())
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestRequestTimeout(t *testing.T) {
	e := newEngine(&fakeModel{block: true}, nil, Options{RequestTimeout: 20 * time.Millisecond})
	_, err := e.Intervene(context.Background(), request())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScore(t *testing.T) {
	e := newEngine(textModel(`{"score": 140, "summary": "Stars reached early.", "causalChain": ["trade", "writing"]}`), nil, Options{})
	world, _ := mockdata.ForEpoch(5)
	s, err := e.Score(context.Background(), models.ScoreRequest{World: world, Goal: models.Goal})
	require.NoError(t, err)
	assert.Equal(t, 100, s.Score)
	assert.Equal(t, []string{"trade", "writing"}, s.CausalChain)

	e = newEngine(textModel(`{"score": 40}`), nil, Options{})
	_, err = e.Score(context.Background(), models.ScoreRequest{World: world, Goal: models.Goal})
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	image := &fakeModel{parts: []genai.Part{genai.Text("here you go"), genai.Blob{MIMEType: "image/png", Data: png}}}
	e := newEngine(nil, image, Options{})
	world, _ := mockdata.ForEpoch(4)

	data, err := e.Image(context.Background(), models.ImageRequest{World: world, Goal: models.Goal})
	require.NoError(t, err)
	assert.Equal(t, png, data)
	require.Len(t, image.prompts, 1)
	assert.Contains(t, image.prompts[0], "New York of the American civilization")

	e = newEngine(nil, textModel("no picture today"), Options{})
	_, err = e.Image(context.Background(), models.ImageRequest{World: world})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestRegionContext(t *testing.T) {
	e := newEngine(textModel(`{"description": "The Levant.", "suggestions": [{"text": "Domesticate cattle", "reasoning": "Protein"}]}`), nil, Options{})
	world, _ := mockdata.ForEpoch(1)
	rc, err := e.RegionContext(context.Background(), 31.87, 35.44, world)
	require.NoError(t, err)
	assert.Equal(t, "The Levant.", rc.Description)
	require.Len(t, rc.Suggestions, 1)
}

func TestGenerateWorldPinsEpochAndYear(t *testing.T) {
	body := `{"year": 123, "epoch": 9, "narrative": "Ice.", "cities": [{"id": "a", "name": "A", "lat": 1, "lng": 2, "population": 10, "brightness": 0.5, "techLevel": 1}], "tradeRoutes": [], "regions": []}`
	e := newEngine(textModel(body), nil, Options{})
	w, err := e.GenerateWorld(context.Background(), 1, -10000)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Epoch)
	assert.Equal(t, -10000, w.Year)
}

func TestRateLimiterRespectsContext(t *testing.T) {
	e := newEngine(textModel(validResult), nil, Options{RequestsPerMinute: 1})
	_, err := e.Intervene(context.Background(), request())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = e.Intervene(ctx, request())
	assert.Error(t, err)
}

func TestContractsMentionFieldNames(t *testing.T) {
	assert.Len(t, Contracts(), 4)

	text := SchemaText(&models.InterventionResult{})
	for _, field := range []string{"cities", "tradeRoutes", "narrationScript", "mostSurprising", "causalChain", "techLevel"} {
		assert.Contains(t, text, `"`+field+`"`)
	}
	assert.Equal(t, text, SchemaText(&models.InterventionResult{}))
}
