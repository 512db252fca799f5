package models

// Goal is what the whole playthrough is scored against.
const Goal = "Achieve interstellar travel capability by 4000 AD"

// LatLng is a point on the globe in degrees.
type LatLng struct {
	Lat float64 `yaml:"lat" json:"lat" jsonschema:"minimum=-90,maximum=90"`
	Lng float64 `yaml:"lng" json:"lng" jsonschema:"minimum=-180,maximum=180"`
}

// WorldState is a snapshot of the simulated world at a given year.
type WorldState struct {
	Year        int          `yaml:"year" json:"year"`
	Epoch       int          `yaml:"epoch" json:"epoch"`
	Cities      []City       `yaml:"cities" json:"cities"`
	TradeRoutes []TradeRoute `yaml:"tradeRoutes" json:"tradeRoutes"`
	Regions     []Region     `yaml:"regions" json:"regions"`
	Narrative   string       `yaml:"narrative" json:"narrative"`
}

// City represents a settlement on the globe.
type City struct {
	ID           string  `yaml:"id" json:"id" jsonschema:"required,description=Stable identifier; keep it when the same settlement continues"`
	Name         string  `yaml:"name" json:"name" jsonschema:"required"`
	Civilization string  `yaml:"civilization" json:"civilization"`
	Description  string  `yaml:"description" json:"description"`
	Lat          float64 `yaml:"lat" json:"lat" jsonschema:"minimum=-90,maximum=90"`
	Lng          float64 `yaml:"lng" json:"lng" jsonschema:"minimum=-180,maximum=180"`
	Population   int64   `yaml:"population" json:"population" jsonschema:"minimum=0"`
	Brightness   float64 `yaml:"brightness" json:"brightness" jsonschema:"minimum=0,maximum=1"`
	TechLevel    int     `yaml:"techLevel" json:"techLevel" jsonschema:"minimum=1,maximum=10"`
	Pros         string  `yaml:"pros,omitempty" json:"pros,omitempty"` // strategic advantages, shown while choosing a city
	Cons         string  `yaml:"cons,omitempty" json:"cons,omitempty"`
	CausalNote   string  `yaml:"causalNote,omitempty" json:"causalNote,omitempty" jsonschema:"description=Because [intervention] then [consequence here]"`
	Change       Change  `yaml:"change,omitempty" json:"change,omitempty" jsonschema:"enum=brighter,enum=dimmer,enum=new,enum=gone,enum=unchanged"`
}

// Position returns the city's coordinates.
func (c City) Position() LatLng {
	return LatLng{Lat: c.Lat, Lng: c.Lng}
}

// RoutePoint is one end of a trade route.
type RoutePoint struct {
	Lat  float64 `yaml:"lat" json:"lat"`
	Lng  float64 `yaml:"lng" json:"lng"`
	City string  `yaml:"city" json:"city"`
}

// TradeRoute is a directed connection between two named points.
type TradeRoute struct {
	ID          string     `yaml:"id" json:"id"`
	From        RoutePoint `yaml:"from" json:"from"`
	To          RoutePoint `yaml:"to" json:"to"`
	Volume      float64    `yaml:"volume" json:"volume" jsonschema:"minimum=0"`
	Description string     `yaml:"description" json:"description"`
}

// Region is a rough civilization territory. Not geometrically authoritative.
type Region struct {
	ID           string  `yaml:"id" json:"id"`
	Civilization string  `yaml:"civilization" json:"civilization"`
	Color        string  `yaml:"color" json:"color"`
	Center       LatLng  `yaml:"center" json:"center"`
	Radius       float64 `yaml:"radius" json:"radius"` // degrees
}

// Intervention is a single player decision. Once recorded it is never edited.
type Intervention struct {
	ID          string  `yaml:"id" json:"id"`
	Description string  `yaml:"description" json:"description"`
	Lat         float64 `yaml:"lat" json:"lat"`
	Lng         float64 `yaml:"lng" json:"lng"`
	Epoch       int     `yaml:"epoch" json:"epoch"`
	Year        int     `yaml:"year" json:"year"`
}

// Milestone is a dated event produced while simulating an epoch.
type Milestone struct {
	Year       int     `yaml:"year" json:"year"`
	Lat        float64 `yaml:"lat" json:"lat"`
	Lng        float64 `yaml:"lng" json:"lng"`
	Event      string  `yaml:"event" json:"event"`
	CausalLink string  `yaml:"causalLink" json:"causalLink"`
}

// Surprise is the single most unexpected consequence of an intervention.
type Surprise struct {
	Lat         float64  `yaml:"lat" json:"lat"`
	Lng         float64  `yaml:"lng" json:"lng"`
	Description string   `yaml:"description" json:"description"`
	CausalChain []string `yaml:"causalChain" json:"causalChain"`
	ImagePrompt string   `yaml:"imagePrompt,omitempty" json:"imagePrompt,omitempty"`
}

// InterventionResult is the authoritative outcome of one intervention.
// Cities, TradeRoutes and Regions are full replacements, not diffs.
type InterventionResult struct {
	Milestones      []Milestone  `yaml:"milestones" json:"milestones"`
	Cities          []City       `yaml:"cities" json:"cities" jsonschema:"description=Full updated city list and not just the changes"`
	TradeRoutes     []TradeRoute `yaml:"tradeRoutes" json:"tradeRoutes"`
	Regions         []Region     `yaml:"regions" json:"regions"`
	WorldNarrative  string       `yaml:"worldNarrative" json:"worldNarrative"`
	NarrationScript string       `yaml:"narrationScript" json:"narrationScript"`
	MostSurprising  Surprise     `yaml:"mostSurprising" json:"mostSurprising"`
}

// Score is the generator's verdict on a full playthrough.
type Score struct {
	Score       int      `yaml:"score" json:"score" jsonschema:"minimum=0,maximum=100"`
	Summary     string   `yaml:"summary" json:"summary"`
	CausalChain []string `yaml:"causalChain" json:"causalChain"`
}

// GameResult is produced once, on entering the terminal epoch.
type GameResult struct {
	Score       int      `yaml:"score"`
	Summary     string   `yaml:"summary"`
	CausalChain []string `yaml:"causalChain"`
	FinalImage  []byte   `yaml:"-"`
}

// Suggestion is a proposed intervention for a region.
type Suggestion struct {
	Text      string `yaml:"text" json:"text"`
	Reasoning string `yaml:"reasoning" json:"reasoning"`
}

// RegionContext describes a spot on the globe and what the player might change there.
type RegionContext struct {
	Description string       `yaml:"description" json:"description"`
	Suggestions []Suggestion `yaml:"suggestions" json:"suggestions"`
}

// InterventionRequest is everything the generator needs to simulate one epoch.
type InterventionRequest struct {
	World       WorldState
	Description string
	Target      LatLng
	History     []Intervention // includes the intervention being submitted
	StartYear   int
	EndYear     int
	Chosen      *City
}

// ScoreRequest asks the generator to judge a playthrough.
type ScoreRequest struct {
	History []Intervention
	World   WorldState
	Goal    string
}

// ImageRequest asks the generator for a representative picture of a world.
type ImageRequest struct {
	World WorldState
	Goal  string
}
