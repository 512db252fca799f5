// Package sim plays whole games without a terminal, for smoke tests and
// for watching the generator play against itself.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/generative-ai-go/genai"
	"github.com/schollz/progressbar/v3"

	"github.com/tatianab/chronicle/internal/epoch"
	"github.com/tatianab/chronicle/internal/game"
	"github.com/tatianab/chronicle/internal/models"
)

// Player decides what to change each epoch.
type Player interface {
	// City picks the city the game is played from. It is asked once.
	City(ctx context.Context, world models.WorldState) (string, error)
	// Intervene describes the change to make in the current epoch.
	Intervene(ctx context.Context, st game.State) (string, error)
}

// ScriptedPlayer replays a fixed list of ideas.
type ScriptedPlayer struct {
	CityID string // empty picks the brightest city
	Ideas  []string
}

func (p ScriptedPlayer) City(_ context.Context, world models.WorldState) (string, error) {
	if p.CityID != "" {
		return p.CityID, nil
	}
	return brightest(world)
}

func (p ScriptedPlayer) Intervene(_ context.Context, st game.State) (string, error) {
	if len(p.Ideas) == 0 {
		return "", errors.New("scripted player has no ideas")
	}
	return p.Ideas[(len(st.History))%len(p.Ideas)], nil
}

func brightest(world models.WorldState) (string, error) {
	if len(world.Cities) == 0 {
		return "", errors.New("world has no cities")
	}
	cities := append([]models.City(nil), world.Cities...)
	sort.SliceStable(cities, func(i, j int) bool { return cities[i].Brightness > cities[j].Brightness })
	return cities[0].ID, nil
}

// generator is the slice of *genai.GenerativeModel the player uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// LLMPlayer asks a Gemini model what to do.
type LLMPlayer struct {
	model generator
}

func NewLLMPlayer(client *genai.Client, model string) *LLMPlayer {
	return &LLMPlayer{model: client.GenerativeModel(model)}
}

func (p *LLMPlayer) ask(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("player model returned nothing")
	}
	return strings.Trim(strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), `"`), nil
}

func (p *LLMPlayer) City(ctx context.Context, world models.WorldState) (string, error) {
	var b strings.Builder
	for _, c := range world.Cities {
		fmt.Fprintf(&b, "- %s: %s (%s). Pros: %s Cons: %s\n", c.ID, c.Name, c.Civilization, c.Pros, c.Cons)
	}
	prompt := fmt.Sprintf(`You are playing a game of alternate history. The goal is: %s.
It is %s. Pick the settlement you will guide through history.

%s
Return ONLY the id of the settlement.`, models.Goal, models.FormatYear(world.Year), b.String())

	id, err := p.ask(ctx, prompt)
	if err != nil {
		return brightest(world)
	}
	if _, ok := world.City(id); !ok {
		return brightest(world)
	}
	return id, nil
}

func (p *LLMPlayer) Intervene(ctx context.Context, st game.State) (string, error) {
	ep := epoch.MustLookup(st.Epoch)
	var history strings.Builder
	for _, iv := range st.History {
		fmt.Fprintf(&history, "- %s: %s\n", models.FormatYear(iv.Year), iv.Description)
	}
	city := "your city"
	if st.Chosen != nil {
		city = st.Chosen.Name
	}
	prompt := fmt.Sprintf(`You are playing a game of alternate history. The goal is: %s.
It is %s, the start of the %s. You may change one thing at %s.

The world: %s

Your earlier changes:
%s
Describe your change in one sentence. Return ONLY the sentence.`,
		models.Goal, models.FormatYear(st.World.Year), ep.Name, city, st.World.Narrative, history.String())

	idea, err := p.ask(ctx, prompt)
	if err != nil || idea == "" {
		return "Found a school for astronomers and engineers", nil
	}
	return idea, nil
}

// Play runs one full game on store and returns its transcript. Progress
// and outcomes are written to out.
func Play(ctx context.Context, store *game.Store, p Player, out io.Writer) (*models.Transcript, error) {
	store.Reset()
	st := store.Snapshot()

	id, err := p.City(ctx, *st.World)
	if err != nil {
		return nil, fmt.Errorf("choose city: %w", err)
	}
	if !store.Select(id) {
		return nil, fmt.Errorf("choose city: no city %q", id)
	}
	c, _ := st.World.City(id)
	fmt.Fprintf(out, "Playing from %s (%s), population %s\n\n", c.Name, c.Civilization, humanize.Comma(c.Population))

	playable := epoch.Playable()
	bar := progressbar.NewOptions(len(playable),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Epochs"),
		progressbar.OptionShowCount(),
	)

	for _, ep := range playable {
		st := store.Snapshot()
		idea, err := p.Intervene(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", ep.Number, err)
		}

		tk, ok := store.Submit(idea)
		if !ok {
			return nil, fmt.Errorf("epoch %d: store refused the intervention", ep.Number)
		}
		res, err := tk.Wait(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		fmt.Fprintf(out, "\n%s · %s\n> %s\n", ep.Label(), models.FormatYear(ep.StartYear), idea)
		if err != nil {
			fmt.Fprintf(out, "  (generator failed: %v; continuing with canned history)\n", err)
		} else {
			for _, m := range res.Milestones {
				fmt.Fprintf(out, "  %s  %s\n", models.FormatYear(m.Year), m.Event)
			}
			fmt.Fprintf(out, "  %s\n", res.WorldNarrative)
		}

		next := epoch.Next(ep.Number)
		if _, err := WaitFor(ctx, store, func(s game.State) bool { return s.Epoch >= next }); err != nil {
			return nil, err
		}
		if err := bar.Add(1); err != nil {
			slog.Debug("progress bar", "err", err)
		}
	}
	fmt.Fprintln(out)

	final, err := WaitFor(ctx, store, func(s game.State) bool { return s.Result != nil })
	if err != nil {
		return nil, err
	}
	t := final.Transcript(time.Now())
	return &t, nil
}

// WaitFor blocks until cond holds for the store's state, waking on every
// store change.
func WaitFor(ctx context.Context, store *game.Store, cond func(game.State) bool) (game.State, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(game.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		if st := store.Snapshot(); cond(st) {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return game.State{}, ctx.Err()
		case <-changed:
		}
	}
}

// Report prints the final score.
func Report(out io.Writer, t *models.Transcript) {
	if t.Result == nil {
		return
	}
	fmt.Fprintf(out, "Final year %s · score %d/100\n%s\n", models.FormatYear(t.FinalWorld.Year), t.Result.Score, t.Result.Summary)
	for i, step := range t.Result.CausalChain {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
	if n := len(t.Result.FinalImage); n > 0 {
		fmt.Fprintf(out, "Final image: %s\n", humanize.Bytes(uint64(n)))
	}
}
