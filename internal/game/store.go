// Package game owns the authoritative state of one Chronicle session: which
// epoch is being played, what the world looks like, and whether a
// world-changing call is in flight.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/chronicle/internal/epoch"
	"github.com/tatianab/chronicle/internal/geo"
	"github.com/tatianab/chronicle/internal/mockdata"
	"github.com/tatianab/chronicle/internal/models"
)

// Gateway produces the consequences of interventions. It is usually an
// *engine.Engine or a mockdata.Gateway.
type Gateway interface {
	Intervene(ctx context.Context, req models.InterventionRequest) (*models.InterventionResult, error)
	Score(ctx context.Context, req models.ScoreRequest) (*models.Score, error)
	Image(ctx context.Context, req models.ImageRequest) ([]byte, error)
}

const (
	// OverlayRadius is the angular distance, in degrees, within which the
	// provisional overlay brightens cities around a target.
	OverlayRadius = 25.0

	overlayBrightness = 0.15
	overlayTech       = 1

	DefaultAdvanceDelay  = 2 * time.Second
	DefaultFallbackDelay = time.Second

	pendingNarrative = "Changes are rippling across the world..."
)

// State is a read-only copy of the store. Pointers are nil when the
// corresponding thing does not exist.
type State struct {
	Epoch      int
	Remaining  int
	World      *models.WorldState
	History    []models.Intervention
	Loading    bool
	Selected   *models.City
	Chosen     *models.City // locked in by the first intervention
	LastResult *models.InterventionResult
	Result     *models.GameResult
	Scoring    bool
	Ripple     *models.LatLng // target of the in-flight intervention
}

// Option configures a Store.
type Option func(*Store)

func WithScheduler(s Scheduler) Option { return func(st *Store) { st.sched = s } }

func WithAdvanceDelay(d time.Duration) Option { return func(st *Store) { st.advanceDelay = d } }

func WithFallbackDelay(d time.Duration) Option { return func(st *Store) { st.fallbackDelay = d } }

// WithRequestTimeout bounds each gateway call. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option { return func(st *Store) { st.timeout = d } }

func WithLogger(l *slog.Logger) Option { return func(st *Store) { st.log = l } }

// WithIDs replaces the generator of intervention ids.
func WithIDs(f func() string) Option { return func(st *Store) { st.newID = f } }

// Store is the game state machine. All methods are safe for concurrent use.
type Store struct {
	gw            Gateway
	sched         Scheduler
	advanceDelay  time.Duration
	fallbackDelay time.Duration
	timeout       time.Duration
	log           *slog.Logger
	newID         func() string

	mu       sync.Mutex
	token    uint64
	state    State
	base     *models.WorldState // last authoritative world, the one the gateway sees
	inflight *Ticket
	timer    Timer
	image    *imageFuture
	subs     []subscriber
	nextSub  int
}

type subscriber struct {
	id int
	f  func(State)
}

// New returns a store at epoch 1 with no world loaded. Call InitWorld
// before submitting.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:            gw,
		sched:         realScheduler{},
		advanceDelay:  DefaultAdvanceDelay,
		fallbackDelay: DefaultFallbackDelay,
		log:           slog.Default(),
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Epoch: epoch.First, Remaining: 1}
	return s
}

// Subscribe registers f to receive a copy of the state after every change.
// f runs on whichever goroutine made the change and must not block. The
// returned func removes the subscription.
func (s *Store) Subscribe(f func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, f: f})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// InitWorld installs the canned baseline for the given epoch. It does not
// touch the epoch counter or the history.
func (s *Store) InitWorld(n int) error {
	w, ok := mockdata.ForEpoch(n)
	if !ok {
		return fmt.Errorf("no baseline world for epoch %d", n)
	}
	s.mu.Lock()
	s.installLocked(w)
	s.state.Loading = false
	s.state.Ripple = nil
	s.unlockAndNotify()
	return nil
}

// AdoptWorld replaces the epoch-1 baseline with a generated one. It only
// succeeds before the first intervention; afterwards the generated world
// would contradict history already shown.
func (s *Store) AdoptWorld(w models.WorldState) error {
	if err := models.ValidateWorld(w); err != nil {
		return fmt.Errorf("adopt world: %w", err)
	}
	s.mu.Lock()
	if s.state.Epoch != epoch.First || len(s.state.History) > 0 || s.state.Loading {
		s.mu.Unlock()
		return errors.New("adopt world: game already under way")
	}
	w.Epoch = epoch.First
	w.Year = epoch.MustLookup(epoch.First).StartYear
	s.installLocked(w)
	s.state.Selected = nil
	s.log.Info("generated world adopted", "cities", len(w.Cities))
	s.unlockAndNotify()
	return nil
}

// Select points the UI at a city of the current world.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	if s.state.World == nil {
		s.mu.Unlock()
		return false
	}
	c, ok := s.state.World.City(id)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state.Selected = &c
	s.unlockAndNotify()
	return true
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.state.Selected = nil
	s.unlockAndNotify()
}

// Submit targets the chosen city, or the selected one if nothing has been
// chosen yet. The first submission of the game locks the selection in as
// the chosen city.
func (s *Store) Submit(description string) (*Ticket, bool) {
	s.mu.Lock()
	target := s.state.Chosen
	if target == nil {
		target = s.state.Selected
	}
	if target == nil {
		s.mu.Unlock()
		s.log.Debug("intervention rejected", "reason", "no target")
		return nil, false
	}
	return s.submitLocked(description, target.Position())
}

// SubmitAt records an intervention at an arbitrary point, installs the
// provisional overlay and starts the gateway call. It reports false, and
// changes nothing, when the store cannot take an intervention right now.
func (s *Store) SubmitAt(description string, target models.LatLng) (*Ticket, bool) {
	s.mu.Lock()
	return s.submitLocked(description, target)
}

// submitLocked is entered with s.mu held and releases it.
func (s *Store) submitLocked(description string, target models.LatLng) (*Ticket, bool) {
	description = strings.TrimSpace(description)
	if reason := s.rejectLocked(description, target); reason != "" {
		n := s.state.Epoch
		s.mu.Unlock()
		s.log.Debug("intervention rejected", "reason", reason, "epoch", n)
		return nil, false
	}

	ep := epoch.MustLookup(s.state.Epoch)
	s.token++
	tok := s.token

	if s.state.Epoch == epoch.First && s.state.Chosen == nil && s.state.Selected != nil {
		chosen := *s.state.Selected
		s.state.Chosen = &chosen
	}

	iv := models.Intervention{
		ID:          s.newID(),
		Description: description,
		Lat:         target.Lat,
		Lng:         target.Lng,
		Epoch:       ep.Number,
		Year:        s.state.World.Year,
	}
	s.state.History = append(s.state.History, iv)

	req := models.InterventionRequest{
		World:       s.base.Clone(),
		Description: description,
		Target:      target,
		History:     append([]models.Intervention(nil), s.state.History...),
		StartYear:   ep.StartYear,
		EndYear:     ep.EndYear,
	}
	if s.state.Chosen != nil {
		chosen := *s.state.Chosen
		req.Chosen = &chosen
	}

	overlay := Overlay(*s.base, target, description)
	s.state.World = &overlay
	s.state.Remaining = 0
	s.state.Loading = true
	s.state.Selected = nil
	s.state.Ripple = &target

	t := newTicket(iv)
	s.inflight = t
	s.log.Info("intervention submitted", "id", iv.ID, "epoch", ep.Number, "lat", target.Lat, "lng", target.Lng)
	s.unlockAndNotify()

	go s.intervene(tok, t, req)
	return t, true
}

func (s *Store) rejectLocked(description string, target models.LatLng) string {
	switch {
	case s.state.World == nil || s.base == nil:
		return "no world"
	case s.state.Loading:
		return "intervention in flight"
	case s.state.Remaining <= 0:
		return "no interventions remaining"
	case !epoch.IsPlayable(s.state.Epoch):
		return "terminal epoch"
	case description == "":
		return "empty description"
	case !models.ValidLatLng(target.Lat, target.Lng):
		return "invalid target"
	}
	return ""
}

// Overlay returns the provisional world shown while an intervention is
// being simulated: cities near the target brighten a little, the rest are
// marked unchanged, and the year stays where it is.
func Overlay(w models.WorldState, target models.LatLng, description string) models.WorldState {
	out := w.Clone()
	for i := range out.Cities {
		c := &out.Cities[i]
		if geo.AngularDistance(target, c.Position()) <= OverlayRadius {
			c.Boost(overlayBrightness, overlayTech)
			c.Change = models.ChangeBrighter
			c.CausalNote = fmt.Sprintf("Because %s, change is spreading here.", description)
		} else {
			c.Change = models.ChangeUnchanged
			c.CausalNote = ""
		}
	}
	out.Narrative = pendingNarrative
	return out
}

func (s *Store) callContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

func (s *Store) intervene(tok uint64, t *Ticket, req models.InterventionRequest) {
	ctx, cancel := s.callContext()
	defer cancel()

	res, err := s.gw.Intervene(ctx, req)
	if err == nil && res == nil {
		err = fmt.Errorf("gateway returned no result: %w", models.ErrInvalid)
	}
	if err == nil {
		err = models.CoerceResult(res)
	}
	s.resolve(tok, t, res, err)
}

func (s *Store) resolve(tok uint64, t *Ticket, res *models.InterventionResult, err error) {
	s.mu.Lock()
	if tok != s.token {
		s.mu.Unlock()
		s.log.Debug("discarding late intervention result", "id", t.Intervention.ID)
		t.finish(nil, ErrAbandoned)
		return
	}
	s.inflight = nil
	s.state.Loading = false
	s.state.Ripple = nil

	ep := epoch.MustLookup(s.state.Epoch)
	lastPlayable := epoch.IsTerminal(epoch.Next(ep.Number))
	if err != nil {
		s.log.Warn("intervention failed, falling back to canned world", "id", t.Intervention.ID, "epoch", ep.Number, "err", err)
		reverted := s.base.Clone()
		s.state.World = &reverted
		s.scheduleLocked(tok, s.fallbackDelay, true)
		s.unlockAndNotify()
		t.finish(nil, err)
		return
	}

	w := models.WorldState{
		Year:        ep.EndYear,
		Epoch:       ep.Number,
		Cities:      res.Cities,
		TradeRoutes: res.TradeRoutes,
		Regions:     res.Regions,
		Narrative:   res.WorldNarrative,
	}
	s.installLocked(w)
	last := res.Clone()
	s.state.LastResult = &last
	if lastPlayable {
		s.startImageLocked(tok, w)
	}
	s.scheduleLocked(tok, s.advanceDelay, false)
	s.log.Info("intervention resolved", "id", t.Intervention.ID, "epoch", ep.Number, "cities", len(w.Cities))
	s.unlockAndNotify()
	t.finish(res, nil)
}

func (s *Store) scheduleLocked(tok uint64, d time.Duration, fallback bool) {
	s.timer = s.sched.AfterFunc(d, func() { s.advance(tok, fallback) })
}

// advance moves to the next epoch. After a failed intervention the next
// epoch starts from its canned world instead of the current one.
func (s *Store) advance(tok uint64, fallback bool) {
	s.mu.Lock()
	if tok != s.token || epoch.IsTerminal(s.state.Epoch) {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	next := epoch.Next(s.state.Epoch)

	var w models.WorldState
	if fallback {
		w, _ = mockdata.ForEpoch(next)
	} else {
		w = s.base.Clone()
		w.Epoch = next
	}
	s.installLocked(w)
	s.state.Epoch = next
	s.state.Selected = nil
	s.state.Remaining = 1
	if epoch.IsTerminal(next) {
		s.state.Remaining = 0
		s.state.Scoring = true
		req := models.ScoreRequest{
			History: append([]models.Intervention(nil), s.state.History...),
			World:   w.Clone(),
			Goal:    models.Goal,
		}
		img := s.startImageLocked(tok, w)
		go s.fetchScore(tok, req, img)
	}
	s.log.Info("epoch advanced", "epoch", next, "fallback", fallback)
	s.unlockAndNotify()
}

type imageFuture struct {
	done chan struct{}
	data []byte
	err  error
}

// startImageLocked starts the final image request unless one is already
// running for this session.
func (s *Store) startImageLocked(tok uint64, w models.WorldState) *imageFuture {
	if s.image != nil {
		return s.image
	}
	f := &imageFuture{done: make(chan struct{})}
	s.image = f
	req := models.ImageRequest{World: w.Clone(), Goal: models.Goal}
	go func() {
		defer close(f.done)
		ctx, cancel := s.callContext()
		defer cancel()
		f.data, f.err = s.gw.Image(ctx, req)
		s.log.Debug("final image finished", "token", tok, "bytes", len(f.data), "err", f.err)
	}()
	return f
}

// fetchScore runs scoring alongside the image request and installs the
// game result. Neither failure stops the result from being produced.
func (s *Store) fetchScore(tok uint64, req models.ScoreRequest, img *imageFuture) {
	var (
		g     errgroup.Group
		score *models.Score
		image []byte
	)
	g.Go(func() error {
		ctx, cancel := s.callContext()
		defer cancel()
		sc, err := s.gw.Score(ctx, req)
		if err != nil {
			return err
		}
		if sc == nil {
			return fmt.Errorf("gateway returned no score: %w", models.ErrInvalid)
		}
		if err := models.CoerceScore(sc); err != nil {
			return err
		}
		score = sc
		return nil
	})
	g.Go(func() error {
		<-img.done
		if img.err != nil {
			s.log.Warn("final image failed", "err", img.err)
			return nil
		}
		image = img.data
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("scoring failed, using default score", "err", err)
		d := mockdata.DefaultScore(req.History)
		score = &d
	}

	s.mu.Lock()
	if tok != s.token {
		s.mu.Unlock()
		s.log.Debug("discarding late score", "score", score.Score)
		return
	}
	s.state.Scoring = false
	s.state.Result = &models.GameResult{
		Score:       score.Score,
		Summary:     score.Summary,
		CausalChain: append([]string(nil), score.CausalChain...),
		FinalImage:  image,
	}
	s.log.Info("game scored", "score", score.Score)
	s.unlockAndNotify()
}

// Reset abandons everything and returns to the start of epoch 1 with a
// fresh baseline world. In-flight calls are left to finish; their results
// are ignored.
func (s *Store) Reset() {
	s.mu.Lock()
	s.token++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	abandoned := s.inflight
	s.inflight = nil
	s.image = nil
	s.state = State{Epoch: epoch.First, Remaining: 1}
	w, _ := mockdata.ForEpoch(epoch.First)
	s.installLocked(w)
	s.log.Info("game reset")
	s.unlockAndNotify()

	if abandoned != nil {
		abandoned.finish(nil, ErrAbandoned)
	}
}

// installLocked makes w both the displayed and the authoritative world.
func (s *Store) installLocked(w models.WorldState) {
	shown, base := w.Clone(), w.Clone()
	s.state.World = &shown
	s.base = &base
}

func (s *Store) unlockAndNotify() {
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.f(snap)
	}
}

func (s *Store) snapshotLocked() State {
	out := s.state
	out.History = append([]models.Intervention(nil), s.state.History...)
	if s.state.World != nil {
		w := s.state.World.Clone()
		out.World = &w
	}
	if s.state.Selected != nil {
		c := *s.state.Selected
		out.Selected = &c
	}
	if s.state.Chosen != nil {
		c := *s.state.Chosen
		out.Chosen = &c
	}
	if s.state.LastResult != nil {
		r := s.state.LastResult.Clone()
		out.LastResult = &r
	}
	if s.state.Result != nil {
		r := *s.state.Result
		r.CausalChain = append([]string(nil), r.CausalChain...)
		out.Result = &r
	}
	if s.state.Ripple != nil {
		p := *s.state.Ripple
		out.Ripple = &p
	}
	return out
}

// Transcript packages a finished (or abandoned) playthrough for export.
func (st State) Transcript(at time.Time) models.Transcript {
	t := models.Transcript{
		Goal:          models.Goal,
		FinishedAt:    at,
		Interventions: append([]models.Intervention(nil), st.History...),
	}
	if st.World != nil {
		t.FinalWorld = st.World.Clone()
	}
	if st.Result != nil {
		r := *st.Result
		t.Result = &r
	}
	return t
}
