package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/chronicle/internal/epoch"
	"github.com/tatianab/chronicle/internal/mockdata"
	"github.com/tatianab/chronicle/internal/models"
)

var tradingPost = models.LatLng{Lat: 31.87, Lng: 35.44}

// manualScheduler holds timers until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	d       time.Duration
	f       func()
	stopped bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{s: m, d: d, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs every pending timer and returns the delays they were scheduled with.
func (m *manualScheduler) fire() []time.Duration {
	m.mu.Lock()
	timers := m.pending
	m.pending = nil
	m.mu.Unlock()

	var delays []time.Duration
	for _, t := range timers {
		t.s.mu.Lock()
		stopped := t.stopped
		t.s.mu.Unlock()
		if !stopped {
			delays = append(delays, t.d)
			t.f()
		}
	}
	return delays
}

func (m *manualScheduler) live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

type reply struct {
	res *models.InterventionResult
	err error
}

type call struct {
	req   models.InterventionRequest
	reply chan reply
}

// heldGateway blocks every Intervene until the test answers it.
type heldGateway struct {
	mockdata.Gateway
	calls chan call

	mu          sync.Mutex
	inflight    int
	maxInflight int
}

func newHeldGateway() *heldGateway {
	return &heldGateway{calls: make(chan call, 32)}
}

func (g *heldGateway) Intervene(ctx context.Context, req models.InterventionRequest) (*models.InterventionResult, error) {
	g.mu.Lock()
	g.inflight++
	g.maxInflight = max(g.maxInflight, g.inflight)
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.inflight--
		g.mu.Unlock()
	}()

	c := call{req: req, reply: make(chan reply, 1)}
	g.calls <- c
	r := <-c.reply
	return r.res, r.err
}

func (g *heldGateway) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("gateway was not called")
		return call{}
	}
}

// instantGateway answers immediately.
type instantGateway struct {
	mockdata.Gateway
	fail       bool
	score      *models.Score
	image      []byte
	imageCalls atomic.Int32
}

func (g *instantGateway) Intervene(ctx context.Context, req models.InterventionRequest) (*models.InterventionResult, error) {
	if g.fail {
		return nil, errors.New("503 service unavailable")
	}
	return g.Gateway.Intervene(ctx, req)
}

func (g *instantGateway) Score(ctx context.Context, req models.ScoreRequest) (*models.Score, error) {
	if g.fail || g.score == nil {
		return nil, errors.New("scoring unavailable")
	}
	s := *g.score
	return &s, nil
}

func (g *instantGateway) Image(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	g.imageCalls.Add(1)
	if g.image == nil {
		return nil, mockdata.ErrNoImage
	}
	return g.image, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newStore(t *testing.T, gw Gateway, opts ...Option) (*Store, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	n := 0
	opts = append([]Option{
		WithScheduler(sched),
		WithIDs(func() string { n++; return fmt.Sprintf("iv-%d", n) }),
	}, opts...)
	s := New(gw, opts...)
	require.NoError(t, s.InitWorld(epoch.First))
	return s, sched
}

func wait(t *testing.T, tk *Ticket) (*models.InterventionResult, error) {
	t.Helper()
	select {
	case <-tk.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("ticket did not resolve")
	}
	return tk.Result()
}

func baseline(t *testing.T, n int) models.WorldState {
	t.Helper()
	w, ok := mockdata.ForEpoch(n)
	require.True(t, ok)
	return w
}

func TestTradingPostScenario(t *testing.T) {
	gw := newHeldGateway()
	s, sched := newStore(t, gw)
	assert.Equal(t, -10000, s.Snapshot().World.Year)

	tk, ok := s.SubmitAt("Found an early trading post", tradingPost)
	require.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Remaining)
	assert.True(t, snap.Loading)
	assert.Equal(t, -10000, snap.World.Year)
	assert.Equal(t, pendingNarrative, snap.World.Narrative)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "Found an early trading post", snap.History[0].Description)
	assert.Equal(t, -10000, snap.History[0].Year)
	require.NotNil(t, snap.Ripple)
	assert.Equal(t, tradingPost, *snap.Ripple)

	jericho, ok := snap.World.City("jericho")
	require.True(t, ok)
	assert.Equal(t, models.ChangeBrighter, jericho.Change)
	assert.InDelta(t, 0.45, jericho.Brightness, 1e-9)
	assert.Equal(t, 3, jericho.TechLevel)
	hemudu, _ := snap.World.City("hemudu")
	assert.Equal(t, models.ChangeUnchanged, hemudu.Change)

	c := gw.next(t)
	assert.Equal(t, baseline(t, 1), c.req.World, "gateway must see the pre-overlay world")
	assert.Equal(t, -10000, c.req.StartYear)
	assert.Equal(t, -2000, c.req.EndYear)
	assert.Len(t, c.req.History, 1)

	res, err := mockdata.Gateway{}.Intervene(context.Background(), c.req)
	require.NoError(t, err)
	want := res.Clone()
	c.reply <- reply{res: res}

	_, err = wait(t, tk)
	require.NoError(t, err)

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Ripple)
	assert.Equal(t, epoch.First, snap.Epoch)
	assert.Equal(t, -2000, snap.World.Year)
	assert.Equal(t, want.Cities, snap.World.Cities)
	assert.Equal(t, want.WorldNarrative, snap.World.Narrative)
	require.NotNil(t, snap.LastResult)
	assert.Len(t, snap.LastResult.Milestones, 3)

	assert.Equal(t, []time.Duration{DefaultAdvanceDelay}, sched.fire())
	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Epoch)
	assert.Equal(t, 1, snap.Remaining)
	assert.Equal(t, 2, snap.World.Epoch)
	assert.Equal(t, want.Cities, snap.World.Cities)
}

func TestGatewayFailureFallsBackToNextEpoch(t *testing.T) {
	gw := newHeldGateway()
	s, sched := newStore(t, gw, WithFallbackDelay(500*time.Millisecond))

	tk, ok := s.SubmitAt("Teach the Natufians to write", tradingPost)
	require.True(t, ok)
	gw.next(t).reply <- reply{err: errors.New("deadline exceeded")}

	_, err := wait(t, tk)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, snap.Epoch)
	assert.Equal(t, baseline(t, 1), *snap.World, "overlay is discarded")
	assert.Len(t, snap.History, 1, "the decision stays recorded")

	assert.Equal(t, []time.Duration{500 * time.Millisecond}, sched.fire())
	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Epoch)
	assert.Equal(t, 1, snap.Remaining)
	assert.False(t, snap.Loading)
	assert.Equal(t, baseline(t, 2), *snap.World)
	assert.Len(t, snap.History, 1)
}

func TestInvalidResultIsTreatedAsFailure(t *testing.T) {
	gw := newHeldGateway()
	s, sched := newStore(t, gw)

	tk, ok := s.SubmitAt("Domesticate the aurochs", tradingPost)
	require.True(t, ok)
	c := gw.next(t)
	res, err := mockdata.Gateway{}.Intervene(context.Background(), c.req)
	require.NoError(t, err)
	res.Cities[0].ID = ""
	c.reply <- reply{res: res}

	_, err = wait(t, tk)
	assert.ErrorIs(t, err, models.ErrInvalid)

	sched.fire()
	assert.Equal(t, baseline(t, 2), *s.Snapshot().World)
}

func TestConcurrentSubmissionsAreRejected(t *testing.T) {
	gw := newHeldGateway()
	s, _ := newStore(t, gw)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		tickets  = make(chan *Ticket, 20)
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tk, ok := s.SubmitAt(fmt.Sprintf("idea %d", i), tradingPost); ok {
				accepted.Add(1)
				tickets <- tk
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	snap := s.Snapshot()
	assert.Len(t, snap.History, 1)
	assert.Equal(t, 0, snap.Remaining)

	gw.next(t).reply <- reply{err: errors.New("boom")}
	wait(t, <-tickets)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, 1, gw.maxInflight)
	assert.Empty(t, gw.calls)
}

func TestGuardRejections(t *testing.T) {
	s := New(newHeldGateway(), WithScheduler(&manualScheduler{}))
	_, ok := s.SubmitAt("Too early", tradingPost)
	assert.False(t, ok, "no world yet")

	require.NoError(t, s.InitWorld(1))
	for name, submit := range map[string]func() (*Ticket, bool){
		"empty description": func() (*Ticket, bool) { return s.SubmitAt("   ", tradingPost) },
		"bad latitude":      func() (*Ticket, bool) { return s.SubmitAt("Sail north", models.LatLng{Lat: 91, Lng: 0}) },
		"no target":         func() (*Ticket, bool) { return s.Submit("Somewhere") },
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := submit()
			assert.False(t, ok)
			snap := s.Snapshot()
			assert.Empty(t, snap.History)
			assert.Equal(t, 1, snap.Remaining)
			assert.False(t, snap.Loading)
		})
	}
	assert.False(t, s.Select("atlantis"))
}

func TestFirstSubmissionLocksInChosenCity(t *testing.T) {
	gw := &instantGateway{}
	s, sched := newStore(t, gw)

	require.True(t, s.Select("gobekli"))
	tk, ok := s.Submit("Build a granary beside the pillars")
	require.True(t, ok)
	assert.InDelta(t, 37.22, tk.Intervention.Lat, 1e-9)

	snap := s.Snapshot()
	require.NotNil(t, snap.Chosen)
	assert.Equal(t, "gobekli", snap.Chosen.ID)
	assert.Nil(t, snap.Selected)

	wait(t, tk)
	sched.fire()

	require.True(t, s.Select("hemudu"))
	tk, ok = s.Submit("Invent the wheel")
	require.True(t, ok)
	assert.InDelta(t, 37.22, tk.Intervention.Lat, 1e-9, "later epochs act on the chosen city")
	assert.Equal(t, "gobekli", s.Snapshot().Chosen.ID)
}

func TestOverlayKeepsRangesUnderRepeatedBoosts(t *testing.T) {
	w := baseline(t, 1)
	for i := 0; i < 50; i++ {
		w = Overlay(w, tradingPost, "Again")
	}
	for _, c := range w.Cities {
		assert.GreaterOrEqual(t, c.Brightness, 0.0, c.ID)
		assert.LessOrEqual(t, c.Brightness, 1.0, c.ID)
		assert.GreaterOrEqual(t, c.TechLevel, models.MinTechLevel, c.ID)
		assert.LessOrEqual(t, c.TechLevel, models.MaxTechLevel, c.ID)
	}
	jericho, _ := w.City("jericho")
	assert.Equal(t, 1.0, jericho.Brightness)
	assert.Equal(t, 10, jericho.TechLevel)
	assert.Equal(t, -10000, w.Year)
}

func TestInitWorldIsIdempotent(t *testing.T) {
	s, _ := newStore(t, &instantGateway{})
	require.NoError(t, s.InitWorld(3))
	first := s.Snapshot()
	require.NoError(t, s.InitWorld(3))
	second := s.Snapshot()
	assert.Equal(t, first, second)
	assert.Equal(t, baseline(t, 3), *second.World)

	assert.Error(t, s.InitWorld(0))
	assert.Equal(t, second, s.Snapshot())
}

func TestAlwaysFailingGatewayStillFinishes(t *testing.T) {
	gw := &instantGateway{fail: true}
	s, sched := newStore(t, gw)

	var descriptions []string
	for i := range epoch.Playable() {
		desc := fmt.Sprintf("attempt %d", i+1)
		descriptions = append(descriptions, desc)
		tk, ok := s.SubmitAt(desc, tradingPost)
		require.True(t, ok, "epoch %d", i+1)
		_, err := wait(t, tk)
		require.Error(t, err)
		require.Len(t, sched.fire(), 1)
	}

	snap := s.Snapshot()
	assert.Equal(t, epoch.Terminal, snap.Epoch)
	assert.Equal(t, 0, snap.Remaining)
	assert.Len(t, snap.History, epoch.Terminal-1)

	require.Eventually(t, func() bool { return s.Snapshot().Result != nil }, 2*time.Second, 5*time.Millisecond)
	res := s.Snapshot()
	assert.False(t, res.Scoring)
	assert.Equal(t, 50, res.Result.Score)
	assert.Equal(t, descriptions, res.Result.CausalChain)
	assert.Nil(t, res.Result.FinalImage)

	_, ok := s.SubmitAt("One more", tradingPost)
	assert.False(t, ok)
	assert.Empty(t, sched.fire())
	assert.Equal(t, epoch.Terminal, s.Snapshot().Epoch)
}

func TestEpochsAndHistoryOnlyMoveForward(t *testing.T) {
	gw := &instantGateway{score: &models.Score{Score: 140, Summary: "Starships by the Bronze Age.", CausalChain: []string{"trade", "writing"}}, image: []byte("png")}
	s, sched := newStore(t, gw)

	var (
		mu     sync.Mutex
		epochs []int
		hist   []int
	)
	s.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		epochs = append(epochs, st.Epoch)
		hist = append(hist, len(st.History))
	})

	for i := 0; i < epoch.Terminal-1; i++ {
		tk, ok := s.SubmitAt("Spread literacy", tradingPost)
		require.True(t, ok)
		_, err := wait(t, tk)
		require.NoError(t, err)
		if i == epoch.Terminal-2 {
			require.Eventually(t, func() bool { return gw.imageCalls.Load() == 1 }, 2*time.Second, 5*time.Millisecond, "image starts before scoring")
		}
		sched.fire()
	}

	require.Eventually(t, func() bool { return s.Snapshot().Result != nil }, 2*time.Second, 5*time.Millisecond)
	res := s.Snapshot().Result
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, []byte("png"), res.FinalImage)
	assert.Equal(t, int32(1), gw.imageCalls.Load())

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(epochs); i++ {
		assert.Contains(t, []int{0, 1}, epochs[i]-epochs[i-1])
		assert.Contains(t, []int{0, 1}, hist[i]-hist[i-1])
	}
	assert.Equal(t, epoch.Terminal, epochs[len(epochs)-1])
}

func TestResetAbandonsInFlightSubmission(t *testing.T) {
	gw := newHeldGateway()
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, sched := newStore(t, gw, WithLogger(logger))

	tk, ok := s.SubmitAt("Found an early trading post", tradingPost)
	require.True(t, ok)
	c := gw.next(t)
	require.True(t, s.Snapshot().Loading)

	s.Reset()
	_, err := wait(t, tk)
	assert.ErrorIs(t, err, ErrAbandoned)

	fresh := s.Snapshot()
	assert.Equal(t, epoch.First, fresh.Epoch)
	assert.Empty(t, fresh.History)
	assert.False(t, fresh.Loading)
	assert.Equal(t, 1, fresh.Remaining)
	assert.Nil(t, fresh.Result)
	assert.Nil(t, fresh.Chosen)

	res, err := mockdata.Gateway{}.Intervene(context.Background(), c.req)
	require.NoError(t, err)
	c.reply <- reply{res: res}

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte("discarding late intervention result"))
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, fresh, s.Snapshot())
	assert.Zero(t, sched.live())
}

// heldScoreGateway blocks Score until release is closed.
type heldScoreGateway struct {
	*instantGateway
	scoring chan struct{}
	release chan struct{}
}

func (g *heldScoreGateway) Score(ctx context.Context, req models.ScoreRequest) (*models.Score, error) {
	close(g.scoring)
	<-g.release
	return &models.Score{Score: 90, Summary: "Too late to count."}, nil
}

func TestResetDiscardsLateScore(t *testing.T) {
	gw := &heldScoreGateway{
		instantGateway: &instantGateway{},
		scoring:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, sched := newStore(t, gw, WithLogger(logger))

	for i := 0; i < epoch.Terminal-1; i++ {
		tk, ok := s.SubmitAt("Spread literacy", tradingPost)
		require.True(t, ok)
		_, err := wait(t, tk)
		require.NoError(t, err)
		sched.fire()
	}
	select {
	case <-gw.scoring:
	case <-time.After(2 * time.Second):
		t.Fatal("scoring never started")
	}
	require.True(t, s.Snapshot().Scoring)

	s.Reset()
	close(gw.release)

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte("discarding late score"))
	}, 2*time.Second, 5*time.Millisecond)
	st := s.Snapshot()
	assert.Equal(t, epoch.First, st.Epoch)
	assert.Nil(t, st.Result)
	assert.False(t, st.Scoring)
	assert.Equal(t, 1, st.Remaining)
}

func TestResetStopsPendingAdvance(t *testing.T) {
	gw := &instantGateway{}
	s, sched := newStore(t, gw)

	tk, ok := s.SubmitAt("Irrigate the Jordan valley", tradingPost)
	require.True(t, ok)
	wait(t, tk)
	require.Equal(t, 1, sched.live())

	s.Reset()
	assert.Zero(t, sched.live())
	assert.Empty(t, sched.fire())
	assert.Equal(t, epoch.First, s.Snapshot().Epoch)
}

func TestSubscribersMayReadTheStore(t *testing.T) {
	s, _ := newStore(t, &instantGateway{})
	seen := make(chan State, 8)
	s.Subscribe(func(State) {
		seen <- s.Snapshot()
	})

	tk, ok := s.SubmitAt("Found an early trading post", tradingPost)
	require.True(t, ok)
	_, err := wait(t, tk)
	require.NoError(t, err)

	for range 2 {
		select {
		case st := <-seen:
			assert.Len(t, st.History, 1)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber was not notified")
		}
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s, _ := newStore(t, &instantGateway{})
	var calls atomic.Int32
	unsubscribe := s.Subscribe(func(State) { calls.Add(1) })

	require.True(t, s.Select("jericho"))
	assert.Equal(t, int32(1), calls.Load())

	unsubscribe()
	s.ClearSelection()
	assert.Equal(t, int32(1), calls.Load())
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newStore(t, &instantGateway{})
	snap := s.Snapshot()
	snap.World.Cities[0].Name = "Mutated"
	snap.World.Year = 99

	again := s.Snapshot()
	assert.NotEqual(t, "Mutated", again.World.Cities[0].Name)
	assert.Equal(t, -10000, again.World.Year)
}

func TestAdoptWorldOnlyBeforeFirstIntervention(t *testing.T) {
	gw := &instantGateway{}
	s, sched := newStore(t, gw)

	generated := baseline(t, 2)
	generated.Year, generated.Epoch = 1234, 7
	require.NoError(t, s.AdoptWorld(generated))
	snap := s.Snapshot()
	assert.Equal(t, -10000, snap.World.Year)
	assert.Equal(t, 1, snap.World.Epoch)
	assert.Equal(t, generated.Cities, snap.World.Cities)

	broken := baseline(t, 1)
	broken.Cities[0].Brightness = 3
	assert.Error(t, s.AdoptWorld(broken))

	tk, ok := s.SubmitAt("Plant olive groves", tradingPost)
	require.True(t, ok)
	wait(t, tk)
	assert.Error(t, s.AdoptWorld(baseline(t, 1)))
	sched.fire()
	assert.Error(t, s.AdoptWorld(baseline(t, 1)))
}

type slowGateway struct{ mockdata.Gateway }

func (slowGateway) Intervene(ctx context.Context, _ models.InterventionRequest) (*models.InterventionResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRequestTimeoutRecovers(t *testing.T) {
	s, sched := newStore(t, slowGateway{}, WithRequestTimeout(20*time.Millisecond))

	tk, ok := s.SubmitAt("Wait for the rains", tradingPost)
	require.True(t, ok)
	_, err := wait(t, tk)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, s.Snapshot().Loading)

	sched.fire()
	assert.Equal(t, 2, s.Snapshot().Epoch)
}

func TestTicketWaitHonoursContext(t *testing.T) {
	gw := newHeldGateway()
	s, _ := newStore(t, gw)
	tk, ok := s.SubmitAt("Dig a canal", tradingPost)
	require.True(t, ok)

	_, err := tk.Result()
	assert.Error(t, err, "still in flight")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tk.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	gw.next(t).reply <- reply{err: errors.New("boom")}
	_, err = wait(t, tk)
	assert.EqualError(t, err, "boom")
}
