package anim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tatianab/chronicle/internal/models"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRippleProgress(t *testing.T) {
	r := NewRipple(models.LatLng{Lat: 31.87, Lng: 35.44}, t0)

	tests := []struct {
		at   time.Duration
		want float64
	}{
		{-time.Second, 0},
		{0, 0},
		{RippleDuration / 2, 0.75},
		{RippleDuration, 1},
		{2 * RippleDuration, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, r.Progress(t0.Add(tt.at)), 1e-9, "at %v", tt.at)
	}

	prev := -1.0
	for d := time.Duration(0); d <= RippleDuration; d += 100 * time.Millisecond {
		p := r.Progress(t0.Add(d))
		assert.GreaterOrEqual(t, p, prev)
		prev = p
	}
	assert.False(t, r.Done(t0.Add(time.Second)))
	assert.True(t, r.Done(t0.Add(RippleDuration)))
}

func TestRippleRevealsOutwards(t *testing.T) {
	r := NewRipple(models.LatLng{Lat: 0, Lng: 0}, t0)
	near := models.LatLng{Lat: 0, Lng: 10}
	far := models.LatLng{Lat: 0, Lng: 170}

	assert.True(t, r.Reveals(models.LatLng{}, t0))
	assert.False(t, r.Reveals(near, t0))

	mid := t0.Add(RippleDuration / 2)
	assert.InDelta(t, 135, r.Radius(mid), 1e-9)
	assert.True(t, r.Reveals(near, mid))
	assert.False(t, r.Reveals(far, mid))

	r.Complete()
	assert.True(t, r.Done(t0))
	assert.True(t, r.Reveals(far, t0))
}

func TestYearCounterNeverReachesTargetWhilePending(t *testing.T) {
	for _, span := range [][2]int{{-10000, -2000}, {4000, 2000}, {1, 2}} {
		y := NewYearCounter(span[0], span[1], t0)
		prev := y.Value(t0)
		assert.Equal(t, span[0], prev)
		for _, d := range []time.Duration{time.Second, 10 * time.Second, time.Minute, time.Hour, 1000 * time.Hour} {
			v := y.Value(t0.Add(d))
			assert.NotEqual(t, span[1], v, "span %v after %v", span, d)
			if span[1] > span[0] {
				assert.GreaterOrEqual(t, v, prev)
			} else {
				assert.LessOrEqual(t, v, prev)
			}
			prev = v
		}
		assert.False(t, y.Finished(t0.Add(1000*time.Hour)))
	}
}

func TestYearCounterFinishIsIndependentOfWait(t *testing.T) {
	for _, wait := range []time.Duration{100 * time.Millisecond, 5 * time.Second, 10 * time.Minute} {
		y := NewYearCounter(-10000, -2000, t0)
		resolvedAt := t0.Add(wait)
		before := y.Value(resolvedAt)
		y.Resolve(resolvedAt)
		assert.True(t, y.Resolved())

		assert.Equal(t, before, y.Value(resolvedAt), "no jump on resolve")
		assert.False(t, y.Finished(resolvedAt.Add(DefaultFinishDuration/2)))
		assert.Equal(t, -2000, y.Value(resolvedAt.Add(DefaultFinishDuration)))
		assert.True(t, y.Finished(resolvedAt.Add(DefaultFinishDuration)))
		assert.Equal(t, -2000, y.Value(resolvedAt.Add(time.Hour)))
	}
}

func TestYearCounterResolveIsIdempotent(t *testing.T) {
	y := NewYearCounter(1, 2000, t0)
	y.Resolve(t0.Add(time.Second))
	y.Resolve(t0.Add(time.Hour))
	assert.True(t, y.Finished(t0.Add(time.Second+DefaultFinishDuration)))
}

func TestSystemClock(t *testing.T) {
	var c Clock = SystemClock{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
