// Package anim holds the time-driven interpolators behind the ripple and
// the year counter. Each one is a small struct and a pure function of the
// time passed in; the caller decides how often to sample it.
package anim

import (
	"time"

	"github.com/tatianab/chronicle/internal/geo"
	"github.com/tatianab/chronicle/internal/models"
)

// Clock is the time source the UI samples drivers with.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const RippleDuration = 5 * time.Second

// Ripple is a wave spreading out over the globe from Center.
type Ripple struct {
	Center   models.LatLng
	Start    time.Time
	Duration time.Duration

	complete bool
}

func NewRipple(center models.LatLng, start time.Time) *Ripple {
	return &Ripple{Center: center, Start: start, Duration: RippleDuration}
}

// Progress is the eased fraction of the wave's travel, in [0,1].
func (r *Ripple) Progress(now time.Time) float64 {
	if r.complete || r.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(r.Start)) / float64(r.Duration)
	p = max(0, min(1, p))
	return 1 - (1-p)*(1-p)
}

// Radius is how far the wave has travelled, in degrees of arc.
func (r *Ripple) Radius(now time.Time) float64 {
	return r.Progress(now) * 180
}

// Reveals reports whether the wave has reached p.
func (r *Ripple) Reveals(p models.LatLng, now time.Time) bool {
	return geo.AngularDistance(r.Center, p) <= r.Radius(now)
}

func (r *Ripple) Done(now time.Time) bool {
	return r.Progress(now) >= 1
}

// Complete jumps to the end of the wave.
func (r *Ripple) Complete() {
	r.complete = true
}
