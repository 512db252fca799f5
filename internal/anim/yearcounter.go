package anim

import (
	"math"
	"time"
)

const (
	DefaultTau            = 6 * time.Second
	DefaultCeiling        = 0.95
	DefaultFinishDuration = time.Second
)

// YearCounter animates the displayed year from From towards To.
//
// While the result is pending the value creeps towards To and never
// reaches it, however long the wait. Once Resolve is called it snaps to
// To over FinishDuration, starting from wherever the creep had got to.
type YearCounter struct {
	From, To int
	Start    time.Time

	Tau            time.Duration
	Ceiling        float64 // fraction of the distance the pending phase can cover; below 1
	FinishDuration time.Duration

	resolved     bool
	resolvedAt   time.Time
	resolvedFrom float64
}

func NewYearCounter(from, to int, start time.Time) *YearCounter {
	return &YearCounter{
		From:           from,
		To:             to,
		Start:          start,
		Tau:            DefaultTau,
		Ceiling:        DefaultCeiling,
		FinishDuration: DefaultFinishDuration,
	}
}

func (y *YearCounter) pending(now time.Time) float64 {
	t := max(0, float64(now.Sub(y.Start)))
	ceiling := max(0, min(y.Ceiling, 0.999))
	frac := 1.0
	if y.Tau > 0 {
		frac = 1 - math.Exp(-t/float64(y.Tau))
	}
	return float64(y.From) + float64(y.To-y.From)*ceiling*frac
}

// Resolve starts the finishing phase. Later calls are ignored.
func (y *YearCounter) Resolve(now time.Time) {
	if y.resolved {
		return
	}
	y.resolvedFrom = float64(y.Value(now))
	y.resolvedAt = now
	y.resolved = true
}

func (y *YearCounter) Resolved() bool { return y.resolved }

// Value is the year to display at now.
func (y *YearCounter) Value(now time.Time) int {
	if !y.resolved {
		// Truncating towards From keeps the pending phase short of To.
		return y.From + int(y.pending(now)-float64(y.From))
	}
	if y.Finished(now) {
		return y.To
	}
	p := float64(now.Sub(y.resolvedAt)) / float64(y.FinishDuration)
	p = max(0, p)
	eased := 1 - math.Pow(1-p, 3)
	return int(math.Round(y.resolvedFrom + (float64(y.To)-y.resolvedFrom)*eased))
}

// Finished reports whether the counter has settled on To.
func (y *YearCounter) Finished(now time.Time) bool {
	return y.resolved && (y.FinishDuration <= 0 || now.Sub(y.resolvedAt) >= y.FinishDuration)
}
