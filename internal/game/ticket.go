package game

import (
	"context"
	"errors"
	"sync"

	"github.com/tatianab/chronicle/internal/models"
)

// ErrAbandoned is the outcome of a submission that was still in flight
// when the game was reset.
var ErrAbandoned = errors.New("intervention abandoned by reset")

// Ticket tracks one accepted submission until it resolves.
type Ticket struct {
	Intervention models.Intervention

	once   sync.Once
	done   chan struct{}
	result *models.InterventionResult
	err    error
}

func newTicket(iv models.Intervention) *Ticket {
	return &Ticket{Intervention: iv, done: make(chan struct{})}
}

// Done is closed once the submission has resolved, failed or been abandoned.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Result returns the outcome. It is only meaningful after Done is closed.
// A non-nil error does not mean the game stalled: the store has already
// recovered with fallback data.
func (t *Ticket) Result() (*models.InterventionResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return nil, errors.New("intervention still in flight")
	}
}

// Wait blocks until the ticket resolves or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (*models.InterventionResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Ticket) finish(res *models.InterventionResult, err error) {
	t.once.Do(func() {
		t.result, t.err = res, err
		close(t.done)
	})
}
