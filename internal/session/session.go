package session

import (
	"context"
	"errors"

	"github.com/angelmondragon/quickdeals/pkg/enums"
)

// CookieName carries the session id between submissions.
const CookieName = "qc_session"

// ErrBusy is returned when a session already has a question in flight.
var ErrBusy = errors.New("a question is already running for this session")

// Guard enforces at most one in-flight question per session.
type Guard interface {
	// Acquire moves id from idle to executing; false means it was already executing.
	Acquire(ctx context.Context, id string) (bool, error)
	// Release moves id back to idle.
	Release(ctx context.Context, id string) error
	State(ctx context.Context, id string) (enums.SessionState, error)
}

// Run executes fn while holding the session, returning ErrBusy when the
// session is already executing.
func Run(ctx context.Context, g Guard, id string, fn func(context.Context) error) error {
	ok, err := g.Acquire(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBusy
	}
	defer func() {
		_ = g.Release(context.WithoutCancel(ctx), id)
	}()
	return fn(ctx)
}
