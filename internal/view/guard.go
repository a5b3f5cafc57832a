package view

import (
	"context"
	"errors"
	"sync"

	"leaderboard/internal/auth"
)

// Guard subscribes to gate and waits for its first state. When that state
// is "no user" it returns auth.ErrUnauthenticated. Otherwise it returns a
// context that is cancelled as soon as the gate later reports no user, so
// fetches still in flight are abandoned. release must be called when the
// page is done.
func Guard(parent context.Context, gate auth.Gate) (ctx context.Context, user *auth.User, release func(), err error) {
	ctx, cancel := context.WithCancelCause(parent)
	first := make(chan *auth.User, 1)
	var once sync.Once

	unsubscribe := gate.Subscribe(func(u *auth.User) {
		once.Do(func() { first <- u })
		if u == nil {
			cancel(auth.ErrUnauthenticated)
		}
	})
	release = func() {
		unsubscribe()
		cancel(context.Canceled)
	}

	select {
	case user = <-first:
	case <-parent.Done():
		release()
		return nil, nil, func() {}, parent.Err()
	}
	if user == nil {
		release()
		return nil, nil, func() {}, auth.ErrUnauthenticated
	}
	return ctx, user, release, nil
}

// abandoned reports whether the page lost its user while loading. Results
// that resolve after that point must not be rendered.
func abandoned(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), auth.ErrUnauthenticated)
}
