package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrUnauthenticated means the gate reported no signed-in user.
var ErrUnauthenticated = errors.New("no authenticated user")

// ErrForbidden means the user is signed in but lacks the required role.
var ErrForbidden = errors.New("forbidden")

// Listener receives the current user, or nil when nobody is signed in.
type Listener func(u *User)

// Gate is a stream of auth states. Subscribe calls fn with the current state
// before returning and again on every transition until unsubscribe is called.
type Gate interface {
	Subscribe(fn Listener) (unsubscribe func())
}

// Broadcaster is a Gate whose state is set explicitly.
type Broadcaster struct {
	mu      sync.Mutex
	current *User
	nextID  int
	subs    map[int]Listener
}

// NewBroadcaster starts with u as the current state.
func NewBroadcaster(u *User) *Broadcaster {
	return &Broadcaster{current: u, subs: make(map[int]Listener)}
}

// Subscribe implements Gate.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	current := b.current
	b.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Set moves to state u and notifies every subscriber.
func (b *Broadcaster) Set(u *User) {
	b.mu.Lock()
	b.current = u
	subs := make([]Listener, 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

// Revocations tracks logged-out token IDs.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenGate is the auth state of one request. It reports the token's user
// and switches to nil when the token expires while subscribed.
type TokenGate struct {
	user *User
}

// NewTokenGate validates raw. Missing, invalid and revoked tokens all
// produce a gate that reports no user. A revocation lookup error is treated
// as revoked.
func NewTokenGate(ctx context.Context, raw, key, issuer string, rev Revocations) *TokenGate {
	if raw == "" {
		return &TokenGate{}
	}
	u, err := Parse(raw, key, issuer)
	if err != nil {
		return &TokenGate{}
	}
	if rev != nil {
		revoked, err := rev.Revoked(ctx, u.TokenID)
		if err != nil || revoked {
			return &TokenGate{}
		}
	}
	return &TokenGate{user: u}
}

// User returns the user the token carried, or nil.
func (g *TokenGate) User() *User { return g.user }

// Subscribe implements Gate.
func (g *TokenGate) Subscribe(fn Listener) func() {
	fn(g.user)
	if g.user == nil {
		return func() {}
	}
	var active atomic.Bool
	active.Store(true)
	timer := time.AfterFunc(time.Until(g.user.ExpiresAt), func() {
		if active.Load() {
			fn(nil)
		}
	})
	return func() {
		active.Store(false)
		timer.Stop()
	}
}
