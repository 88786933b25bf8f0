package session

import (
	"context"
	"sync"

	"github.com/bioreport/bioreport-go/client"
)

// Store is the single source of truth for session state. It owns the
// state behind a lock, applies every change through the reducer, and
// notifies subscribers with immutable snapshots. Safe for concurrent
// use.
type Store struct {
	api *client.Client

	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a Store in the initial loading state. Call Init
// once at startup to run the session probe.
func NewStore(api *client.Client) *Store {
	return &Store{
		api:   api,
		state: initialState(),
		subs:  make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called with a snapshot after every
// state transition. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// dispatch applies a through the reducer and notifies subscribers.
// Subscribers run outside the lock so they may call Snapshot or
// dispatch further actions without deadlocking.
func (s *Store) dispatch(a action) {
	s.mu.Lock()
	s.state = reduce(s.state, a)
	next := s.state
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}

// Init runs the startup session probe: one fetch-account call, with
// the outcome absorbed into state. It never returns an error and
// always clears the loading flag — route guards depend on that.
// Re-probing the server on every application start is required
// behavior; the client holds no durable credential of its own.
func (s *Store) Init(ctx context.Context) {
	acct, err := s.api.GetAccount(ctx)
	switch Resolve(err) {
	case AuthenticatedWithAccount:
		s.dispatch(action{kind: actionInitComplete, user: &User{ID: acct.ID}, account: &acct})
	case AuthenticatedNoAccount:
		s.dispatch(action{kind: actionInitComplete, user: &User{}})
	default:
		s.dispatch(action{kind: actionInitComplete})
	}
}

// Login authenticates and fetches the account record. A missing
// account record is a valid outcome (setup not done yet), not an
// error. The loading flag is cleared on every path, including error
// returns.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.dispatch(action{kind: actionSetLoading, loading: true})
	defer s.dispatch(action{kind: actionSetLoading, loading: false})

	if _, err := s.api.Login(ctx, email, password); err != nil {
		return err
	}
	s.dispatch(action{kind: actionSetUser, user: &User{Email: email}})

	acct, err := s.api.GetAccount(ctx)
	switch {
	case err == nil:
		s.dispatch(action{kind: actionSetAccount, account: &acct})
	case isNoAccount(err):
		s.dispatch(action{kind: actionSetAccount})
	default:
		return err
	}
	return nil
}

// Register creates credentials for a new account. New identities never
// have an account record, so none is fetched and the setup gate is
// forced on.
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.dispatch(action{kind: actionSetLoading, loading: true})
	defer s.dispatch(action{kind: actionSetLoading, loading: false})

	resp, err := s.api.Register(ctx, email, password)
	if err != nil {
		return err
	}
	s.dispatch(action{kind: actionSetUser, user: &User{ID: resp.User.ID, Email: resp.User.Email}})
	s.dispatch(action{kind: actionSetAccount})
	return nil
}

// Logout ends the session: best-effort remote, unconditional local.
// A failing network call must not leave the client believing it is
// still authenticated.
func (s *Store) Logout(ctx context.Context) {
	s.api.Logout(ctx) //nolint:errcheck // local reset happens regardless
	s.dispatch(action{kind: actionLogout})
}

// RefreshAccount re-fetches the account record opportunistically. On
// any failure the current state is left untouched; background
// refreshes never degrade what the user already sees.
func (s *Store) RefreshAccount(ctx context.Context) {
	acct, err := s.api.GetAccount(ctx)
	if err != nil {
		return
	}
	s.dispatch(action{kind: actionSetAccount, account: &acct})
}

// SetAccount applies an account record locally, without a network
// round trip. Used right after the setup flow completes, since the
// caller already holds the created record.
func (s *Store) SetAccount(acct client.Account) {
	s.dispatch(action{kind: actionSetAccount, account: &acct})
}
