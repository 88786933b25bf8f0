// Package session tracks the client-side authentication state: who is
// signed in, whether their account setup is complete, and whether the
// initial probe is still running. State changes flow through a pure
// reducer so every reachable state is a function of the action
// history, independent of how the network calls are made.
package session

import "github.com/bioreport/bioreport-go/client"

// User is the bare authenticated identity, distinct from the richer
// account record created during setup.
type User struct {
	ID    string
	Email string
}

// State is an immutable snapshot of the session. The authentication
// and setup-completion facts are derived from the presence of User and
// Account rather than stored, so they can never disagree with them.
type State struct {
	User      *User
	Account   *client.Account
	IsLoading bool
}

// IsAuthenticated reports whether the last known authentication check
// succeeded.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// HasCompletedSetup reports whether the account record exists, i.e.
// post-registration setup is done.
func (s State) HasCompletedSetup() bool {
	return s.Account != nil
}

// initialState is the state at application start: nothing known yet,
// probe in flight.
func initialState() State {
	return State{IsLoading: true}
}

type actionKind int

const (
	actionSetLoading actionKind = iota
	actionSetUser
	actionSetAccount
	actionLogout
	actionInitComplete
)

type action struct {
	kind    actionKind
	loading bool
	user    *User
	account *client.Account
}

// reduce maps (state, action) to the next state. It is the only place
// session state is computed.
func reduce(s State, a action) State {
	switch a.kind {
	case actionSetLoading:
		s.IsLoading = a.loading
		return s
	case actionSetUser:
		s.User = a.user
		return s
	case actionSetAccount:
		s.Account = a.account
		return s
	case actionLogout:
		return State{}
	case actionInitComplete:
		return State{User: a.user, Account: a.account}
	default:
		return s
	}
}
