package guard_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioreport/bioreport-go/client"
	"github.com/bioreport/bioreport-go/guard"
	"github.com/bioreport/bioreport-go/internal/apitest"
	"github.com/bioreport/bioreport-go/session"
)

func state(loading, authenticated, setupDone bool) session.State {
	s := session.State{IsLoading: loading}
	if authenticated {
		s.User = &session.User{ID: "u1"}
	}
	if setupDone {
		s.Account = &client.Account{ID: "u1"}
	}
	return s
}

func TestGuestOnly(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  guard.Decision
	}{
		{"loading", state(true, false, false), guard.Decision{Kind: guard.Loading}},
		{"authenticated redirects to dashboard", state(false, true, true), guard.Decision{Kind: guard.Redirect, Target: guard.DashboardRoute}},
		{"guest renders", state(false, false, false), guard.Decision{Kind: guard.Render}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.GuestOnly(tt.state))
		})
	}
}

func TestSetupRequired(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  guard.Decision
	}{
		{"loading", state(true, false, false), guard.Decision{Kind: guard.Loading}},
		{"unauthenticated redirects to login", state(false, false, false), guard.Decision{Kind: guard.Redirect, Target: guard.LoginRoute}},
		{"setup done redirects to dashboard", state(false, true, true), guard.Decision{Kind: guard.Redirect, Target: guard.DashboardRoute}},
		{"setup pending renders", state(false, true, false), guard.Decision{Kind: guard.Render}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.SetupRequired(tt.state))
		})
	}
}

func TestFullyProtected(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  guard.Decision
	}{
		{"loading", state(true, false, false), guard.Decision{Kind: guard.Loading}},
		{"unauthenticated redirects to login", state(false, false, false), guard.Decision{Kind: guard.Redirect, Target: guard.LoginRoute}},
		{"setup pending redirects to setup", state(false, true, false), guard.Decision{Kind: guard.Redirect, Target: guard.SetupRoute}},
		{"ready renders", state(false, true, true), guard.Decision{Kind: guard.Render}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.FullyProtected(tt.state))
		})
	}
}

// Loading outranks everything: even a fully authenticated, fully set
// up state shows the transient indicator while a probe is in flight.
func TestLoadingBeatsEverything(t *testing.T) {
	s := state(true, true, true)
	assert.Equal(t, guard.Loading, guard.GuestOnly(s).Kind)
	assert.Equal(t, guard.Loading, guard.SetupRequired(s).Kind)
	assert.Equal(t, guard.Loading, guard.FullyProtected(s).Kind)
}

// End-to-end gate scenario: a fresh registration is authenticated but
// blocked from the main application until the account record exists.
func TestRegisterThenSetupGate(t *testing.T) {
	backend := apitest.NewServer()
	srv := httptest.NewServer(backend.Router())
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	store := session.NewStore(c)
	require.NoError(t, store.Register(context.Background(), "new@example.com", "password-123"))

	d := guard.FullyProtected(store.Snapshot())
	require.Equal(t, guard.Redirect, d.Kind)
	require.Equal(t, guard.SetupRoute, d.Target)
	assert.Equal(t, guard.Render, guard.SetupRequired(store.Snapshot()).Kind)

	acct, err := c.CreateAccount(context.Background(), client.CreateAccountRequest{Sex: client.SexFemale})
	require.NoError(t, err)
	store.SetAccount(acct)

	assert.Equal(t, guard.Render, guard.FullyProtected(store.Snapshot()).Kind)
	assert.Equal(t, guard.DashboardRoute, guard.SetupRequired(store.Snapshot()).Target)
}
