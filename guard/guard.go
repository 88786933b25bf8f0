// Package guard decides, for each route category, whether to render
// the guarded content, redirect elsewhere, or show a transient loading
// indicator. Guards are pure functions of session state: no fetching,
// no owned state, and a fixed check order — loading beats
// authentication, authentication beats setup completion.
package guard

import "github.com/bioreport/bioreport-go/session"

// Kind is the category of a guard decision.
type Kind int

const (
	// Loading: the session probe has not finished; render a transient
	// indicator, neither content nor a redirect.
	Loading Kind = iota
	// Render: show the guarded content.
	Render
	// Redirect: navigate to Decision.Target.
	Redirect
)

// Well-known navigation targets.
const (
	LoginRoute     = "/login"
	DashboardRoute = "/dashboard"
	SetupRoute     = "/account-setup"
)

// Decision is a guard verdict. Target is set only for redirects.
type Decision struct {
	Kind   Kind
	Target string
}

func loading() Decision { return Decision{Kind: Loading} }

func render() Decision { return Decision{Kind: Render} }

func redirect(to string) Decision {
	return Decision{Kind: Redirect, Target: to}
}

// GuestOnly guards routes for signed-out visitors (login,
// registration). Authenticated users are sent to the dashboard.
func GuestOnly(s session.State) Decision {
	if s.IsLoading {
		return loading()
	}
	if s.IsAuthenticated() {
		return redirect(DashboardRoute)
	}
	return render()
}

// SetupRequired guards the one-time account-setup flow. It is not
// re-enterable: once setup is complete the user is sent to the
// dashboard.
func SetupRequired(s session.State) Decision {
	if s.IsLoading {
		return loading()
	}
	if !s.IsAuthenticated() {
		return redirect(LoginRoute)
	}
	if s.HasCompletedSetup() {
		return redirect(DashboardRoute)
	}
	return render()
}

// FullyProtected guards the main application: it requires both a
// valid session and a completed account setup.
func FullyProtected(s session.State) Decision {
	if s.IsLoading {
		return loading()
	}
	if !s.IsAuthenticated() {
		return redirect(LoginRoute)
	}
	if !s.HasCompletedSetup() {
		return redirect(SetupRoute)
	}
	return render()
}
