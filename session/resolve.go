package session

import (
	"errors"
	"net/http"

	"github.com/bioreport/bioreport-go/client"
)

// Resolution classifies the outcome of an account probe into one of
// the three session shapes.
type Resolution int

const (
	// Unauthenticated: the probe hit an authentication failure, or
	// something unclassifiable. The conservative reading — never
	// present an authenticated shell on uncertain evidence.
	Unauthenticated Resolution = iota
	// AuthenticatedNoAccount: identity is valid but no account record
	// exists yet; the user must complete setup.
	AuthenticatedNoAccount
	// AuthenticatedWithAccount: identity is valid and setup is done.
	AuthenticatedWithAccount
)

// Resolve maps the result of a fetch-account call to a Resolution.
// The contract, fixed here for both the startup probe and post-login
// fetches: 404 and 409 are equivalent "no account record yet" signals
// (some backend revisions report the missing record as a conflict);
// 401 and everything else resolve to Unauthenticated.
func Resolve(err error) Resolution {
	if err == nil {
		return AuthenticatedWithAccount
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuth():
			return Unauthenticated
		case apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusConflict:
			return AuthenticatedNoAccount
		}
	}
	return Unauthenticated
}

// isNoAccount reports whether err means "authenticated, but no account
// record yet". Used where other failures must propagate instead of
// being absorbed (the login flow).
func isNoAccount(err error) bool {
	return Resolve(err) == AuthenticatedNoAccount
}
