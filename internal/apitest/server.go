// Package apitest provides an in-process BioReport backend speaking
// the exact wire contract the client consumes: cookie sessions,
// refresh rotation, and the account/report resources. Failure modes
// and call counters are scriptable so tests can drive the refresh
// protocol and the resolution policy deterministically.
package apitest

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bioreport/bioreport-go/client"
)

const (
	sessionCookie = "br_session"
	refreshCookie = "br_refresh"
)

type userRecord struct {
	ID       string
	Password string
}

// Server is the fake backend. All exported methods are safe for
// concurrent use; handlers and test scripting share one lock.
type Server struct {
	mu       sync.Mutex
	// keyed by email: credentials, account records, reports
	users    map[string]userRecord
	accounts map[string]client.Account
	reports  map[string][]client.DiagnosticReport
	nextID   int64

	sessions map[string]string // session token -> email
	refresh  map[string]string // refresh token -> email

	refreshFails  bool
	accountStatus int           // forced status for GET /account, 0 = off
	refreshGate   chan struct{} // refresh handler blocks on this when set

	refreshCalls      int
	accountCalls      int
	unauthorizedCalls int
}

// NewServer creates an empty fake backend.
func NewServer() *Server {
	return &Server{
		users:    make(map[string]userRecord),
		accounts: make(map[string]client.Account),
		reports:  make(map[string][]client.DiagnosticReport),
		sessions: make(map[string]string),
		refresh:  make(map[string]string),
	}
}

// Router returns the chi router covering the full wire contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/up", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)
	r.Post("/auth/password/forgot", s.handleForgotPassword)
	r.Post("/auth/password/reset", s.handleResetPassword)
	r.Get("/account", s.handleGetAccount)
	r.Post("/account", s.handleCreateAccount)
	r.Patch("/account", s.handleUpdateAccount)
	r.Delete("/account", s.handleDeleteAccount)
	r.Patch("/me/security", s.handleUpdateSecurity)
	r.Get("/diagnostic-reports", s.handleListReports)
	r.Post("/diagnostic-reports", s.handleCreateReport)
	r.Get("/diagnostic-reports/{reportID}", s.handleGetReport)
	r.Patch("/diagnostic-reports/{reportID}", s.handleUpdateReport)
	r.Delete("/diagnostic-reports/{reportID}", s.handleDeleteReport)
	r.Post("/diagnostic-reports/{reportID}/observations", s.handleAddObservation)
	r.Delete("/diagnostic-reports/{reportID}/observations/{observationID}", s.handleDeleteObservation)
	return r
}

// SeedUser registers credentials without going through the API.
func (s *Server) SeedUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = userRecord{ID: uuid.NewString(), Password: password}
}

// SeedAccount installs an account record for email. The record's ID is
// forced to the user's ID.
func (s *Server) SeedAccount(email string, acct client.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		acct.ID = u.ID
	}
	s.accounts[email] = acct
}

// ExpireSessions invalidates every session token while leaving refresh
// tokens valid, so the next authenticated request 401s and the refresh
// protocol can recover it.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// RevokeAll invalidates sessions and refresh tokens both; refresh
// attempts will fail until the next login.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
	s.refresh = make(map[string]string)
}

// SetRefreshFails forces the refresh endpoint to reject with 401.
func (s *Server) SetRefreshFails(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFails = fail
}

// ForceAccountStatus makes GET /account answer with the given status
// regardless of session or account state. 0 restores normal behavior.
func (s *Server) ForceAccountStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountStatus = status
}

// HoldRefresh blocks the refresh handler until the returned release
// function is called. Tests use it to pin the refresh in flight while
// concurrent requests pile up behind it.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.refreshGate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// AccountCalls reports how many times GET /account was hit.
func (s *Server) AccountCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountCalls
}

// UnauthorizedCount reports how many authenticated-endpoint requests
// were answered 401.
func (s *Server) UnauthorizedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unauthorizedCalls
}

// authenticate resolves the session cookie to an email, counting a 401
// and writing the response itself when the session is missing or
// expired.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err == nil {
		s.mu.Lock()
		email, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			return email, true
		}
	}
	s.mu.Lock()
	s.unauthorizedCalls++
	s.mu.Unlock()
	writeError(w, http.StatusUnauthorized, "unauthenticated")
	return "", false
}

// issueSession sets fresh session and refresh cookies for email.
func (s *Server) issueSession(w http.ResponseWriter, email string) {
	token := uuid.NewString()
	refreshToken := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = email
	s.refresh[refreshToken] = email
	s.mu.Unlock()
	setCookie(w, sessionCookie, token)
	setCookie(w, refreshCookie, refreshToken)
}

func setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
