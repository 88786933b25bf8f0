package apitest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bioreport/bioreport-go/client"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeValidation(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "validation failed",
		"errors":  fields,
	})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, client.HealthResponse{
		Service:     "bioreport",
		Environment: "test",
		Version:     "0.0.0",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[client.LoginRequest](w, r)
	if !ok {
		return
	}
	fields := map[string][]string{}
	if req.Email == "" {
		fields["email"] = []string{"email is required"}
	}
	if req.Password == "" {
		fields["password"] = []string{"password is required"}
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.issueSession(w, req.Email)
	writeJSON(w, http.StatusOK, client.LoginResponse{User: req.Email})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[client.RegisterRequest](w, r)
	if !ok {
		return
	}
	fields := map[string][]string{}
	if req.Email == "" {
		fields["email"] = []string{"email is required"}
	}
	if len(req.Password) < 8 {
		fields["password"] = []string{"password must be at least 8 characters"}
	}
	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		fields["email"] = append(fields["email"], "email is already taken")
	}
	s.mu.Unlock()
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	rec := userRecord{ID: uuid.NewString(), Password: req.Password}
	s.mu.Lock()
	s.users[req.Email] = rec
	s.mu.Unlock()
	s.issueSession(w, req.Email)
	writeJSON(w, http.StatusCreated, client.RegisterResponse{
		User: client.RegisteredUser{ID: rec.ID, Email: req.Email},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	gate := s.refreshGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c, err := r.Cookie(refreshCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	s.mu.Lock()
	email, ok := s.refresh[c.Value]
	fail := s.refreshFails
	s.mu.Unlock()
	if fail || !ok {
		writeError(w, http.StatusUnauthorized, "refresh rejected")
		return
	}

	// Rotate the session token; the refresh token stays valid.
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = email
	s.mu.Unlock()
	setCookie(w, sessionCookie, token)
	writeJSON(w, http.StatusOK, client.RefreshResponse{Status: "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		s.mu.Lock()
		delete(s.refresh, c.Value)
		s.mu.Unlock()
	}
	clearCookie(w, sessionCookie)
	clearCookie(w, refreshCookie)
	writeJSON(w, http.StatusOK, client.LogoutResponse{Status: "logged_out"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if _, ok := decodeJSON[client.ForgotPasswordRequest](w, r); !ok {
		return
	}
	// Always "ok" so the endpoint does not leak which emails exist.
	writeJSON(w, http.StatusOK, client.ForgotPasswordResponse{Status: "ok"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[client.ResetPasswordRequest](w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		writeValidation(w, map[string][]string{"token": {"token is required"}})
		return
	}
	writeJSON(w, http.StatusOK, client.ResetPasswordResponse{User: "reset"})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.accountCalls++
	forced := s.accountStatus
	s.mu.Unlock()
	if forced != 0 {
		writeError(w, forced, http.StatusText(forced))
		return
	}
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.CreateAccountRequest](w, r)
	if !ok {
		return
	}
	if req.Sex != client.SexMale && req.Sex != client.SexFemale {
		writeValidation(w, map[string][]string{"sex": {"sex must be male or female"}})
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "account already exists")
		return
	}
	acct := client.Account{
		ID:          s.users[email].ID,
		Nickname:    req.Nickname,
		DateOfBirth: req.DateOfBirth,
		Sex:         req.Sex,
		Language:    req.Language,
		Timezone:    req.Timezone,
	}
	s.accounts[email] = acct
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.UpdateAccountRequest](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	acct, exists := s.accounts[email]
	if !exists {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if req.Nickname != nil {
		acct.Nickname = req.Nickname
	}
	if req.Language != nil {
		acct.Language = *req.Language
	}
	if req.Timezone != nil {
		acct.Timezone = *req.Timezone
	}
	if req.Sex != nil {
		acct.Sex = *req.Sex
	}
	if req.DateOfBirth != nil {
		acct.DateOfBirth = *req.DateOfBirth
	}
	s.accounts[email] = acct
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.UpdateAccountResponse{Status: "updated"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.DeleteAccountRequest](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u := s.users[email]
	if u.Password != req.Password {
		s.mu.Unlock()
		writeValidation(w, map[string][]string{"password": {"password is incorrect"}})
		return
	}
	delete(s.users, email)
	delete(s.accounts, email)
	delete(s.reports, email)
	for token, e := range s.sessions {
		if e == email {
			delete(s.sessions, token)
		}
	}
	for token, e := range s.refresh {
		if e == email {
			delete(s.refresh, token)
		}
	}
	s.mu.Unlock()
	clearCookie(w, sessionCookie)
	clearCookie(w, refreshCookie)
	writeJSON(w, http.StatusOK, client.DeleteAccountResponse{Status: "account_deleted"})
}

func (s *Server) handleUpdateSecurity(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.UpdateSecurityRequest](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u := s.users[email]
	if u.Password != req.CurrentPassword {
		s.mu.Unlock()
		writeValidation(w, map[string][]string{"current_password": {"password is incorrect"}})
		return
	}
	if req.Password != nil {
		u.Password = *req.Password
		s.users[email] = u
	}
	if req.Email != nil && *req.Email != email {
		delete(s.users, email)
		s.users[*req.Email] = u
		if acct, ok := s.accounts[email]; ok {
			delete(s.accounts, email)
			s.accounts[*req.Email] = acct
		}
		for token, e := range s.sessions {
			if e == email {
				s.sessions[token] = *req.Email
			}
		}
		for token, e := range s.refresh {
			if e == email {
				s.refresh[token] = *req.Email
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.UpdateSecurityResponse{Status: "updated"})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	reports := append([]client.DiagnosticReport(nil), s.reports[email]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.ListReportsResponse{Data: reports})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.CreateReportRequest](w, r)
	if !ok {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	s.nextID++
	report := client.DiagnosticReport{
		ID:           s.nextID,
		Title:        req.Title,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
		Observations: []client.Observation{},
	}
	s.reports[email] = append(s.reports[email], report)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, report)
}

// findReport returns the index of the report in email's list, or -1.
// Caller must hold s.mu.
func (s *Server) findReport(email string, id int64) int {
	for i, rep := range s.reports[email] {
		if rep.ID == id {
			return i
		}
	}
	return -1
}

func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(email, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, s.reports[email][i])
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.CreateReportRequest](w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(email, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if req.Title != nil {
		s.reports[email][i].Title = req.Title
	}
	if req.Notes != nil {
		s.reports[email][i].Notes = req.Notes
	}
	s.reports[email][i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, s.reports[email][i])
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	i := s.findReport(email, id)
	if i >= 0 {
		s.reports[email] = append(s.reports[email][:i], s.reports[email][i+1:]...)
	}
	s.mu.Unlock()
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddObservation(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.CreateObservationRequest](w, r)
	if !ok {
		return
	}
	if req.BiomarkerName == "" {
		writeValidation(w, map[string][]string{"biomarker_name": {"biomarker_name is required"}})
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(email, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	s.nextID++
	obs := client.Observation{
		ID:                s.nextID,
		BiomarkerName:     req.BiomarkerName,
		BiomarkerCode:     req.BiomarkerCode,
		Value:             req.Value,
		Unit:              req.Unit,
		ReferenceRangeMin: req.ReferenceRangeMin,
		ReferenceRangeMax: req.ReferenceRangeMax,
		ReferenceUnit:     req.ReferenceUnit,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.reports[email][i].Observations = append(s.reports[email][i].Observations, obs)
	writeJSON(w, http.StatusCreated, obs)
}

func (s *Server) handleDeleteObservation(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	obsID, err := strconv.ParseInt(chi.URLParam(r, "observationID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "observation not found")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReport(email, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	obs := s.reports[email][i].Observations
	for j, o := range obs {
		if o.ID == obsID {
			s.reports[email][i].Observations = append(obs[:j], obs[j+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "observation not found")
}
