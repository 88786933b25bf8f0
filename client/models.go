package client

import "github.com/go-openapi/strfmt"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /auth/login. User is an opaque
// display identifier; the account fetch is what establishes identity.
type LoginResponse struct {
	User string `json:"user"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned from POST /auth/register.
type RegisterResponse struct {
	User RegisteredUser `json:"user"`
}

// RegisteredUser is the identity payload inside RegisterResponse.
type RegisteredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RefreshResponse is returned from POST /auth/refresh.
type RefreshResponse struct {
	Status string `json:"status"`
}

// LogoutResponse is returned from POST /auth/logout.
type LogoutResponse struct {
	Status string `json:"status"`
}

// ForgotPasswordRequest is the JSON body for POST /auth/password/forgot.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse is returned from POST /auth/password/forgot.
type ForgotPasswordResponse struct {
	Status string `json:"status"`
}

// ResetPasswordRequest is the JSON body for POST /auth/password/reset.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPasswordResponse is returned from POST /auth/password/reset.
type ResetPasswordResponse struct {
	User string `json:"user"`
}

// Sex is the account sex field; the backend accepts "male" or "female".
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Account is the post-registration user record. Its existence is what
// gates the main application: no account record means setup is not
// done yet.
type Account struct {
	ID          string      `json:"id"`
	Nickname    *string     `json:"nickname"`
	DateOfBirth strfmt.Date `json:"date_of_birth"`
	Sex         Sex         `json:"sex"`
	Language    string      `json:"language"`
	Timezone    string      `json:"timezone"`
}

// CreateAccountRequest is the JSON body for POST /account (the
// account-setup flow).
type CreateAccountRequest struct {
	Sex         Sex         `json:"sex"`
	DateOfBirth strfmt.Date `json:"date_of_birth"`
	Nickname    *string     `json:"nickname,omitempty"`
	Language    string      `json:"language,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
}

// UpdateAccountRequest is the JSON body for PATCH /account. Nil fields
// are omitted and left unchanged by the server.
type UpdateAccountRequest struct {
	Nickname    *string      `json:"nickname,omitempty"`
	Language    *string      `json:"language,omitempty"`
	Timezone    *string      `json:"timezone,omitempty"`
	Sex         *Sex         `json:"sex,omitempty"`
	DateOfBirth *strfmt.Date `json:"date_of_birth,omitempty"`
}

// UpdateAccountResponse is returned from PATCH /account.
type UpdateAccountResponse struct {
	Status string `json:"status"`
}

// DeleteAccountRequest is the JSON body for DELETE /account. The
// password re-authenticates the user before destruction.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccountResponse is returned from DELETE /account.
type DeleteAccountResponse struct {
	Status string `json:"status"`
}

// UpdateSecurityRequest is the JSON body for PATCH /me/security, used
// to change email or password. CurrentPassword is always required.
type UpdateSecurityRequest struct {
	CurrentPassword string  `json:"current_password"`
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"password,omitempty"`
}

// UpdateSecurityResponse is returned from PATCH /me/security.
type UpdateSecurityResponse struct {
	Status string `json:"status"`
}

// Observation is a single biomarker measurement inside a diagnostic
// report.
type Observation struct {
	ID                int64    `json:"id"`
	BiomarkerName     string   `json:"biomarker_name"`
	BiomarkerCode     *string  `json:"biomarker_code"`
	Value             float64  `json:"value"`
	Unit              string   `json:"unit"`
	ReferenceRangeMin *float64 `json:"reference_range_min"`
	ReferenceRangeMax *float64 `json:"reference_range_max"`
	ReferenceUnit     *string  `json:"reference_unit"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

// DiagnosticReport is a lab report with its observations.
type DiagnosticReport struct {
	ID           int64         `json:"id"`
	Title        *string       `json:"title,omitempty"`
	Notes        *string       `json:"notes"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	Observations []Observation `json:"observations"`
}

// ListReportsResponse is returned from GET /diagnostic-reports.
type ListReportsResponse struct {
	Data []DiagnosticReport `json:"data"`
}

// CreateReportRequest is the JSON body for POST /diagnostic-reports.
type CreateReportRequest struct {
	Title *string `json:"title,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// CreateObservationRequest is the JSON body for
// POST /diagnostic-reports/{id}/observations.
type CreateObservationRequest struct {
	BiomarkerName     string   `json:"biomarker_name"`
	BiomarkerCode     *string  `json:"biomarker_code,omitempty"`
	Value             float64  `json:"value"`
	Unit              string   `json:"unit"`
	ReferenceRangeMin *float64 `json:"reference_range_min,omitempty"`
	ReferenceRangeMax *float64 `json:"reference_range_max,omitempty"`
	ReferenceUnit     *string  `json:"reference_unit,omitempty"`
}

// HealthResponse is returned from GET /up.
type HealthResponse struct {
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
}
