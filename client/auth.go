package client

import "context"

// Login authenticates with email and password. On success the server
// sets the session cookies on the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.Post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates new account credentials. The returned identity is
// authenticated immediately, but no account record exists yet; the
// setup flow (CreateAccount) must run before the main application is
// reachable.
func (c *Client) Register(ctx context.Context, email, password string) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.Post(ctx, "/auth/register", RegisterRequest{Email: email, Password: password}, &out)
	return out, err
}

// Refresh renews the session explicitly. Ordinary callers never need
// this — Request runs the refresh protocol on 401 automatically.
func (c *Client) Refresh(ctx context.Context) (RefreshResponse, error) {
	var out RefreshResponse
	err := c.Post(ctx, "/auth/refresh", nil, &out)
	return out, err
}

// Logout ends the server-side session and clears the session cookies.
func (c *Client) Logout(ctx context.Context) (LogoutResponse, error) {
	var out LogoutResponse
	err := c.Post(ctx, "/auth/logout", nil, &out)
	return out, err
}

// ForgotPassword requests a password-reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (ForgotPasswordResponse, error) {
	var out ForgotPasswordResponse
	err := c.Post(ctx, "/auth/password/forgot", ForgotPasswordRequest{Email: email}, &out)
	return out, err
}

// ResetPassword completes a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (ResetPasswordResponse, error) {
	var out ResetPasswordResponse
	err := c.Post(ctx, "/auth/password/reset", ResetPasswordRequest{Token: token, Password: password}, &out)
	return out, err
}
