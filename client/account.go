package client

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/language"

	"github.com/bioreport/bioreport-go/internal/util"
)

// GetAccount fetches the current user's account record. A 404 (or 409
// from backends that report "account record not yet created" as a
// conflict) means the user is authenticated but has not completed
// setup; session.ResolveAccount encodes that policy.
func (c *Client) GetAccount(ctx context.Context) (Account, error) {
	var out Account
	err := c.Get(ctx, "/account", &out)
	return out, err
}

// CreateAccount creates the account record (post-registration setup).
// The nickname is Unicode-normalized and the language tag validated
// locally before the request goes out, so obviously bad input fails
// without a round trip.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error) {
	if err := validateLanguage(req.Language); err != nil {
		return Account{}, err
	}
	req.Nickname = normalizeNickname(req.Nickname)
	var out Account
	err := c.Post(ctx, "/account", req, &out)
	return out, err
}

// UpdateAccount applies a partial update to the account record.
func (c *Client) UpdateAccount(ctx context.Context, req UpdateAccountRequest) (UpdateAccountResponse, error) {
	if req.Language != nil {
		if err := validateLanguage(*req.Language); err != nil {
			return UpdateAccountResponse{}, err
		}
	}
	req.Nickname = normalizeNickname(req.Nickname)
	var out UpdateAccountResponse
	err := c.Patch(ctx, "/account", req, &out)
	return out, err
}

// DeleteAccount permanently deletes the account. The password
// re-authenticates the user before destruction.
func (c *Client) DeleteAccount(ctx context.Context, password string) (DeleteAccountResponse, error) {
	var out DeleteAccountResponse
	err := c.Delete(ctx, "/account", DeleteAccountRequest{Password: password}, &out)
	return out, err
}

// UpdateSecurity changes the account email and/or password. The
// current password is always required.
func (c *Client) UpdateSecurity(ctx context.Context, req UpdateSecurityRequest) (UpdateSecurityResponse, error) {
	var out UpdateSecurityResponse
	err := c.Patch(ctx, "/me/security", req, &out)
	return out, err
}

// validateLanguage rejects malformed BCP 47 tags client-side with the
// same error shape a server-side validation failure would carry.
func validateLanguage(tag string) error {
	if tag == "" {
		return nil
	}
	if _, err := language.Parse(tag); err != nil {
		return &Error{
			Status:  http.StatusUnprocessableEntity,
			Message: "validation failed",
			FieldErrors: map[string][]string{
				"language": {fmt.Sprintf("invalid language tag %q", tag)},
			},
		}
	}
	return nil
}

func normalizeNickname(nickname *string) *string {
	if nickname == nil {
		return nil
	}
	n := util.Normalize(*nickname)
	return &n
}
