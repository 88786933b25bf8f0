package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioreport/bioreport-go/client"
	"github.com/bioreport/bioreport-go/guard"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and persist the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := newStore()
		if err != nil {
			return err
		}
		defer cleanup()

		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		defer password.Destroy()

		if err := store.Login(cmd.Context(), args[0], passwordString(password)); err != nil {
			return describeAuthError(err)
		}

		state := store.Snapshot()
		fmt.Printf("Signed in as %s\n", args[0])
		if d := guard.FullyProtected(state); d.Kind == guard.Redirect && d.Target == guard.SetupRoute {
			fmt.Println("Account setup is not complete yet. Run `bioreport setup` to finish it.")
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := newStore()
		if err != nil {
			return err
		}
		defer cleanup()

		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		defer password.Destroy()

		if err := store.Register(cmd.Context(), args[0], passwordString(password)); err != nil {
			return describeAuthError(err)
		}
		fmt.Printf("Registered %s\n", args[0])
		fmt.Println("Run `bioreport setup` to complete account setup.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cookies, cleanup, err := newStore()
		if err != nil {
			return err
		}
		defer cleanup()

		// Best-effort remote, unconditional local: the store resets its
		// state even when the network call fails, and the on-disk
		// cookies go with it.
		store.Logout(cmd.Context())
		if err := cookies.Clear(); err != nil {
			return fmt.Errorf("clearing cookie jar: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := newStore()
		if err != nil {
			return err
		}
		defer cleanup()

		store.Init(cmd.Context())
		state := store.Snapshot()
		if !state.IsAuthenticated() {
			fmt.Println("Not signed in.")
			return nil
		}
		if !state.HasCompletedSetup() {
			fmt.Println("Signed in; account setup not complete.")
			return nil
		}
		acct := state.Account
		nickname := "(none)"
		if acct.Nickname != nil {
			nickname = *acct.Nickname
		}
		fmt.Printf("Signed in. Account %s nickname=%s language=%s timezone=%s\n",
			acct.ID, nickname, acct.Language, acct.Timezone)
		return nil
	},
}

// describeAuthError turns a typed API error into a message fit for the
// terminal, surfacing per-field validation output when present.
func describeAuthError(err error) error {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.IsAuth() {
		return errors.New("invalid credentials or expired session")
	}
	if apiErr.IsValidation() {
		return fmt.Errorf("%s", apiErr.FirstError())
	}
	return err
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
