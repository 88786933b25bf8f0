package cmd

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/spf13/cobra"

	"github.com/bioreport/bioreport-go/client"
)

var (
	setupSex      string
	setupDOB      string
	setupNickname string
	setupLanguage string
	setupTimezone string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Complete account setup after registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		dob, err := time.Parse("2006-01-02", setupDOB)
		if err != nil {
			return fmt.Errorf("--dob must be YYYY-MM-DD: %w", err)
		}
		req := client.CreateAccountRequest{
			Sex:         client.Sex(setupSex),
			DateOfBirth: strfmt.Date(dob),
			Language:    setupLanguage,
			Timezone:    setupTimezone,
		}
		if setupNickname != "" {
			req.Nickname = &setupNickname
		}
		acct, err := api.CreateAccount(cmd.Context(), req)
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Printf("Account setup complete (id %s).\n", acct.ID)
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect and manage the account record",
}

var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the account record",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		acct, err := api.GetAccount(cmd.Context())
		if err != nil {
			return describeAuthError(err)
		}
		nickname := "(none)"
		if acct.Nickname != nil {
			nickname = *acct.Nickname
		}
		fmt.Printf("id:        %s\n", acct.ID)
		fmt.Printf("nickname:  %s\n", nickname)
		fmt.Printf("birth:     %s\n", acct.DateOfBirth)
		fmt.Printf("sex:       %s\n", acct.Sex)
		fmt.Printf("language:  %s\n", acct.Language)
		fmt.Printf("timezone:  %s\n", acct.Timezone)
		return nil
	},
}

var (
	updateNickname string
	updateLanguage string
	updateTimezone string
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update account fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		var req client.UpdateAccountRequest
		if cmd.Flags().Changed("nickname") {
			req.Nickname = &updateNickname
		}
		if cmd.Flags().Changed("language") {
			req.Language = &updateLanguage
		}
		if cmd.Flags().Changed("timezone") {
			req.Timezone = &updateTimezone
		}
		if req.Nickname == nil && req.Language == nil && req.Timezone == nil {
			return fmt.Errorf("nothing to update; pass --nickname, --language or --timezone")
		}
		if _, err := api.UpdateAccount(cmd.Context(), req); err != nil {
			return describeAuthError(err)
		}
		fmt.Println("Account updated.")
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, err := promptLine("Type the account email to confirm deletion")
		if err != nil {
			return err
		}
		if confirm == "" {
			return fmt.Errorf("aborted")
		}

		api, cookies, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		defer password.Destroy()

		if _, err := api.DeleteAccount(cmd.Context(), passwordString(password)); err != nil {
			return describeAuthError(err)
		}
		if err := cookies.Clear(); err != nil {
			return fmt.Errorf("clearing cookie jar: %w", err)
		}
		fmt.Println("Account deleted.")
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupSex, "sex", "", "sex (male or female)")
	setupCmd.Flags().StringVar(&setupDOB, "dob", "", "date of birth (YYYY-MM-DD)")
	setupCmd.Flags().StringVar(&setupNickname, "nickname", "", "display nickname")
	setupCmd.Flags().StringVar(&setupLanguage, "language", "", "preferred language tag, e.g. en or pt-BR")
	setupCmd.Flags().StringVar(&setupTimezone, "timezone", "", "IANA timezone, e.g. Europe/Lisbon")
	setupCmd.MarkFlagRequired("sex")
	setupCmd.MarkFlagRequired("dob")

	accountUpdateCmd.Flags().StringVar(&updateNickname, "nickname", "", "display nickname")
	accountUpdateCmd.Flags().StringVar(&updateLanguage, "language", "", "preferred language tag")
	accountUpdateCmd.Flags().StringVar(&updateTimezone, "timezone", "", "IANA timezone")

	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(accountCmd)
}
