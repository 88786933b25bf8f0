package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioreport/bioreport-go/client"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Work with diagnostic reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List diagnostic reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		reports, err := api.ListReports(cmd.Context())
		if err != nil {
			return describeAuthError(err)
		}
		if len(reports) == 0 {
			fmt.Println("No reports.")
			return nil
		}
		for _, rep := range reports {
			title := "(untitled)"
			if rep.Title != nil && *rep.Title != "" {
				title = *rep.Title
			}
			fmt.Printf("%d\t%s\t%d observations\t%s\n", rep.ID, title, len(rep.Observations), rep.CreatedAt)
		}
		return nil
	},
}

var (
	reportTitle string
	reportNotes string
)

var reportsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new diagnostic report",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		var req client.CreateReportRequest
		if reportTitle != "" {
			req.Title = &reportTitle
		}
		if reportNotes != "" {
			req.Notes = &reportNotes
		}
		rep, err := api.CreateReport(cmd.Context(), req)
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Printf("Created report %d.\n", rep.ID)
		return nil
	},
}

func init() {
	reportsAddCmd.Flags().StringVar(&reportTitle, "title", "", "report title")
	reportsAddCmd.Flags().StringVar(&reportNotes, "notes", "", "free-form notes")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsAddCmd)
	rootCmd.AddCommand(reportsCmd)
}
