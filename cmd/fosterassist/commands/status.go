package commands

import (
	"fmt"
	"os"

	"fosterassist/lib/configutil"
	"fosterassist/lib/serviceutil"
	"fosterassist/services/enrich"
	"fosterassist/services/mentors"
	"fosterassist/services/reconcile"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	statusDogs       *bool
	statusAutoUpdate *bool
)

func init() {
	statusDogs = statusCmd.Flags().Bool("dogs", false, "Run against the dog program instead of the kitten program.")
	statusAutoUpdate = statusCmd.Flags().Bool("autoupdate", false, "Stamp finished mentees on the mentor worksheets.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--autoupdate]",
	Short: "Shows each mentor's current mentees and which of them have finished.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		directory, roster, err := openDirectory(ctx, config)
		if err != nil {
			serviceutil.Fatal("failed to load the mentor directory", err)
		}
		pages := roster.Pages()
		if err := pages.Validate(); err != nil {
			serviceutil.Fatal("bad roster configuration", err)
		}

		mode := enrich.Feline
		if *statusDogs {
			mode = enrich.Canine
		}

		sess, err := openSession(ctx, config, pages)
		if err != nil {
			serviceutil.Fatal("failed to open a shelter session", err)
		}
		defer closeSession(sess)

		persons := enrich.NewPersonEnricher(sess, pages, mode, enrich.PersonOptions{
			DenyIDs:               roster.DenyIDs(),
			DenyStrings:           roster.DenyStrings(),
			MentorIDs:             roster.Mentors,
			IncludeAgencyOutgoing: roster.IncludeAgencyOutgoing,
		}, directory)

		report, err := reconcile.StatusReport(ctx, directory, persons, *statusAutoUpdate)
		if err != nil {
			serviceutil.Fatal("failed to build the status report", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Mentor", "Active Mentees", "Completed", "Days Since Last Assigned"})
		for _, status := range report {
			lastAssigned := "unknown"
			if status.DaysSinceLastAssigned >= 0 {
				lastAssigned = fmt.Sprintf("%d", status.DaysSinceLastAssigned)
			}
			t.AppendRow(table.Row{
				status.Mentor,
				formatMentees(status.ActiveMentees),
				formatMentees(status.Completed),
				lastAssigned,
			})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
	},
}

func formatMentees(mentees []mentors.Mentee) string {
	if len(mentees) == 0 {
		return "-"
	}
	out := ""
	for i, m := range mentees {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s (%d)", m.Name, m.PersonID)
	}
	return out
}
