package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fosterassist/lib/configutil"
	"fosterassist/lib/fosterstore"
	"fosterassist/lib/serviceutil"
	"fosterassist/lib/timezone"
	"fosterassist/services/enrich"
	"fosterassist/services/reconcile"
	"fosterassist/services/report"

	"github.com/spf13/cobra"
)

var errMailNotConfigured = fmt.Errorf("no mail host is configured")

var (
	reportDogs   *bool
	reportOutput *string
	reportEmail  *bool
	reportStatus *bool
)

func init() {
	reportDogs = reportCmd.Flags().Bool("dogs", false, "Run against the dog program instead of the kitten program.")
	reportOutput = reportCmd.Flags().String("output", "foster-report.csv", "Where to write the finished report.")
	reportEmail = reportCmd.Flags().Bool("email", false, "Email the finished report to the configured recipients.")
	reportStatus = reportCmd.Flags().Bool("status", false, "Append the mentor status block to the report.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <path/to/daily-report.csv>",
	Short: "Enriches the shelter's daily foster report and writes the working report.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		started := time.Now()

		config, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		animalIDs, err := report.ReadAnimalIDs(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read the daily report", err)
		}
		slog.Info("read daily report", "animals", len(animalIDs))

		directory, roster, err := openDirectory(ctx, config)
		if err != nil {
			serviceutil.Fatal("failed to load the mentor directory", err)
		}
		pages := roster.Pages()
		if err := pages.Validate(); err != nil {
			serviceutil.Fatal("bad roster configuration", err)
		}

		mode := enrich.Feline
		if *reportDogs {
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
		engine := reconcile.NewEngine(enrich.NewAnimalEnricher(sess, pages, mode), persons, mode)

		result, err := engine.Reconcile(ctx, animalIDs)
		if err != nil {
			serviceutil.Fatal("failed to reconcile the report", err)
		}

		pushSnapshots(ctx, config, result)

		formatter := report.NewFormatter(mode)

		var out bytes.Buffer
		err = formatter.Write(&out, result)
		if err != nil {
			serviceutil.Fatal("failed to render the report", err)
		}

		if *reportStatus {
			statuses, err := reconcile.StatusReport(ctx, directory, persons, false)
			if err != nil {
				serviceutil.Fatal("failed to build the status report", err)
			}
			err = formatter.AppendMentorStatus(&out, statuses)
			if err != nil {
				serviceutil.Fatal("failed to render the status block", err)
			}
		}
		err = os.WriteFile(*reportOutput, out.Bytes(), 0644)
		if err != nil {
			serviceutil.Fatal("failed to write the report", err)
		}
		slog.Info("wrote report", "path", *reportOutput)

		if *reportEmail {
			if !config.Mail.Enabled() {
				serviceutil.Fatal("mailing requested", errMailNotConfigured)
			}
			err = report.Mail(config.Mail, out.Bytes())
			if err != nil {
				serviceutil.Fatal("failed to mail the report", err)
			}
			slog.Info("mailed report", "recipients", len(config.Mail.To))
		}

		slog.Info("done", "seconds", time.Since(started).Seconds())
	},
}

// pushSnapshots records each foster parent's history counts so future
// runs can show trends. Skipped silently when no database is
// configured.
func pushSnapshots(ctx context.Context, config Config, result reconcile.Result) {
	if config.Database.File == "" && config.Database.Url == "" {
		return
	}

	db, err := config.Database.OpenDB(fosterstore.Schema)
	if err != nil {
		slog.Warn("failed to open the history database, skipping snapshots", "err", err)
		return
	}
	defer db.Close()

	req := fosterstore.PushRequest{Time: timezone.Now()}
	for _, group := range result.Groups {
		history := group.Person.History
		req.Persons = append(req.Persons, fosterstore.PersonSnapshot{
			PersonID:             group.PersonID,
			FosterCount:          history.FosterCount,
			EuthanizedCount:      history.EuthanizedCount,
			UnassistedDeathCount: history.UnassistedDeathCount,
			LossRate:             history.LossRate(),
		})
	}

	err = fosterstore.NewStore(db).Push(ctx, req)
	if err != nil {
		slog.Warn("failed to record history snapshots", "err", err)
		return
	}
	slog.Info("recorded history snapshots", "persons", len(req.Persons))
}
