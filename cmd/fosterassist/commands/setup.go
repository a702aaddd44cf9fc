package commands

import (
	"context"
	"fmt"
	"os"

	"fosterassist/lib/dbutil"
	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/scrapers/chameleon/browser"
	"fosterassist/lib/scrapers/chameleon/web"
	"fosterassist/services/mentors"
	"fosterassist/services/report"
)

type Config struct {
	Shelter chameleon.Credentials `json:"shelter"`
	Sheets  mentors.SheetsConfig  `json:"sheets"`
	// offline alternative to the shared workbook: a directory of
	// exported worksheet csv files plus a local roster yaml
	WorkbookDir string `json:"workbook_dir"`
	RosterFile  string `json:"roster_file"`

	Database dbutil.Config     `json:"database"`
	Mail     report.MailConfig `json:"mail"`

	// "browser" (default) or "web"
	Transport   string `json:"transport"`
	ShowBrowser bool   `json:"show_browser"`
	ChromeBin   string `json:"chrome_bin"`
}

// session is what both transports provide beyond the scraping calls.
type session interface {
	chameleon.Session
	Login(ctx context.Context, creds chameleon.Credentials) error
}

// openDirectory builds the mentor directory and loads the roster from
// it. Sheets is the normal path; a local workbook export needs the
// roster from a file since it has no config sheet.
func openDirectory(ctx context.Context, config Config) (mentors.Directory, mentors.Roster, error) {
	if config.WorkbookDir != "" {
		if config.RosterFile == "" {
			return nil, mentors.Roster{}, fmt.Errorf("workbook_dir requires roster_file")
		}
		blob, err := os.ReadFile(config.RosterFile)
		if err != nil {
			return nil, mentors.Roster{}, fmt.Errorf("read roster file: %w", err)
		}
		roster, err := mentors.ParseRoster(blob)
		if err != nil {
			return nil, mentors.Roster{}, err
		}
		directory, err := mentors.NewWorkbookDirectory(config.WorkbookDir)
		if err != nil {
			return nil, mentors.Roster{}, err
		}
		return directory, roster, nil
	}

	err := config.Sheets.Validate()
	if err != nil {
		return nil, mentors.Roster{}, err
	}
	directory := mentors.NewSheetsDirectory(config.Sheets)
	roster, err := directory.Load(ctx)
	if err != nil {
		return nil, mentors.Roster{}, err
	}
	return directory, roster, nil
}

// openSession builds the configured transport and logs it in.
func openSession(ctx context.Context, config Config, pages chameleon.Pages) (session, error) {
	var sess session
	var err error

	switch config.Transport {
	case "", "browser":
		sess, err = browser.NewSession(ctx, browser.SessionOptions{
			Pages:       pages,
			ShowBrowser: config.ShowBrowser,
			Bin:         config.ChromeBin,
		})
	case "web":
		sess, err = web.NewSession(ctx, web.SessionOptions{Pages: pages})
	default:
		return nil, fmt.Errorf("unknown transport %q", config.Transport)
	}
	if err != nil {
		return nil, err
	}

	err = sess.Login(ctx, config.Shelter)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func closeSession(sess session) {
	if closer, ok := sess.(interface{ Close() error }); ok {
		closer.Close()
	}
}
