package mentors

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fosterassist/lib/telemetry"
	"fosterassist/lib/timezone"

	"github.com/go-resty/resty/v2"
)

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

// tabs of the workbook that are not mentor worksheets
var reservedSheets = map[string]bool{
	"Config":          true,
	"Instructions":    true,
	"Resources":       true,
	"Retired Mentors": true,
	"Template":        true,
}

// every worksheet read pulls this range, wide and tall enough for any
// real mentor sheet
const worksheetRange = "A1:H100"

// SheetsConfig locates the shared mentor workbook.
type SheetsConfig struct {
	SpreadsheetID string `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	AccessToken   string `json:"access_token" yaml:"access_token"`
	// tab holding the roster yaml blob, "Config" when empty
	ConfigSheet string `json:"config_sheet" yaml:"config_sheet"`
}

func (c SheetsConfig) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("sheets config is missing the spreadsheet id")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("sheets config is missing the access token")
	}
	return nil
}

// SheetsDirectory reads the mentor workbook through the Google Sheets
// values API. The whole workbook is pulled once up front; lookups after
// Load never hit the network, except SetCompletedMentees which writes
// back.
type SheetsDirectory struct {
	client        *resty.Client
	spreadsheetID string
	configSheet   string
	sheets        []worksheet
}

type worksheet struct {
	title string
	rows  [][]string
}

func NewSheetsDirectory(config SheetsConfig) *SheetsDirectory {
	return newSheetsDirectory(sheetsAPIBase+"/"+config.SpreadsheetID, config)
}

func newSheetsDirectory(baseURL string, config SheetsConfig) *SheetsDirectory {
	configSheet := config.ConfigSheet
	if configSheet == "" {
		configSheet = "Config"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(config.AccessToken).
		SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "services/mentors/gsheets")

	return &SheetsDirectory{
		client:        client,
		spreadsheetID: config.SpreadsheetID,
		configSheet:   configSheet,
	}
}

type sheetListResponse struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valuesResponse struct {
	Values [][]string `json:"values"`
}

// Load pulls the workbook and returns the roster parsed from the config
// sheet. Must be called before any lookup.
func (d *SheetsDirectory) Load(ctx context.Context) (Roster, error) {
	var list sheetListResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("fields", "sheets.properties.title").
		SetResult(&list).
		Get("")
	if err != nil {
		return Roster{}, fmt.Errorf("list workbook sheets: %w", err)
	}
	if resp.IsError() {
		return Roster{}, fmt.Errorf("list workbook sheets: %s", resp.Status())
	}

	var roster Roster
	foundConfig := false
	for _, sheet := range list.Sheets {
		title := sheet.Properties.Title

		rows, err := d.readSheet(ctx, title)
		if err != nil {
			return Roster{}, err
		}

		if title == d.configSheet {
			roster, err = parseConfigSheet(rows)
			if err != nil {
				return Roster{}, err
			}
			foundConfig = true
			continue
		}
		if reservedSheets[title] {
			continue
		}
		d.sheets = append(d.sheets, worksheet{title: title, rows: rows})
	}

	if !foundConfig {
		return Roster{}, fmt.Errorf("workbook has no %q sheet", d.configSheet)
	}
	slog.InfoContext(ctx, "loaded mentor workbook", "mentor_sheets", len(d.sheets))
	return roster, nil
}

func (d *SheetsDirectory) readSheet(ctx context.Context, title string) ([][]string, error) {
	var values valuesResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetResult(&values).
		Get(fmt.Sprintf("/values/%s!%s", title, worksheetRange))
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", title, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("read sheet %q: %s", title, resp.Status())
	}
	return values.Values, nil
}

// parseConfigSheet finds the yaml blob on the config sheet. The blob
// lives in a single cell, conventionally A1, but staff sometimes insert
// header rows above it.
func parseConfigSheet(rows [][]string) (Roster, error) {
	for _, cells := range rows {
		for _, cell := range cells {
			roster, err := ParseRoster([]byte(cell))
			if err == nil && roster.LoginURL != "" {
				return roster, nil
			}
		}
	}
	return Roster{}, fmt.Errorf("config sheet has no parseable roster blob")
}

func (d *SheetsDirectory) FindMatchingMentors(ctx context.Context, candidates []string) []string {
	var matched []string
	for _, sheet := range d.sheets {
		if cellsMatch(sheet.rows, candidates) {
			matched = append(matched, sheet.title)
		}
	}
	return matched
}

func (d *SheetsDirectory) CurrentMentees(ctx context.Context) ([]MentorMentees, error) {
	var result []MentorMentees
	for _, sheet := range d.sheets {
		result = append(result, parseWorksheet(sheet.title, sheet.rows))
	}
	return result, nil
}

// column E holds the mentee's free-form status notes
const statusColumnIndex = 4

// SetCompletedMentees stamps an auto-update note next to each finished
// mentee's row so the mentor sees the litter has moved on. Whatever the
// mentor already wrote in the status cell is kept below the note, and
// rows stamped on an earlier run are left untouched.
func (d *SheetsDirectory) SetCompletedMentees(ctx context.Context, mentor string, personIDs []int) error {
	sheet, ok := d.findSheet(mentor)
	if !ok {
		return fmt.Errorf("no worksheet for mentor %q", mentor)
	}

	note := fmt.Sprintf("AutoUpdate: No animals %s", timezone.Now().Format("2006.01.02"))
	for _, personID := range personIDs {
		row := findPersonRow(sheet.rows, personID)
		if row == 0 {
			slog.WarnContext(ctx, "mentee not found on worksheet", "mentor", mentor, "person", personID)
			continue
		}
		updated, ok := stampAutoUpdate(cellAt(sheet.rows, row, statusColumnIndex), note)
		if !ok {
			continue
		}
		err := d.writeCell(ctx, sheet.title, fmt.Sprintf("E%d", row), updated)
		if err != nil {
			return fmt.Errorf("mark mentee %d complete on %q: %w", personID, mentor, err)
		}
	}
	return nil
}

// stampAutoUpdate prepends the note to the status cell's current value.
// Cells already carrying a stamp from a previous run report false.
func stampAutoUpdate(current, note string) (string, bool) {
	if strings.Contains(strings.ToLower(current), "autoupdate: no animals") {
		return "", false
	}
	if current == "" {
		return note, true
	}
	return note + "\r\n" + current, true
}

// cellAt reads the cell at a 1-based row and 0-based column, tolerating
// the ragged grids the values API returns.
func cellAt(rows [][]string, row, column int) string {
	if row-1 >= len(rows) || column >= len(rows[row-1]) {
		return ""
	}
	return rows[row-1][column]
}

func (d *SheetsDirectory) findSheet(title string) (worksheet, bool) {
	for _, sheet := range d.sheets {
		if sheet.title == title {
			return sheet, true
		}
	}
	return worksheet{}, false
}

// findPersonRow returns the 1-based sheet row holding the person id,
// 0 when absent.
func findPersonRow(rows [][]string, personID int) int {
	want := strconv.Itoa(personID)
	for i, cells := range rows {
		for _, cell := range cells {
			if cell == want {
				return i + 1
			}
		}
	}
	return 0
}

func (d *SheetsDirectory) writeCell(ctx context.Context, title, cell, value string) error {
	body := map[string]any{"values": [][]string{{value}}}
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(body).
		Put(fmt.Sprintf("/values/%s!%s", title, cell))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s", resp.Status())
	}
	return nil
}
