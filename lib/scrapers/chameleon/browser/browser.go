// Package browser drives the legacy shelter system through a real
// Chrome instance. The animal detail page lazy-loads its content from
// script, so the browser transport is the default one.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/telemetry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapers/chameleon/browser")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_3) AppleWebKit/605.1.15 " +
	"(KHTML, like Gecko) Version/12.0.3 Safari/605.1.15"

// element lookups get a short deadline so that a missing field
// degrades to an empty value quickly instead of hanging the run
const readTimeout = time.Second * 2

type SessionOptions struct {
	Pages chameleon.Pages
	// keep the browser window visible while working
	ShowBrowser bool
	// overrides chrome discovery, mostly useful in CI
	Bin string
}

type Session struct {
	browser *rod.Browser
	page    *rod.Page
	pages   chameleon.Pages
}

var _ chameleon.Session = (*Session)(nil)

func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	launch := launcher.New().Headless(!opts.ShowBrowser)
	if opts.Bin != "" {
		launch = launch.Bin(opts.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent})
	if err != nil {
		return nil, fmt.Errorf("set user agent: %w", err)
	}

	return &Session{
		browser: browser,
		page:    page,
		pages:   opts.Pages,
	}, nil
}

func (s *Session) Close() error {
	return s.browser.Close()
}

// Login fills the interactive login form and clicks through the
// session-continue interstitial.
func (s *Session) Login(ctx context.Context, creds chameleon.Credentials) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	err := s.Navigate(ctx, s.pages.Login)
	if err != nil {
		span.SetStatus(codes.Error, "failed to load the login page")
		return fmt.Errorf("%w: %s", chameleon.LoginFailed, err)
	}

	for _, step := range []struct {
		selector string
		text     string
	}{
		{"#txt_username", creds.Username},
		{"#txt_password", creds.Password},
		{"#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_btn_login", ""},
		{"#Continue", ""},
	} {
		el, err := s.page.Context(ctx).Timeout(time.Second * 10).Element(step.selector)
		if err != nil {
			span.SetStatus(codes.Error, "login form element missing")
			return fmt.Errorf("%w: missing %s", chameleon.LoginFailed, step.selector)
		}
		if step.text != "" {
			err = el.Input(step.text)
		} else {
			err = el.Click(proto.InputMouseButtonLeft, 1)
		}
		if err != nil {
			span.SetStatus(codes.Error, "login form interaction failed")
			return fmt.Errorf("%w: %s", chameleon.LoginFailed, err)
		}
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()

	page := s.page.Context(ctx).Timeout(time.Minute)
	err := page.Navigate(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return err
	}
	return page.WaitLoad()
}

func (s *Session) DismissAlert(ctx context.Context) {
	err := proto.PageHandleJavaScriptDialog{Accept: false}.Call(s.page.Context(ctx))
	if err != nil {
		// no dialog open, nothing to dismiss
		slog.DebugContext(ctx, "no alert to dismiss", "err", err)
	}
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return false
	}
	return el.WaitVisible() == nil
}

func (s *Session) ReadAttribute(ctx context.Context, selector, attr string) string {
	el, err := s.page.Context(ctx).Timeout(readTimeout).Element(selector)
	if err != nil {
		return ""
	}
	// element properties cover live form values, innerText and href,
	// which plain attributes do not
	prop, err := el.Property(attr)
	if err != nil || prop.Nil() {
		return ""
	}
	return prop.String()
}

func (s *Session) ReadText(ctx context.Context, selector string) string {
	el, err := s.page.Context(ctx).Timeout(readTimeout).Element(selector)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (s *Session) SelectedOptionText(ctx context.Context, selector string) string {
	res, err := s.page.Context(ctx).Timeout(readTimeout).Eval(`(sel) => {
		const el = document.querySelector(sel)
		if (!el || el.selectedIndex < 0) {
			return ""
		}
		return el.options[el.selectedIndex].text
	}`, selector)
	if err != nil {
		return ""
	}
	return res.Value.String()
}

func (s *Session) SubmitSearch(ctx context.Context, personID int) error {
	ctx, span := tracer.Start(ctx, "SubmitSearch")
	defer span.End()

	err := s.Navigate(ctx, s.pages.Search)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load the search page")
		return err
	}
	el, err := s.page.Context(ctx).Timeout(time.Second * 10).Element("#userid")
	if err != nil {
		span.SetStatus(codes.Error, "search box missing")
		return err
	}
	err = el.Input(fmt.Sprintf("%d", personID))
	if err != nil {
		return err
	}
	err = el.Type(input.Enter)
	if err != nil {
		return err
	}
	return s.page.Context(ctx).WaitLoad()
}

func (s *Session) ReadTable(ctx context.Context, selector string) ([][]string, bool) {
	table, err := s.page.Context(ctx).Timeout(readTimeout).Element(selector)
	if err != nil {
		return nil, false
	}
	trs, err := table.Elements("tr")
	if err != nil {
		return nil, false
	}

	var rows [][]string
	for _, tr := range trs {
		tds, err := tr.Elements("td")
		if err != nil {
			continue
		}
		cells := make([]string, 0, len(tds))
		for _, td := range tds {
			text, err := td.Text()
			if err != nil {
				text = ""
			}
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}
	return rows, true
}
