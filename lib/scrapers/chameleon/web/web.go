// Package web talks to the legacy shelter system over plain HTTP.
// Most of its pages are server rendered, which makes this transport
// much faster than driving a browser; the tradeoff is that anything
// filled in by script after load is invisible here.
package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"fosterassist/lib/htmlutil"
	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapers/chameleon/web")

type SessionOptions struct {
	Pages chameleon.Pages
}

type Session struct {
	http  *resty.Client
	pages chameleon.Pages
	// the page the last navigation landed on, nil before the first one
	doc *goquery.Document
}

var _ chameleon.Session = (*Session)(nil)

func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	loginUrl, err := url.Parse(opts.Pages.Login)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(loginUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/chameleon/http")

	return &Session{
		http:  client,
		pages: opts.Pages,
	}, nil
}

// Login loads the login form, carries its hidden state fields over and
// posts the credentials, the way the hosted login page expects.
func (s *Session) Login(ctx context.Context, creds chameleon.Credentials) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	err := s.Navigate(ctx, s.pages.Login)
	if err != nil {
		span.SetStatus(codes.Error, "failed to load the login page")
		return fmt.Errorf("%w: %s", chameleon.LoginFailed, err)
	}

	form := url.Values{}
	s.doc.Find("input[type=hidden]").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name != "" {
			form.Set(name, sel.AttrOr("value", ""))
		}
	})
	form.Set("txt_username", creds.Username)
	form.Set("txt_password", creds.Password)
	form.Set("ctl00$ctl00$ContentPlaceHolderBase$ContentPlaceHolder1$btn_login", "Login")

	res, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(s.pages.Login)
	if err != nil {
		span.SetStatus(codes.Error, "login post failed")
		return fmt.Errorf("%w: %s", chameleon.LoginFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login response")
		return fmt.Errorf("%w: %s", chameleon.LoginFailed, err)
	}
	s.doc = doc

	if doc.Find("#txt_password").Length() > 0 {
		// still on the login form, credentials were rejected
		span.SetStatus(codes.Error, "credentials rejected")
		return chameleon.LoginFailed
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, link string) error {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return err
	}
	s.doc = doc
	return nil
}

// server rendered pages cannot raise javascript alerts
func (s *Session) DismissAlert(ctx context.Context) {}

// a fetched document is as loaded as it will ever get, so there is
// nothing to wait on, only presence to check
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	if s.doc == nil {
		return false
	}
	return s.doc.Find(selector).Length() > 0
}

func (s *Session) ReadAttribute(ctx context.Context, selector, attr string) string {
	if s.doc == nil {
		return ""
	}
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	switch attr {
	case "href":
		// parsed rather than read raw so malformed links come back empty
		return htmlutil.FirstAnchor(sel).Href
	case "innerText", "value":
		if attr == "value" {
			if v, ok := sel.Attr("value"); ok {
				return v
			}
		}
		return strings.TrimSpace(sel.Text())
	default:
		return sel.AttrOr(attr, "")
	}
}

func (s *Session) ReadText(ctx context.Context, selector string) string {
	if s.doc == nil {
		return ""
	}
	return strings.TrimSpace(s.doc.Find(selector).First().Text())
}

func (s *Session) SelectedOptionText(ctx context.Context, selector string) string {
	if s.doc == nil {
		return ""
	}
	options := s.doc.Find(selector + " option[selected]")
	if options.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(options.First().Text())
}

func (s *Session) SubmitSearch(ctx context.Context, personID int) error {
	ctx, span := tracer.Start(ctx, "SubmitSearch")
	defer span.End()

	link, err := url.Parse(s.pages.Search)
	if err != nil {
		span.SetStatus(codes.Error, "bad search url")
		return err
	}
	query := link.Query()
	query.Set("userid", fmt.Sprintf("%d", personID))
	link.RawQuery = query.Encode()

	return s.Navigate(ctx, link.String())
}

func (s *Session) ReadTable(ctx context.Context, selector string) ([][]string, bool) {
	if s.doc == nil {
		return nil, false
	}
	table := s.doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, false
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, htmlutil.CleanText(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, true
}
