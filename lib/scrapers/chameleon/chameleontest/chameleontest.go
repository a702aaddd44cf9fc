// Package chameleontest provides a scripted in-memory Session for
// exercising the scraping pipeline without a live shelter system.
package chameleontest

import (
	"context"
	"fmt"
	"time"

	"fosterassist/lib/scrapers/chameleon"
)

// Page scripts what one url serves.
type Page struct {
	// selector -> attribute -> value
	Attributes map[string]map[string]string
	// selector -> text content
	Texts map[string]string
	// selector -> selected dropdown option text
	Selected map[string]string
	// selector -> table cell grid
	Tables map[string][][]string
	// selectors that are visible without holding any content
	Visible []string
}

func (p Page) has(selector string) bool {
	for _, v := range p.Visible {
		if v == selector {
			return true
		}
	}
	if _, ok := p.Attributes[selector]; ok {
		return true
	}
	if _, ok := p.Texts[selector]; ok {
		return true
	}
	if _, ok := p.Selected[selector]; ok {
		return true
	}
	_, ok := p.Tables[selector]
	return ok
}

// Session replays scripted pages. The zero value serves empty pages for
// every url.
type Session struct {
	Pages map[string]Page
	// person id -> the search result page shown for it
	SearchResults map[int]Page
	NavigateErrs  map[string]error

	Navigations []string
	// how many times each person id was searched
	SearchCount map[int]int

	current Page
}

var _ chameleon.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.Navigations = append(s.Navigations, url)
	if err := s.NavigateErrs[url]; err != nil {
		return err
	}
	s.current = s.Pages[url]
	return nil
}

func (s *Session) DismissAlert(ctx context.Context) {}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	return s.current.has(selector)
}

func (s *Session) ReadAttribute(ctx context.Context, selector, attr string) string {
	return s.current.Attributes[selector][attr]
}

func (s *Session) ReadText(ctx context.Context, selector string) string {
	return s.current.Texts[selector]
}

func (s *Session) SelectedOptionText(ctx context.Context, selector string) string {
	return s.current.Selected[selector]
}

func (s *Session) SubmitSearch(ctx context.Context, personID int) error {
	if s.SearchCount == nil {
		s.SearchCount = map[int]int{}
	}
	s.SearchCount[personID]++

	page, ok := s.SearchResults[personID]
	if !ok {
		return fmt.Errorf("no search result for person %d", personID)
	}
	s.current = page
	return nil
}

func (s *Session) ReadTable(ctx context.Context, selector string) ([][]string, bool) {
	rows, ok := s.current.Tables[selector]
	return rows, ok
}
