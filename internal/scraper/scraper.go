// Package scraper extracts a catalog snapshot from the published handbook page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/model"
)

// Page selectors. They track the handbook's CMS block ids and break when
// the page is rebuilt.
const (
	StudyStructureSelector = "#study-structure"
	CoreUnitsSelector      = "#contentblock_YP36DOOFP td:nth-child(2)"
	MajorBlocksSelector    = "#contentblock_copy_TD1TDRB0J_accordion_body section.unit-table"
	MajorTitleSelector     = "h4"
	MajorUnitsSelector     = "td:nth-child(2)"
	ElectiveUnitsSelector  = "#text_1588112631_RIUDS7CWR li"
)

// ErrStructureNotFound means the page has no study structure section,
// usually because the handbook layout changed.
var ErrStructureNotFound = errors.New("study structure section not found")

// Parse reads a handbook page and returns the snapshot it describes.
func Parse(r io.Reader) (*model.CatalogSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse handbook html: %w", err)
	}

	root := doc.Find(StudyStructureSelector).First()
	if root.Length() == 0 {
		return nil, ErrStructureNotFound
	}

	snap := &model.CatalogSnapshot{
		Cores:     cellTexts(root.Find(CoreUnitsSelector), false),
		Electives: cellTexts(root.Find(ElectiveUnitsSelector), true),
	}

	root.Find(MajorBlocksSelector).Each(func(_ int, block *goquery.Selection) {
		title := strings.TrimSpace(block.Find(MajorTitleSelector).First().Text())
		if title == "" {
			return
		}
		snap.Majors = append(snap.Majors, model.MajorUnits{
			Title: title,
			Units: cellTexts(block.Find(MajorUnitsSelector), false),
		})
	})

	return snap, nil
}

// cellTexts returns the trimmed, non-blank texts of sel. With codeOnly only
// the first whitespace-separated token is kept, which for elective list
// items is the unit code.
func cellTexts(sel *goquery.Selection, codeOnly bool) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if codeOnly {
			if fields := strings.Fields(text); len(fields) > 0 {
				text = fields[0]
			}
		}
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

// Client downloads and parses the handbook.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a Client for url with the given request timeout.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "scraper").Logger(),
	}
}

// Fetch downloads the handbook page and parses it.
func (c *Client) Fetch(ctx context.Context) (*model.CatalogSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build handbook request: %w", err)
	}
	req.Header.Set("User-Agent", "handbook-sync/1.0")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch handbook: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("fetch handbook: unexpected status %s", res.Status)
	}

	snap, err := Parse(res.Body)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("url", c.url).
		Int("majors", len(snap.Majors)).
		Int("units", snap.UnitCount()).
		Dur("took", time.Since(start)).
		Msg("Handbook fetched")

	return snap, nil
}
