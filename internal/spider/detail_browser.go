package spider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Detail page selectors. The detail layout is more stable than the issue
// listing, so a single selector per field suffices.
const (
	abstractSelector  = "#ChDivSummary"
	keywordSelector   = ".keywords a"
	fundSelector      = ".funds a"
	authorsSelector   = "#authorpart span a"
	detailRowSelector = "li.top-space"
)

const detailFieldSeparator = ";"

// BrowserDetailFetcher scrapes detail pages with a short-lived browser tab
// per article, so JavaScript-decorated pages still render. The tab is
// closed after each fetch regardless of outcome.
type BrowserDetailFetcher struct {
	browser Browser
	logger  *zap.Logger
}

// NewBrowserDetailFetcher builds a fetcher borrowing tabs from browser.
func NewBrowserDetailFetcher(browser Browser, logger *zap.Logger) *BrowserDetailFetcher {
	return &BrowserDetailFetcher{browser: browser, logger: logger}
}

// FetchDetail opens the article's detail page and scrapes its fields. Each
// field is read independently; a missing field stays empty.
func (f *BrowserDetailFetcher) FetchDetail(ctx context.Context, url string) (*Detail, error) {
	f.logger.Debug("Fetching detail page", zap.String("url", url))
	page, err := f.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open detail tab: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}

	return &Detail{
		Abstract: f.firstText(ctx, page, abstractSelector),
		Keywords: f.joinedText(ctx, page, keywordSelector),
		DOI:      f.findDOI(ctx, page),
		Fund:     f.joinedText(ctx, page, fundSelector),
		Authors:  f.joinedText(ctx, page, authorsSelector),
	}, nil
}

func (f *BrowserDetailFetcher) firstText(ctx context.Context, page Page, selector string) string {
	els, err := page.Locate(ctx, selector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (f *BrowserDetailFetcher) joinedText(ctx context.Context, page Page, selector string) string {
	els, err := page.Locate(ctx, selector)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		text = strings.Trim(strings.TrimSpace(text), detailFieldSeparator)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, detailFieldSeparator)
}

// findDOI scans the labeled metadata rows for the one announcing a DOI and
// returns its value text.
func (f *BrowserDetailFetcher) findDOI(ctx context.Context, page Page) string {
	rows, err := page.Locate(ctx, detailRowSelector)
	if err != nil {
		return ""
	}
	for _, row := range rows {
		text, err := row.Text(ctx)
		if err != nil || !strings.Contains(text, "DOI") {
			continue
		}
		values, err := row.Locate(ctx, "p")
		if err != nil || len(values) == 0 {
			return extractDOIValue(text)
		}
		value, err := values[0].Text(ctx)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(value)
	}
	return ""
}

// extractDOIValue strips the row label when the value is not in its own
// element, e.g. "DOI： 10.1234/abc" -> "10.1234/abc".
func extractDOIValue(rowText string) string {
	trimmed := strings.TrimSpace(rowText)
	for _, label := range []string{"DOI：", "DOI:"} {
		if idx := strings.Index(trimmed, label); idx >= 0 {
			return strings.TrimSpace(trimmed[idx+len(label):])
		}
	}
	return ""
}
