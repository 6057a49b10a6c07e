package spider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// StaticDetailFetcher fetches detail pages over plain HTTP with Colly. The
// detail pages render their metadata server-side, so skipping the browser
// is considerably cheaper than a tab per article.
type StaticDetailFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewStaticDetailFetcher builds the Colly-backed fetcher.
func NewStaticDetailFetcher(cfg Config, logger *zap.Logger) *StaticDetailFetcher {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	c.SetRequestTimeout(cfg.Timeout)
	return &StaticDetailFetcher{base: c, logger: logger}
}

// FetchDetail GETs the article's detail page and parses its fields.
func (f *StaticDetailFetcher) FetchDetail(ctx context.Context, url string) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.logger.Debug("Fetching detail page", zap.String("url", url))

	var (
		detail   *Detail
		fetchErr error
	)
	collector := f.base.Clone()
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		detail = parseDetailDocument(e.DOM)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	collector.Wait()

	// Colly has no context plumbing of its own, so cancellation raised
	// while the request was in flight is surfaced here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		var netErr net.Error
		if errors.As(fetchErr, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, fetchErr)
		}
		return nil, fmt.Errorf("fetch detail %s: %w", url, fetchErr)
	}
	if detail == nil {
		return nil, nil
	}
	return detail, nil
}

// parseDetailDocument extracts the detail fields from a parsed document.
// Fields are independent; anything missing stays empty.
func parseDetailDocument(doc *goquery.Selection) *Detail {
	return &Detail{
		Abstract: strings.TrimSpace(doc.Find(abstractSelector).First().Text()),
		Keywords: joinSelectionText(doc.Find(keywordSelector)),
		DOI:      findDocumentDOI(doc),
		Fund:     joinSelectionText(doc.Find(fundSelector)),
		Authors:  joinSelectionText(doc.Find(authorsSelector)),
	}
}

func joinSelectionText(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.Trim(strings.TrimSpace(s.Text()), detailFieldSeparator)
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, detailFieldSeparator)
}

func findDocumentDOI(doc *goquery.Selection) string {
	value := ""
	doc.Find(detailRowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), "DOI") {
			return true
		}
		if p := row.Find("p").First(); p.Length() > 0 {
			value = strings.TrimSpace(p.Text())
		} else {
			value = extractDOIValue(row.Text())
		}
		return false
	})
	return value
}
