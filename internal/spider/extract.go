package spider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Row sub-element selectors.
const (
	titleLinkSelector = "span.name a"
	authorSelector    = "span.author"
	pagesSelector     = "span.company"
)

// Extractor pulls papers out of the rendered issue listing. Field
// extraction is best-effort: a missing sub-element yields an empty field,
// and a row whose handle fails outright is skipped without affecting its
// siblings.
type Extractor struct {
	logger     *zap.Logger
	getDetails bool
}

// NewExtractor builds an Extractor. getDetails controls the abstract
// sentinel: nil means detail fetching was not requested, an empty string
// means it is pending.
func NewExtractor(getDetails bool, logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger, getDetails: getDetails}
}

// ExtractPapers reads every paper row currently shown for the issue and
// returns the records in document order. Failure to query the listing
// itself is an error; per-row failures are logged and skipped.
func (e *Extractor) ExtractPapers(ctx context.Context, page Page, year, issue int) ([]Paper, error) {
	rows, err := page.Locate(ctx, paperRowSelector)
	if err != nil {
		return nil, fmt.Errorf("locate paper rows: %w", err)
	}
	e.logger.Info("Extracting papers", zap.Int("issue", issue), zap.Int("rows", len(rows)))

	papers := make([]Paper, 0, len(rows))
	for i, row := range rows {
		paper, err := e.extractRow(ctx, row, year, issue)
		if err != nil {
			e.logger.Warn("Skipping paper row",
				zap.Int("row", i+1), zap.Int("issue", issue), zap.Error(err))
			continue
		}
		papers = append(papers, paper)
	}
	e.logger.Info("Extracted papers", zap.Int("issue", issue), zap.Int("count", len(papers)))
	return papers, nil
}

func (e *Extractor) extractRow(ctx context.Context, row Element, year, issue int) (Paper, error) {
	paper := Paper{Year: year, Issue: issue}
	if e.getDetails {
		pending := ""
		paper.Abstract = &pending
	}

	// The title link doubles as the row's anchor; if the row handle cannot
	// even be queried, the whole row is considered broken.
	links, err := row.Locate(ctx, titleLinkSelector)
	if err != nil {
		return Paper{}, fmt.Errorf("query title link: %w", err)
	}
	if len(links) > 0 {
		if text, err := links[0].Text(ctx); err == nil {
			paper.Title = strings.TrimSpace(text)
		}
		if href, err := links[0].Attribute(ctx, "href"); err == nil {
			paper.AbstractURL = href
		}
	}

	paper.Author = e.firstText(ctx, row, authorSelector)
	paper.Pages = e.firstText(ctx, row, pagesSelector)
	return paper, nil
}

// firstText returns the trimmed text of the first match under row, or ""
// when the element is missing or unreadable.
func (e *Extractor) firstText(ctx context.Context, row Element, selector string) string {
	els, err := row.Locate(ctx, selector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
