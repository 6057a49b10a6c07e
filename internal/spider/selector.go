package spider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Selectors the journal navigation page is known to render. The issue links
// carry ids following the yq{year}{issue:02d} convention, but not every
// layout variant exposes them verbatim, hence the tiered fallbacks below.
const (
	paperRowSelector  = "dd.row"
	yearEntrySelector = "dt"
	issueLinkSelector = "a[id^='yq']"
)

// Navigator locates and activates year and issue controls across the layout
// variants the navigation page renders. Total failure to find a control is a
// soft condition: the page may already show the wanted state, so the crawl
// proceeds either way.
type Navigator struct {
	logger           *zap.Logger
	yearSettleDelay  time.Duration
	issueSettleDelay time.Duration
	waitAttempts     int
	waitInterval     time.Duration
}

// NewNavigator builds a Navigator from the crawl configuration.
func NewNavigator(cfg Config, logger *zap.Logger) *Navigator {
	return &Navigator{
		logger:           logger,
		yearSettleDelay:  cfg.YearSettleDelay,
		issueSettleDelay: cfg.IssueSettleDelay,
		waitAttempts:     cfg.WaitAttempts,
		waitInterval:     cfg.WaitInterval,
	}
}

type selectorTier struct {
	name string
	run  func() (bool, error)
}

// ExpandYear clicks the year entry in the volume tree so its issue list
// becomes visible. Strategies are tried in order; the first activation wins.
// It reports whether any control was activated so the caller decides if
// absence is fatal at its level; this method never treats it as such.
func (n *Navigator) ExpandYear(ctx context.Context, page Page, year int) bool {
	label := strconv.Itoa(year)
	tiers := []selectorTier{
		{"text-match", func() (bool, error) {
			return n.clickFirst(ctx, page, fmt.Sprintf("//dt[contains(., '%s')]", label))
		}},
		{"entry-scan", func() (bool, error) {
			return n.clickFirstWithText(ctx, page, yearEntrySelector, label)
		}},
		{"container-id", func() (bool, error) {
			return n.clickFirst(ctx, page, fmt.Sprintf("dl[id*='%s'] dt", label))
		}},
	}
	if n.runTiers(ctx, tiers, n.yearSettleDelay, zap.String("year", label)) {
		return true
	}
	n.logger.Warn("Year entry not found; continuing with whatever issue list is open",
		zap.String("year", label))
	return false
}

// SelectIssue clicks the link for one issue of the given year. The link is
// matched by its yq-id, by its "No.N" label, or by a fuzzy combination of
// the two. Like ExpandYear, it reports activation instead of failing.
func (n *Navigator) SelectIssue(ctx context.Context, page Page, year, issue int) bool {
	issueID := fmt.Sprintf("yq%d%02d", year, issue)
	issueNo := fmt.Sprintf("No.%d", issue)
	tiers := []selectorTier{
		{"id-match", func() (bool, error) {
			return n.clickFirst(ctx, page, "#"+issueID)
		}},
		{"label-scan", func() (bool, error) {
			return n.clickFirstWithText(ctx, page, issueLinkSelector, issueNo)
		}},
		{"fuzzy", func() (bool, error) {
			return n.clickFuzzyIssue(ctx, page, year, issue)
		}},
	}
	fields := []zap.Field{zap.Int("year", year), zap.Int("issue", issue), zap.String("id", issueID)}
	if n.runTiers(ctx, tiers, n.issueSettleDelay, fields...) {
		return true
	}
	n.logger.Warn("Issue link not found; continuing with the issue currently shown", fields...)
	return false
}

// WaitForPapers polls the listing until at least one paper row is present,
// or the attempt budget runs out. It returns the last observed row count;
// zero rows is a legitimate empty-issue outcome, never an error.
func (n *Navigator) WaitForPapers(ctx context.Context, page Page) int {
	count := 0
	for attempt := 0; attempt < n.waitAttempts; attempt++ {
		rows, err := page.Locate(ctx, paperRowSelector)
		if err != nil {
			n.logger.Warn("Listing poll failed", zap.Int("attempt", attempt+1), zap.Error(err))
		} else {
			count = len(rows)
			if count > 0 {
				n.logger.Info("Paper rows present", zap.Int("count", count))
				return count
			}
		}
		if sleepCtx(ctx, n.waitInterval) != nil {
			return count
		}
	}
	n.logger.Warn("Gave up waiting for paper rows", zap.Int("count", count))
	return count
}

func (n *Navigator) runTiers(ctx context.Context, tiers []selectorTier, settle time.Duration, fields ...zap.Field) bool {
	for _, tier := range tiers {
		activated, err := tier.run()
		if err != nil {
			n.logger.Warn("Selector strategy failed",
				append([]zap.Field{zap.String("strategy", tier.name), zap.Error(err)}, fields...)...)
			continue
		}
		if activated {
			n.logger.Info("Activated control",
				append([]zap.Field{zap.String("strategy", tier.name)}, fields...)...)
			_ = sleepCtx(ctx, settle)
			return true
		}
	}
	return false
}

// clickFirst activates the first element matched by selector, if any.
func (n *Navigator) clickFirst(ctx context.Context, page Page, selector string) (bool, error) {
	els, err := page.Locate(ctx, selector)
	if err != nil {
		return false, err
	}
	if len(els) == 0 {
		return false, nil
	}
	if err := els[0].Click(ctx); err != nil {
		return false, fmt.Errorf("click %q: %w", selector, err)
	}
	return true, nil
}

// clickFirstWithText scans all selector matches and activates the first one
// whose visible text contains label. Elements that fail to yield text are
// skipped rather than aborting the scan.
func (n *Navigator) clickFirstWithText(ctx context.Context, page Page, selector, label string) (bool, error) {
	els, err := page.Locate(ctx, selector)
	if err != nil {
		return false, err
	}
	for _, el := range els {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if containsLower(text, label) {
			if err := el.Click(ctx); err != nil {
				return false, fmt.Errorf("click %q match: %w", selector, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// clickFuzzyIssue matches issue links whose id mentions the year and either
// the zero-padded issue number in the id or the No.N label in the text.
func (n *Navigator) clickFuzzyIssue(ctx context.Context, page Page, year, issue int) (bool, error) {
	els, err := page.Locate(ctx, issueLinkSelector)
	if err != nil {
		return false, err
	}
	yearStr := strconv.Itoa(year)
	padded := fmt.Sprintf("%02d", issue)
	label := fmt.Sprintf("No.%d", issue)
	for _, el := range els {
		id, err := el.Attribute(ctx, "id")
		if err != nil || !strings.Contains(id, yearStr) {
			continue
		}
		text, _ := el.Text(ctx)
		if strings.Contains(id, padded) || containsLower(text, label) {
			if err := el.Click(ctx); err != nil {
				return false, fmt.Errorf("click fuzzy issue match: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}

func containsLower(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
