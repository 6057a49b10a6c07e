package spider

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Spider sequences navigation, year expansion, issue selection, row
// extraction, and optional detail enrichment for one crawl invocation.
type Spider struct {
	cfg       Config
	browser   Browser
	navigator *Navigator
	extractor *Extractor
	enricher  *Enricher
	logger    *zap.Logger
}

// New builds a Spider. fetcher may be nil when details are not requested.
func New(cfg Config, browser Browser, fetcher DetailFetcher, logger *zap.Logger) *Spider {
	var enricher *Enricher
	if fetcher != nil {
		enricher = NewEnricher(fetcher, cfg.DetailDelay, logger)
	}
	return &Spider{
		cfg:       cfg,
		browser:   browser,
		navigator: NewNavigator(cfg, logger),
		extractor: NewExtractor(cfg.GetDetails, logger),
		enricher:  enricher,
		logger:    logger,
	}
}

// Run crawls exactly one issue. Unlike RunAll, any failure while selecting,
// waiting, or extracting propagates: with a single issue there is nothing
// to isolate it from.
func (s *Spider) Run(ctx context.Context, issue int) (*Session, error) {
	session, err := NewSession(s.cfg)
	if err != nil {
		return nil, err
	}

	page, err := s.openIndex(ctx, session)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	papers, err := s.crawlIssue(ctx, page, issue)
	if err != nil {
		return nil, fmt.Errorf("crawl issue %d: %w", issue, err)
	}
	session.ByIssue[issue] = papers
	session.Papers = append(session.Papers, papers...)
	return session, nil
}

// RunAll crawls every resolved issue in ascending order. Navigation and
// year expansion happen once; after that, a failure in one issue is
// recorded as an empty record list and the loop continues. One bad issue
// never aborts the batch.
func (s *Spider) RunAll(ctx context.Context) (*Session, error) {
	session, err := NewSession(s.cfg)
	if err != nil {
		return nil, err
	}
	if len(session.Issues) == 0 {
		s.logger.Warn("No issues to crawl")
		return session, nil
	}

	page, err := s.openIndex(ctx, session)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if len(session.Issues) > 1 {
		s.logger.Info("Crawling issue range",
			zap.Int("year", session.Year),
			zap.Int("first", session.Issues[0]),
			zap.Int("last", session.Issues[len(session.Issues)-1]),
			zap.Int("count", len(session.Issues)))
	}

	for i, issue := range session.Issues {
		s.logger.Info("Crawling issue",
			zap.Int("year", session.Year),
			zap.Int("issue", issue),
			zap.Int("position", i+1),
			zap.Int("total", len(session.Issues)))

		papers, err := s.crawlIssue(ctx, page, issue)
		if err != nil {
			// An operator interrupt aborts the whole invocation; anything
			// else stays contained in this issue.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("Issue crawl failed; recording empty result",
				zap.Int("issue", issue), zap.Error(err))
			session.ByIssue[issue] = []Paper{}
			continue
		}
		session.ByIssue[issue] = papers
		session.Papers = append(session.Papers, papers...)
	}
	return session, nil
}

// openIndex acquires the primary page, loads the journal index, and expands
// the target year. A failed page load is fatal: no issue can be reached.
func (s *Spider) openIndex(ctx context.Context, session *Session) (Page, error) {
	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	s.logger.Info("Navigating to journal index",
		zap.String("session", session.ID), zap.String("url", session.URL))
	if err := page.Navigate(ctx, session.URL); err != nil {
		page.Close()
		return nil, fmt.Errorf("navigate %s: %w", session.URL, err)
	}

	if !s.navigator.ExpandYear(ctx, page, session.Year) {
		// Some layouts render the target year pre-expanded, so a missed
		// entry is survivable; issue selection gets its own chance below.
		s.logger.Info("Continuing with the index as rendered", zap.Int("year", session.Year))
	}
	return page, nil
}

func (s *Spider) crawlIssue(ctx context.Context, page Page, issue int) ([]Paper, error) {
	// A missed issue link is not fatal on its own: the rows currently shown
	// may already belong to this issue. The wait below is the real gate.
	s.navigator.SelectIssue(ctx, page, s.cfg.Year, issue)

	if count := s.navigator.WaitForPapers(ctx, page); count == 0 {
		s.logger.Warn("No paper rows appeared", zap.Int("issue", issue))
	}

	papers, err := s.extractor.ExtractPapers(ctx, page, s.cfg.Year, issue)
	if err != nil {
		return nil, err
	}

	if s.cfg.GetDetails && s.enricher != nil && len(papers) > 0 {
		s.enricher.Enrich(ctx, papers)
	}
	// Enrich stops quietly on cancellation; an interrupted invocation must
	// never pass off partial results as a successful crawl.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return papers, nil
}
