package spider

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Failure markers recorded in a paper's abstract when enrichment fails.
const (
	detailFailed        = "failed"
	detailFailedTimeout = "failed: timeout"
)

// Enricher fills abstract, keyword, DOI, fund, and author fields from each
// paper's detail page. Every per-paper failure is isolated: it is recorded
// as a marker in that paper's abstract and the loop moves on.
type Enricher struct {
	fetcher DetailFetcher
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewEnricher builds an Enricher. delay paces consecutive detail fetches;
// zero disables pacing.
func NewEnricher(fetcher DetailFetcher, delay time.Duration, logger *zap.Logger) *Enricher {
	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Enricher{fetcher: fetcher, limiter: limiter, logger: logger}
}

// Enrich mutates papers in place. Papers without an abstract link are
// skipped; a canceled context stops the loop.
func (e *Enricher) Enrich(ctx context.Context, papers []Paper) {
	e.logger.Info("Fetching paper details", zap.Int("count", len(papers)))

	for i := range papers {
		if ctx.Err() != nil {
			return
		}
		paper := &papers[i]
		progress := []zap.Field{zap.Int("paper", i + 1), zap.Int("total", len(papers))}

		if paper.AbstractURL == "" {
			e.logger.Info("Skipping detail fetch: no abstract link", progress...)
			continue
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}
		}

		e.logger.Info("Fetching detail",
			append(progress, zap.String("title", truncateRunes(paper.Title, 30)))...)

		detail, err := e.fetcher.FetchDetail(ctx, paper.AbstractURL)
		switch {
		case errors.Is(err, context.Canceled):
			// An operator interrupt is not this paper's failure; leave it
			// pending and let the orchestrator surface the cancellation.
			return
		case errors.Is(err, context.DeadlineExceeded):
			e.logger.Warn("Detail fetch timed out", progress...)
			setAbstract(paper, detailFailedTimeout)
		case err != nil:
			e.logger.Warn("Detail fetch failed", append(progress, zap.Error(err))...)
			setAbstract(paper, detailFailed+": "+err.Error())
		case detail == nil:
			e.logger.Warn("Detail page yielded nothing", progress...)
			setAbstract(paper, detailFailed)
		default:
			setAbstract(paper, detail.Abstract)
			paper.Keywords = detail.Keywords
			paper.DOI = detail.DOI
			paper.Fund = detail.Fund
			paper.AuthorsDetail = detail.Authors
		}
	}
}

func setAbstract(paper *Paper, value string) {
	paper.Abstract = &value
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
