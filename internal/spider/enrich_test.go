package spider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pendingPaper(url string) Paper {
	pending := ""
	return Paper{Year: 2025, Issue: 6, Title: "t-" + url, AbstractURL: url, Abstract: &pending}
}

func TestEnricher_Enrich(t *testing.T) {
	t.Run("copies detail fields onto the record", func(t *testing.T) {
		fetcher := &fakeDetailFetcher{results: map[string]*Detail{
			"/d/1": {Abstract: "abs", Keywords: "kw", DOI: "10.1/x", Fund: "fund", Authors: "a1;a2"},
		}}
		papers := []Paper{pendingPaper("/d/1")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(context.Background(), papers)

		require.Equal(t, "abs", *papers[0].Abstract)
		require.Equal(t, "kw", papers[0].Keywords)
		require.Equal(t, "10.1/x", papers[0].DOI)
		require.Equal(t, "fund", papers[0].Fund)
		require.Equal(t, "a1;a2", papers[0].AuthorsDetail)
	})

	t.Run("timeout on one article leaves the others untouched", func(t *testing.T) {
		fetcher := &fakeDetailFetcher{
			results: map[string]*Detail{
				"/d/1": {Abstract: "first"},
				"/d/3": {Abstract: "third"},
			},
			errs: map[string]error{
				"/d/2": fmt.Errorf("navigate /d/2: %w", context.DeadlineExceeded),
			},
		}
		papers := []Paper{pendingPaper("/d/1"), pendingPaper("/d/2"), pendingPaper("/d/3")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(context.Background(), papers)

		require.Equal(t, "first", *papers[0].Abstract)
		require.Equal(t, "failed: timeout", *papers[1].Abstract)
		require.Equal(t, "third", *papers[2].Abstract)
	})

	t.Run("other failures record the message", func(t *testing.T) {
		fetcher := &fakeDetailFetcher{errs: map[string]error{
			"/d/1": errors.New("boom"),
		}}
		papers := []Paper{pendingPaper("/d/1")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(context.Background(), papers)

		require.Equal(t, "failed: boom", *papers[0].Abstract)
	})

	t.Run("nil detail records a bare failure", func(t *testing.T) {
		fetcher := &fakeDetailFetcher{}
		papers := []Paper{pendingPaper("/d/1")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(context.Background(), papers)

		require.Equal(t, "failed", *papers[0].Abstract)
	})

	t.Run("cancellation stops the loop without failure markers", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fetcher := &fakeDetailFetcher{
			results: map[string]*Detail{"/d/1": {Abstract: "abs"}},
			onFetch: cancel,
		}
		papers := []Paper{pendingPaper("/d/1"), pendingPaper("/d/2")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(ctx, papers)

		require.Equal(t, []string{"/d/1"}, fetcher.calls, "no fetches after cancellation")
		require.Equal(t, "", *papers[1].Abstract, "interrupted papers stay pending, not failed")
	})

	t.Run("cancellation during a fetch leaves that paper pending", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fetcher := &fakeDetailFetcher{
			errs:    map[string]error{"/d/1": context.Canceled},
			onFetch: cancel,
		}
		papers := []Paper{pendingPaper("/d/1")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(ctx, papers)

		require.Equal(t, "", *papers[0].Abstract)
	})

	t.Run("papers without links are skipped", func(t *testing.T) {
		fetcher := &fakeDetailFetcher{results: map[string]*Detail{
			"/d/2": {Abstract: "abs"},
		}}
		papers := []Paper{pendingPaper(""), pendingPaper("/d/2")}

		NewEnricher(fetcher, 0, zap.NewNop()).Enrich(context.Background(), papers)

		require.Equal(t, "", *papers[0].Abstract)
		require.Equal(t, "abs", *papers[1].Abstract)
		require.Equal(t, []string{"/d/2"}, fetcher.calls)
	})
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "short", truncateRunes("short", 10))
	require.Equal(t, "abc...", truncateRunes("abcdef", 3))
	require.Equal(t, "图书馆...", truncateRunes("图书馆学研究", 3))
}
