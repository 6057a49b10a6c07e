package spider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNavigator() *Navigator {
	return NewNavigator(testConfig(), zap.NewNop())
}

func TestNavigator_ExpandYear(t *testing.T) {
	ctx := context.Background()

	t.Run("text match layout", func(t *testing.T) {
		dt := &fakeElement{text: "2025"}
		page := &fakePage{selectors: map[string][]Element{
			"//dt[contains(., '2025')]": {dt},
		}}

		require.True(t, newTestNavigator().ExpandYear(ctx, page, 2025))
		require.Equal(t, 1, dt.clicks)
	})

	t.Run("entry scan layout", func(t *testing.T) {
		old := &fakeElement{text: "2024年"}
		want := &fakeElement{text: "2025年"}
		page := &fakePage{selectors: map[string][]Element{
			yearEntrySelector: {old, want},
		}}

		require.True(t, newTestNavigator().ExpandYear(ctx, page, 2025))
		require.Equal(t, 0, old.clicks)
		require.Equal(t, 1, want.clicks)
	})

	t.Run("container id layout", func(t *testing.T) {
		dt := &fakeElement{}
		page := &fakePage{selectors: map[string][]Element{
			"dl[id*='2025'] dt": {dt},
		}}

		require.True(t, newTestNavigator().ExpandYear(ctx, page, 2025))
		require.Equal(t, 1, dt.clicks)
	})

	t.Run("unreadable entries are skipped", func(t *testing.T) {
		broken := &fakeElement{textErr: errors.New("stale handle")}
		want := &fakeElement{text: "2025"}
		page := &fakePage{selectors: map[string][]Element{
			yearEntrySelector: {broken, want},
		}}

		require.True(t, newTestNavigator().ExpandYear(ctx, page, 2025))
		require.Equal(t, 1, want.clicks)
	})

	t.Run("no match is a soft condition", func(t *testing.T) {
		page := &fakePage{}

		require.False(t, newTestNavigator().ExpandYear(ctx, page, 2025))
	})
}

func TestNavigator_SelectIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("id match layout", func(t *testing.T) {
		link := &fakeElement{}
		page := &fakePage{selectors: map[string][]Element{
			"#yq202506": {link},
		}}

		require.True(t, newTestNavigator().SelectIssue(ctx, page, 2025, 6))
		require.Equal(t, 1, link.clicks)
	})

	t.Run("label scan layout", func(t *testing.T) {
		other := &fakeElement{text: "No.5 2025"}
		want := &fakeElement{text: "No.6 2025"}
		page := &fakePage{selectors: map[string][]Element{
			issueLinkSelector: {other, want},
		}}

		require.True(t, newTestNavigator().SelectIssue(ctx, page, 2025, 6))
		require.Equal(t, 0, other.clicks)
		require.Equal(t, 1, want.clicks)
	})

	t.Run("fuzzy id layout", func(t *testing.T) {
		wrongYear := &fakeElement{text: "第6期", attrs: map[string]string{"id": "yq202406"}}
		want := &fakeElement{text: "第6期", attrs: map[string]string{"id": "yq202506"}}
		page := &fakePage{selectors: map[string][]Element{
			issueLinkSelector: {wrongYear, want},
		}}

		require.True(t, newTestNavigator().SelectIssue(ctx, page, 2025, 6))
		require.Equal(t, 0, wrongYear.clicks)
		require.Equal(t, 1, want.clicks)
	})

	t.Run("no match is a soft condition", func(t *testing.T) {
		page := &fakePage{}

		require.False(t, newTestNavigator().SelectIssue(ctx, page, 2025, 6))
	})
}

func TestNavigator_WaitForPapers(t *testing.T) {
	ctx := context.Background()

	t.Run("rows already present", func(t *testing.T) {
		page := &fakePage{selectors: map[string][]Element{
			paperRowSelector: {makeRow("t", "u", "a", "p")},
		}}

		count := newTestNavigator().WaitForPapers(ctx, page)

		require.Equal(t, 1, count)
	})

	t.Run("rows appear on a later poll", func(t *testing.T) {
		polls := 0
		rows := []Element{makeRow("t", "u", "a", "p"), makeRow("t2", "u2", "a2", "p2")}
		page := &fakePage{locateFn: func(selector string) ([]Element, error) {
			polls++
			if polls < 2 {
				return nil, nil
			}
			return rows, nil
		}}

		cfg := testConfig()
		cfg.WaitAttempts = 3
		count := NewNavigator(cfg, zap.NewNop()).WaitForPapers(ctx, page)

		require.Equal(t, 2, count)
	})

	t.Run("empty issue returns zero without error", func(t *testing.T) {
		page := &fakePage{}

		count := newTestNavigator().WaitForPapers(ctx, page)

		require.Equal(t, 0, count)
	})

	t.Run("poll failures do not raise", func(t *testing.T) {
		page := &fakePage{locateFn: func(string) ([]Element, error) {
			return nil, errors.New("listing query crashed")
		}}

		count := newTestNavigator().WaitForPapers(ctx, page)

		require.Equal(t, 0, count)
	})
}
