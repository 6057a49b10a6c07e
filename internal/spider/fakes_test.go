package spider

import (
	"context"
	"time"
)

// fakeElement implements Element for tests.
type fakeElement struct {
	text      string
	attrs     map[string]string
	children  map[string][]Element
	textErr   error
	clickErr  error
	locateErr error
	clicks    int
	onClick   func()
}

func (e *fakeElement) Text(context.Context) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(_ context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Click(context.Context) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Locate(_ context.Context, selector string) ([]Element, error) {
	if e.locateErr != nil {
		return nil, e.locateErr
	}
	return e.children[selector], nil
}

// fakePage implements Page for tests. Lookups go through locateFn when set,
// otherwise through the static selectors map.
type fakePage struct {
	selectors map[string][]Element
	locateFn  func(selector string) ([]Element, error)
	navErr    error
	navigated []string
	closed    bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *fakePage) Locate(_ context.Context, selector string) ([]Element, error) {
	if p.locateFn != nil {
		return p.locateFn(selector)
	}
	return p.selectors[selector], nil
}

func (p *fakePage) Close() { p.closed = true }

// fakeBrowser hands out a single fake page.
type fakeBrowser struct {
	page   *fakePage
	newErr error
	closed bool
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	if b.newErr != nil {
		return nil, b.newErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() { b.closed = true }

// fakeDetailFetcher implements DetailFetcher with canned responses per URL.
// onFetch, when set, runs on every call before the response is resolved.
type fakeDetailFetcher struct {
	results map[string]*Detail
	errs    map[string]error
	calls   []string
	onFetch func()
}

func (f *fakeDetailFetcher) FetchDetail(_ context.Context, url string) (*Detail, error) {
	f.calls = append(f.calls, url)
	if f.onFetch != nil {
		f.onFetch()
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.results[url], nil
}

// makeRow builds a listing row with the standard sub-elements.
func makeRow(title, href, author, pages string) *fakeElement {
	return &fakeElement{children: map[string][]Element{
		titleLinkSelector: {&fakeElement{text: title, attrs: map[string]string{"href": href}}},
		authorSelector:    {&fakeElement{text: author}},
		pagesSelector:     {&fakeElement{text: pages}},
	}}
}

// testConfig returns a valid config with fast polling for tests.
func testConfig() Config {
	return Config{
		URL:              "https://journals.example.com/knavi/ZGTS/detail",
		Year:             2025,
		Issues:           []int{6},
		Headless:         true,
		UserAgent:        "test-agent",
		Timeout:          30 * time.Second,
		OutputPath:       "results.json",
		WaitAttempts:     2,
		WaitInterval:     time.Millisecond,
		DetailEngine:     DetailEngineBrowser,
		YearSettleDelay:  0,
		IssueSettleDelay: 0,
	}
}
