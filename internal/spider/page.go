package spider

import "context"

// Element is a handle to one located DOM node.
type Element interface {
	// Text returns the node's visible text.
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute, or "" when absent.
	Attribute(ctx context.Context, name string) (string, error)
	// Click activates the node.
	Click(ctx context.Context) error
	// Locate runs a scoped query under this node.
	Locate(ctx context.Context, selector string) ([]Element, error)
}

// Page is the narrow browser capability the spider drives. Selectors are
// CSS; a selector prefixed with "//" is evaluated as an XPath expression.
// Locating zero matches is not an error.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Locate(ctx context.Context, selector string) ([]Element, error)
	Close()
}

// Browser hands out page scopes. The primary page lives for the whole
// invocation; detail fetches borrow short-lived secondary pages.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close()
}

// DetailFetcher loads an article's detail page and scrapes its fields. A
// nil Detail with a nil error means the page yielded nothing parseable.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) (*Detail, error)
}
