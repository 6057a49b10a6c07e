package spider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromedpBrowser owns the headless Chrome allocator and browser context
// for one crawl invocation. Pages are tabs scoped to the shared browser.
type ChromedpBrowser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger
}

// NewChromedpBrowser starts Chrome with the configured mode and user agent.
func NewChromedpBrowser(cfg Config, logger *zap.Logger) (*ChromedpBrowser, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	return &ChromedpBrowser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       cfg.Timeout,
		logger:        logger,
	}, nil
}

// NewPage opens a fresh tab scoped to the shared browser.
func (b *ChromedpBrowser) NewPage(_ context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	return &chromedpPage{
		ctx:     tabCtx,
		cancel:  tabCancel,
		timeout: b.timeout,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (b *ChromedpBrowser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// chromedpPage adapts one chromedp tab to the Page capability. Every
// operation is bounded by the configured timeout and canceled when the
// caller's context is.
type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := p.run(ctx, tasks); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) Locate(ctx context.Context, selector string) ([]Element, error) {
	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	if strings.HasPrefix(selector, "//") {
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
	}
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("locate %q: %w", selector, err)
	}
	return p.wrapNodes(nodes), nil
}

func (p *chromedpPage) Close() {
	p.cancel()
}

// run executes actions against the tab, bounded by the page timeout and by
// the caller's context.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		// Surface the caller's cancellation rather than the tab's.
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *chromedpPage) wrapNodes(nodes []*cdp.Node) []Element {
	els := make([]Element, len(nodes))
	for i, node := range nodes {
		els[i] = &chromedpElement{page: p, node: node}
	}
	return els
}

// chromedpElement is a handle to one DOM node inside a tab.
type chromedpElement struct {
	page *chromedpPage
	node *cdp.Node
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	ids := []cdp.NodeID{e.node.NodeID}
	if err := e.page.run(ctx, chromedp.Text(ids, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, error) {
	var value string
	var ok bool
	ids := []cdp.NodeID{e.node.NodeID}
	if err := e.page.run(ctx, chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read attribute %q: %w", name, err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (e *chromedpElement) Click(ctx context.Context) error {
	if err := e.page.run(ctx, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("click node: %w", err)
	}
	return nil
}

func (e *chromedpElement) Locate(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.page.run(ctx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("locate %q in node: %w", selector, err)
	}
	return e.page.wrapNodes(nodes), nil
}

// forwardCancel propagates cancellation from parent into cancel until the
// returned stop function is called.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
