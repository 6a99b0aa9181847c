package scraper

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"tribefeed/pkg/log"
)

// allocatorFunc starts (or connects to) a browser and returns its allocator context.
type allocatorFunc func(parent context.Context) (context.Context, context.CancelFunc)

// BrowserPool owns one Chrome process and hands out one tab at a time.
// A crashed browser is restarted on the next WithTab call.
type BrowserPool struct {
	newAllocator allocatorFunc
	logger       *log.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	tabs *tabLimiter
}

// NewBrowserPool launches a local headless Chrome. An empty chromePath
// lets chromedp find the binary on PATH.
func NewBrowserPool(chromePath string, options ...chromedp.ExecAllocatorOption) (*BrowserPool, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),

		// Memory / CPU reduction
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-features", "Translate,BackForwardCache"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
	)
	opts = append(opts, options...)

	logger := log.Default().Named("browser")
	if chromePath != "" {
		logger.Info("using custom chrome path", "path", chromePath)
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	return newBrowserPool(logger, func(parent context.Context) (context.Context, context.CancelFunc) {
		return chromedp.NewExecAllocator(parent, opts...)
	})
}

// NewRemoteBrowserPool attaches to an already running Chrome through its
// DevTools websocket URL, e.g. a headless-shell container.
func NewRemoteBrowserPool(wsURL string) (*BrowserPool, error) {
	logger := log.Default().Named("browser").With("ws_url", wsURL)
	return newBrowserPool(logger, func(parent context.Context) (context.Context, context.CancelFunc) {
		return chromedp.NewRemoteAllocator(parent, wsURL)
	})
}

func newBrowserPool(logger *log.Logger, alloc allocatorFunc) (*BrowserPool, error) {
	bp := &BrowserPool{
		newAllocator: alloc,
		logger:       logger,
		tabs:         newTabLimiter(1),
	}
	if err := bp.start(); err != nil {
		return nil, err
	}
	return bp, nil
}

// start launches the browser, replacing any previous one.
func (bp *BrowserPool) start() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
	}

	allocCtx, cancelAlloc := bp.newAllocator(context.Background())
	ctx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(ctx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return errors.Wrap(err, "start chrome")
	}

	bp.ctx = ctx
	bp.cancel = func() {
		cancelBrowser()
		cancelAlloc()
	}

	bp.logger.Info("chrome started")
	return nil
}

// WithTab runs fn with exclusive use of a fresh tab. It waits for the tab
// slot only as long as ctx allows, and cancelling ctx also closes the tab.
func (bp *BrowserPool) WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error {
	return bp.tabs.run(ctx, func() error {
		tabCtx, tabCancel, err := bp.acquireTab()
		if err != nil {
			return err
		}
		defer tabCancel()

		stop := context.AfterFunc(ctx, tabCancel)
		defer stop()

		return fn(tabCtx)
	})
}

// acquireTab opens a tab and checks it works, restarting Chrome once if not.
func (bp *BrowserPool) acquireTab() (context.Context, context.CancelFunc, error) {
	bp.mu.Lock()
	tabCtx, tabCancel := chromedp.NewContext(bp.ctx)
	bp.mu.Unlock()

	err := chromedp.Run(tabCtx)
	if err == nil {
		return tabCtx, tabCancel, nil
	}
	tabCancel()
	bp.logger.Warn("tab failed, restarting chrome", "error", err)

	if err := bp.start(); err != nil {
		return nil, nil, err
	}

	bp.mu.Lock()
	tabCtx, tabCancel = chromedp.NewContext(bp.ctx)
	bp.mu.Unlock()
	return tabCtx, tabCancel, nil
}

// Close shuts the browser down.
func (bp *BrowserPool) Close() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
		bp.cancel = nil
		bp.logger.Info("chrome stopped")
	}
}

// tabLimiter is a counting semaphore that stops waiting when ctx ends.
type tabLimiter struct {
	slots chan struct{}
}

func newTabLimiter(n int) *tabLimiter {
	return &tabLimiter{slots: make(chan struct{}, n)}
}

// run calls fn while holding a slot. The slot is released even if fn panics.
func (l *tabLimiter) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slots }()

	return fn()
}
