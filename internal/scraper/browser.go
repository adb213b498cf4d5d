package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// Browser is one automated browser tab, owned by a single run.
// Every method blocks until the page answers or ctx/timeout expires.
type Browser interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// ScrollToEnd scrolls the element matched by selector to its bottom.
	ScrollToEnd(ctx context.Context, selector string) error
	// HTML returns the current document markup.
	HTML(ctx context.Context) (string, error)
	// ClickNth clicks the i-th element matched by selector. It reports
	// false when fewer than i+1 elements exist.
	ClickNth(ctx context.Context, selector string, i int) (bool, error)
	Back(ctx context.Context) error
	Close() error
}

// Launcher starts a Browser. Launch must give up when ctx ends; the
// returned Browser is not bound to ctx.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultWidth     = 1920
	defaultHeight    = 1080

	actionTimeout       = 15 * time.Second
	defaultWSURLTimeout = 20 * time.Second
)

// ChromeLauncher launches headless Chrome through chromedp.
type ChromeLauncher struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	Width     int
	Height    int
}

// NewChromeLauncher returns a launcher with a desktop user agent and a
// 1920x1080 viewport.
func NewChromeLauncher(headless bool, execPath string) *ChromeLauncher {
	return &ChromeLauncher{
		Headless:  headless,
		ExecPath:  execPath,
		UserAgent: defaultUserAgent,
		Width:     defaultWidth,
		Height:    defaultHeight,
	}
}

// Launch returns once the first tab is ready, or fails when ctx ends first.
// ctx bounds startup only: the browser lives until Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	wsTimeout := defaultWSURLTimeout
	if dl, ok := ctx.Deadline(); ok {
		wsTimeout = time.Until(dl)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(l.UserAgent),
		chromedp.WindowSize(l.Width, l.Height),
		chromedp.WSURLReadTimeout(wsTimeout),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	abort := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run allocates the browser, so it must use the tab context
	// itself; ctx ending tears the half-started browser down instead.
	stop := context.AfterFunc(ctx, abort)
	err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(int64(l.Width), int64(l.Height), 1, false),
	)
	if !stop() {
		abort()
		return nil, eris.Wrap(ctx.Err(), "scraper: start chrome")
	}
	if err != nil {
		abort()
		return nil, eris.Wrap(err, "scraper: start chrome")
	}

	return &chromeBrowser{ctx: tabCtx, cancelTab: tabCancel, cancelAlloc: allocCancel}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (b *chromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.Navigate(url))
}

func (b *chromeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) ScrollToEnd(ctx context.Context, selector string) error {
	js := fmt.Sprintf(`(function () {
  const el = document.querySelector(%q);
  if (el) { el.scrollTop = el.scrollHeight; }
})();`, selector)
	return b.run(ctx, actionTimeout, chromedp.Evaluate(js, nil))
}

func (b *chromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *chromeBrowser) ClickNth(ctx context.Context, selector string, i int) (bool, error) {
	js := fmt.Sprintf(`(function () {
  const els = document.querySelectorAll(%q);
  if (%d >= els.length) { return false; }
  els[%d].click();
  return true;
})();`, selector, i, i)
	var clicked bool
	err := b.run(ctx, actionTimeout, chromedp.Evaluate(js, &clicked))
	return clicked, err
}

// Back uses the page history: result lists are a single-page app, so a
// CDP history navigation would wait for a load event that never comes.
func (b *chromeBrowser) Back(ctx context.Context) error {
	return b.run(ctx, actionTimeout, chromedp.Evaluate(`window.history.back();`, nil))
}

// Close shuts the browser process down. Calling it more than once is a no-op.
func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancelTab()
		b.cancelAlloc()
	})
	return b.closeErr
}
