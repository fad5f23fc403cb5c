package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Options configure the Chrome process.
type Options struct {
	Headless    bool
	ExecPath    string
	UserDataDir string
}

// Chrome is a Browser backed by a Chrome/Chromium process driven over the DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// NewChrome starts a browser process. Close releases it.
func NewChrome(ctx context.Context, opts Options, logger *slog.Logger) (*Chrome, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	logger.Info("browser started", "headless", opts.Headless)
	return &Chrome{ctx: browserCtx, cancelAlloc: cancelAlloc, cancel: cancel, logger: logger}, nil
}

// Close stops the browser process.
func (c *Chrome) Close() error {
	c.cancel()
	c.cancelAlloc()
	return nil
}

// Open implements Browser.
func (c *Chrome) Open(ctx context.Context, url string, background bool) (Tab, error) {
	var tabCtx context.Context
	var cancel context.CancelFunc

	if background {
		id, err := c.createBackgroundTarget(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTabOpenFailed, err)
		}
		tabCtx, cancel = chromedp.NewContext(c.ctx, chromedp.WithTargetID(id))
	} else {
		tabCtx, cancel = chromedp.NewContext(c.ctx)
	}

	tab := &chromeTab{ctx: tabCtx, cancel: cancel}
	// The first Run attaches the target and must use the tab context itself; the target's
	// event loop lives as long as the context it was attached with.
	if err := chromedp.Run(tabCtx); err != nil {
		tab.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrTabOpenFailed, url, err)
	}
	if err := tab.run(ctx, chromedp.Navigate(url)); err != nil {
		tab.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrTabOpenFailed, url, err)
	}
	return tab, nil
}

func (c *Chrome) createBackgroundTarget(ctx context.Context) (target.ID, error) {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var id target.ID
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(actx context.Context) error {
		browser := chromedp.FromContext(actx).Browser
		created, err := target.CreateTarget("about:blank").WithBackground(true).Do(cdp.WithExecutor(actx, browser))
		id = created
		return err
	}))
	return id, err
}

type chromeTab struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// run executes actions on the tab, aborting them when ctx ends. Cancelling a derived context
// does not close the tab.
func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (t *chromeTab) Close() error {
	t.closeOnce.Do(t.cancel)
	return nil
}

func (t *chromeTab) URL(ctx context.Context) (string, error) {
	var loc string
	if err := t.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

func (t *chromeTab) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var n int
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := t.run(ctx, chromedp.Evaluate(expr, &n)); err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	elements := make([]Element, n)
	for i := range n {
		elements[i] = &chromeElement{tab: t, selector: selector, index: i}
	}
	return elements, nil
}

func (t *chromeTab) AnyMatch(ctx context.Context, selectors []string) (bool, error) {
	list, err := json.Marshal(selectors)
	if err != nil {
		return false, err
	}
	var found bool
	expr := fmt.Sprintf(`%s.some(s => document.querySelector(s) !== null)`, list)
	if err := t.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return false, fmt.Errorf("matching selectors: %w", err)
	}
	return found, nil
}

var toastColors = map[Level]string{
	LevelSuccess: "#28a745",
	LevelWarning: "#ffc107",
	LevelInfo:    "#667eea",
}

const toastScript = `(() => {
	const el = document.createElement('div');
	el.style.cssText = 'position:fixed;top:20px;right:20px;background:%s;color:white;padding:16px 24px;' +
		'border-radius:8px;box-shadow:0 4px 12px rgba(0,0,0,0.2);z-index:999999;font-family:sans-serif;font-size:14px;';
	el.textContent = %s;
	document.body.appendChild(el);
	setTimeout(() => el.remove(), 3300);
	return true;
})()`

func (t *chromeTab) Toast(ctx context.Context, message string, level Level) error {
	color, ok := toastColors[level]
	if !ok {
		color = toastColors[LevelInfo]
	}
	var shown bool
	expr := fmt.Sprintf(toastScript, color, jsString(message))
	if err := t.run(ctx, chromedp.Evaluate(expr, &shown)); err != nil {
		return fmt.Errorf("showing toast: %w", err)
	}
	return nil
}

// chromeElement addresses an element by selector and document-order index.
type chromeElement struct {
	tab      *chromeTab
	selector string
	index    int
}

func (e *chromeElement) eval(ctx context.Context, body string) (bool, error) {
	expr := fmt.Sprintf(`(() => {
	const e = document.querySelectorAll(%s)[%d];
	if (!e) return false;
	%s
})()`, jsString(e.selector), e.index, body)
	var ok bool
	if err := e.tab.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	return e.eval(ctx, `return e.offsetParent !== null;`)
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	_, err := e.eval(ctx, `e.scrollIntoView({behavior: 'smooth', block: 'center'}); return true;`)
	return err
}

func (e *chromeElement) Click(ctx context.Context) error {
	ok, err := e.eval(ctx, `e.click(); return true;`)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element %q[%d] is gone", e.selector, e.index)
	}
	return nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
