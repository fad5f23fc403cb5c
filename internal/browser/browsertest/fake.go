// Package browsertest provides in-memory fakes of the browser primitives.
package browsertest

import (
	"context"
	"sync"

	"github.com/rpggio/autovote/internal/browser"
)

// Toast is a message shown on a fake page.
type Toast struct {
	Message string
	Level   browser.Level
}

// Page is a fake browser.Page holding elements keyed by selector.
type Page struct {
	mu       sync.Mutex
	url      string
	elements map[string][]*Element
	toasts   []Toast
	clicks   []*Element
}

// NewPage returns an empty page at url.
func NewPage(url string) *Page {
	return &Page{url: url, elements: make(map[string][]*Element)}
}

// Element is a fake element.
type Element struct {
	page     *Page
	Name     string
	visible  bool
	scrolled int
	clicked  int
}

// Add appends an element matched by selector.
func (p *Page) Add(selector, name string, visible bool) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := &Element{page: p, Name: name, visible: visible}
	p.elements[selector] = append(p.elements[selector], el)
	return el
}

// SetVisible changes an element's visibility.
func (e *Element) SetVisible(v bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.visible = v
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.clicked
}

// Scrolls returns how many times the element was scrolled into view.
func (e *Element) Scrolls() int {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.scrolled
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.visible, nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.scrolled++
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.clicked++
	e.page.clicks = append(e.page.clicks, e)
	return nil
}

// Clicks returns every element clicked on the page, in order.
func (p *Page) Clicks() []*Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Element(nil), p.clicks...)
}

// Toasts returns the messages shown on the page.
func (p *Page) Toasts() []Toast {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Toast(nil), p.toasts...)
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.elements[selector]
	out := make([]browser.Element, len(list))
	for i, el := range list {
		out[i] = el
	}
	return out, nil
}

func (p *Page) AnyMatch(ctx context.Context, selectors []string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		if len(p.elements[s]) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) Toast(ctx context.Context, message string, level browser.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toasts = append(p.toasts, Toast{Message: message, Level: level})
	return nil
}

// Tab is a fake browser.Tab.
type Tab struct {
	*Page
	mu     sync.Mutex
	closed int
	done   chan struct{}
}

// NewTab wraps page in a tab.
func NewTab(page *Page) *Tab {
	return &Tab{Page: page, done: make(chan struct{})}
}

func (t *Tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed == 0 {
		close(t.done)
	}
	t.closed++
	return nil
}

// Closed is closed when the tab is first closed.
func (t *Tab) Closed() <-chan struct{} {
	return t.done
}

// OpenCall records one Browser.Open call.
type OpenCall struct {
	URL        string
	Background bool
}

// Browser is a fake browser.Browser. OpenFunc decides what each Open returns; by default a blank
// page at the requested URL.
type Browser struct {
	OpenFunc func(ctx context.Context, url string) (browser.Tab, error)

	mu    sync.Mutex
	calls []OpenCall
	tabs  []*Tab
}

func (b *Browser) Open(ctx context.Context, url string, background bool) (browser.Tab, error) {
	b.mu.Lock()
	b.calls = append(b.calls, OpenCall{URL: url, Background: background})
	b.mu.Unlock()

	if b.OpenFunc != nil {
		return b.OpenFunc(ctx, url)
	}
	tab := NewTab(NewPage(url))
	b.mu.Lock()
	b.tabs = append(b.tabs, tab)
	b.mu.Unlock()
	return tab, nil
}

// Calls returns the Open calls made so far.
func (b *Browser) Calls() []OpenCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]OpenCall(nil), b.calls...)
}

// Tabs returns the default tabs opened when OpenFunc is nil.
func (b *Browser) Tabs() []*Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Tab(nil), b.tabs...)
}
