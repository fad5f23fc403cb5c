// Package browser defines the page primitives the vote runner drives and a chromedp implementation.
package browser

import (
	"context"
	"errors"
)

// ErrTabOpenFailed wraps any failure to open or load a tab.
var ErrTabOpenFailed = errors.New("tab open failed")

// Level is the severity of a page toast or notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Element is a handle to one DOM element.
type Element interface {
	// Visible reports whether the element has a layout box.
	Visible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// Page is a loaded document.
type Page interface {
	URL(ctx context.Context) (string, error)
	// QueryAll returns the elements matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// AnyMatch reports whether at least one of selectors matches an element.
	AnyMatch(ctx context.Context, selectors []string) (bool, error)
	// Toast shows a transient message on the page.
	Toast(ctx context.Context, message string, level Level) error
}

// Tab is a page in its own browser tab.
type Tab interface {
	Page
	// Close closes the tab. It is safe to call more than once.
	Close() error
}

// Browser opens tabs.
type Browser interface {
	// Open loads url in a new tab and returns once the page has loaded. Background tabs do not
	// take focus.
	Open(ctx context.Context, url string, background bool) (Tab, error)
}
