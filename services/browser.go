package services

import (
	"context"
	"time"
)

// Queryable is anything that can enumerate descendants by CSS selector
type Queryable interface {
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle on one DOM element (or a lazily resolved locator).
// Fill, Click and SelectOption dispatch the input/change events a user
// action would.
type Element interface {
	Queryable
	Text() (string, error)
	Attr(name string) (string, error)
	TagName() (string, error)
	IsVisible() (bool, error)
	Fill(value string) error
	Click() error
	SelectOption(label string) error
	SetInputFiles(path string) error
}

// Page is the active tab of a browser session
type Page interface {
	Queryable
	Goto(ctx context.Context, url string) error
	URL() string
	Title() (string, error)
	Screenshot() ([]byte, error)
	// Wait blocks for d or until ctx is done or the page closes
	Wait(ctx context.Context, d time.Duration) error
	IsClosed() bool
}

// BrowserContext owns the pages of one user's persistent browser profile
type BrowserContext interface {
	Page() (Page, error)
	Close() error
}

// Launcher opens a browser context bound to the user's durable profile dir
type Launcher interface {
	Launch(ctx context.Context, userKey string, headless bool) (BrowserContext, error)
}

// firstVisible returns the first element matched by any selector, in order
func firstVisible(root Queryable, selectors []string) (Element, string, error) {
	for _, selector := range selectors {
		elements, err := root.QueryAll(selector)
		if err != nil {
			if isPageClosed(err) {
				return nil, "", err
			}
			continue
		}
		for _, el := range elements {
			if visible, _ := el.IsVisible(); visible {
				return el, selector, nil
			}
		}
	}
	return nil, "", nil
}

// queryAny returns the elements of the first selector that matches anything
func queryAny(root Queryable, selectors []string) ([]Element, string, error) {
	for _, selector := range selectors {
		elements, err := root.QueryAll(selector)
		if err != nil {
			if isPageClosed(err) {
				return nil, "", err
			}
			continue
		}
		if len(elements) > 0 {
			return elements, selector, nil
		}
	}
	return nil, "", nil
}
