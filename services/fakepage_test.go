package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fakePage serves a fixed sequence of HTML documents. Controls marked
// data-action="next" advance to the following document, data-action="stay"
// does nothing and data-action="submit" loads a confirmation page.
type fakePage struct {
	mu        sync.Mutex
	pages     []string
	index     int
	doc       *goquery.Document
	url       string
	closed    bool
	loginHTML string
	gotoErrs  []error
	fillErrs  map[string]error
	actions   []string
	gotos     int
}

const confirmationHTML = `<html><head><title>Form</title></head><body>
<div class="freebirdFormviewerViewResponseConfirmationMessage">Your response has been recorded.</div>
<a href="#">Submit another response</a>
</body></html>`

const loginPageHTML = `<html><body><form action="/signin/v2"><input id="identifierId" type="email" name="identifier"></form></body></html>`

func newFakePage(pages ...string) *fakePage {
	return &fakePage{pages: pages, fillErrs: map[string]error{}}
}

// withLogin makes Goto land on a sign-in wall until completeLogin is called
func (p *fakePage) withLogin() *fakePage {
	p.loginHTML = loginPageHTML
	return p
}

func (p *fakePage) completeLogin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginHTML = ""
	p.url = "https://www.google.com/"
	p.setDoc(`<html><body><p>Signed in</p></body></html>`)
}

func (p *fakePage) setDoc(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	p.doc = doc
}

func (p *fakePage) load(i int) {
	p.index = i
	p.setDoc(p.pages[i])
}

func (p *fakePage) record(format string, args ...interface{}) {
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *fakePage) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *fakePage) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.gotos++
	if len(p.gotoErrs) > 0 {
		err := p.gotoErrs[0]
		p.gotoErrs = p.gotoErrs[1:]
		return err
	}
	if p.loginHTML != "" {
		p.url = "https://accounts.google.com/v3/signin/identifier?continue=" + url
		p.setDoc(p.loginHTML)
		return nil
	}
	p.url = url
	p.load(0)
	return nil
}

func (p *fakePage) QueryAll(selector string) ([]Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPageUnavailable
	}
	if p.doc == nil {
		return nil, nil
	}
	return p.wrap(p.doc.Find(selector)), nil
}

func (p *fakePage) wrap(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &fakeElement{page: p, sel: s})
	})
	return elements
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPageUnavailable
	}
	if p.doc == nil {
		return "", nil
	}
	return p.doc.Find("title").Text(), nil
}

func (p *fakePage) Screenshot() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPageUnavailable
	}
	return []byte("\x89PNG fake"), nil
}

func (p *fakePage) Wait(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.IsClosed() {
		return ErrPageUnavailable
	}
	return nil
}

func (p *fakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeElement struct {
	page *fakePage
	sel  *goquery.Selection
}

func (e *fakeElement) lock() (func(), error) {
	e.page.mu.Lock()
	if e.page.closed {
		e.page.mu.Unlock()
		return nil, ErrPageUnavailable
	}
	return e.page.mu.Unlock, nil
}

func (e *fakeElement) QueryAll(selector string) ([]Element, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *fakeElement) Text() (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	return e.sel.Text(), nil
}

func (e *fakeElement) Attr(name string) (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	return e.sel.AttrOr(name, ""), nil
}

func (e *fakeElement) TagName() (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	return goquery.NodeName(e.sel), nil
}

func (e *fakeElement) IsVisible() (bool, error) {
	unlock, err := e.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	hidden := e.sel.Closest(`[hidden], [style*="display:none"], [style*="display: none"]`)
	return hidden.Length() == 0, nil
}

func (e *fakeElement) identity() string {
	for _, attr := range []string{"name", "id", "aria-label", "data-value"} {
		if v := e.sel.AttrOr(attr, ""); v != "" {
			return v
		}
	}
	return strings.TrimSpace(e.sel.Text())
}

func (e *fakeElement) Fill(value string) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	id := e.identity()
	if err := e.page.fillErrs[id]; err != nil {
		return err
	}
	// Browsers reject non-ISO text in native date inputs.
	if e.sel.AttrOr("type", "") == "date" {
		if _, err := time.Parse(isoLayout, value); err != nil {
			return fmt.Errorf("malformed value for date input: %q", value)
		}
	}
	e.sel.SetAttr("value", value)
	e.page.record("fill %s=%s", id, value)
	return nil
}

func (e *fakeElement) Click() error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	p := e.page
	p.record("click %s", e.identity())
	switch e.sel.AttrOr("data-action", "") {
	case "next":
		if p.index+1 < len(p.pages) {
			p.load(p.index + 1)
		}
		return nil
	case "submit":
		p.url = strings.TrimSuffix(p.url, "/viewform") + "/formResponse"
		p.setDoc(confirmationHTML)
		return nil
	case "stay":
		return nil
	}

	if role := e.sel.AttrOr("role", ""); role == "radio" || role == "checkbox" {
		e.sel.SetAttr("aria-checked", "true")
	}
	if t := e.sel.AttrOr("type", ""); t == "radio" || t == "checkbox" {
		e.sel.SetAttr("checked", "checked")
	}
	return nil
}

func (e *fakeElement) SelectOption(label string) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	found := false
	e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if strings.TrimSpace(opt.Text()) == label {
			opt.SetAttr("selected", "selected")
			found = true
		}
	})
	if !found {
		return fmt.Errorf("no option with label %q", label)
	}
	e.page.record("select %s=%s", e.identity(), label)
	return nil
}

func (e *fakeElement) SetInputFiles(path string) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	e.page.record("upload %s=%s", e.identity(), path)
	return nil
}

type fakeContext struct {
	page *fakePage
	mu   sync.Mutex
	shut bool
}

func (c *fakeContext) Page() (Page, error) {
	return c.page, nil
}

func (c *fakeContext) Close() error {
	c.mu.Lock()
	c.shut = true
	c.mu.Unlock()
	c.page.Close()
	return nil
}

func (c *fakeContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shut
}

// fakeLauncher hands out a fresh page from newPage on every launch
type fakeLauncher struct {
	mu       sync.Mutex
	newPage  func() *fakePage
	contexts []*fakeContext
}

func (l *fakeLauncher) Launch(ctx context.Context, userKey string, headless bool) (BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &fakeContext{page: l.newPage()}
	l.contexts = append(l.contexts, c)
	return c, nil
}

func (l *fakeLauncher) Context(i int) *fakeContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contexts[i]
}

// loadedPage returns a page already showing html, for scanner and
// executor tests
func loadedPage(html string) *fakePage {
	p := newFakePage(html)
	p.url = "https://docs.google.com/forms/d/e/test/viewform"
	p.load(0)
	return p
}
