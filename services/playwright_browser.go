package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/crypto/blake2b"

	"formfill/utils"
)

// PlaywrightLauncherOptions configures the Chromium launcher
type PlaywrightLauncherOptions struct {
	ProfileDir        string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	Install           bool
}

// PlaywrightLauncher launches Chromium with one persistent profile directory
// per user so an external sign-in survives between runs.
type PlaywrightLauncher struct {
	pw   *playwright.Playwright
	opts PlaywrightLauncherOptions
}

// NewPlaywrightLauncher starts the Playwright driver
func NewPlaywrightLauncher(opts PlaywrightLauncherOptions) (*PlaywrightLauncher, error) {
	if opts.ProfileDir == "" {
		opts.ProfileDir = "./browser_profiles"
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 5 * time.Second
	}

	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	return &PlaywrightLauncher{pw: pw, opts: opts}, nil
}

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ProfilePath returns the durable profile directory for a user
func (l *PlaywrightLauncher) ProfilePath(userKey string) string {
	return filepath.Join(l.opts.ProfileDir, profileDirName(userKey))
}

// profileDirName keeps a readable prefix of the user key; the hash suffix
// keeps keys that sanitize alike in separate directories.
func profileDirName(userKey string) string {
	sum := blake2b.Sum256([]byte(userKey))

	prefix := strings.Trim(unsafePathChars.ReplaceAllString(userKey, "_"), "._")
	if len(prefix) > 32 {
		prefix = prefix[:32]
	}
	if prefix == "" {
		prefix = "user"
	}
	return prefix + "-" + hex.EncodeToString(sum[:8])
}

// Launch opens the user's persistent Chromium context
func (l *PlaywrightLauncher) Launch(ctx context.Context, userKey string, headless bool) (BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := l.ProfilePath(userKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile dir: %w", err)
	}

	utils.LogInfo("Launching browser context", map[string]interface{}{
		"user_key":    userKey,
		"profile_dir": dir,
		"headless":    headless,
	})

	bctx, err := l.pw.Chromium.LaunchPersistentContext(dir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--no-sandbox",
			"--disable-blink-features=AutomationControlled",
		},
		Viewport: &playwright.Size{Width: 1280, Height: 900},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx.SetDefaultTimeout(float64(l.opts.ActionTimeout.Milliseconds()))
	return &playwrightContext{ctx: bctx, navTimeout: l.opts.NavigationTimeout}, nil
}

// Stop shuts the Playwright driver down
func (l *PlaywrightLauncher) Stop() error {
	if l.pw == nil {
		return nil
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type playwrightContext struct {
	ctx        playwright.BrowserContext
	navTimeout time.Duration
}

func (c *playwrightContext) Page() (Page, error) {
	// A persistent context opens with one blank tab.
	if pages := c.ctx.Pages(); len(pages) > 0 {
		return newPlaywrightPage(pages[0], c.navTimeout), nil
	}
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, mapPlaywrightError(fmt.Errorf("could not create page: %w", err))
	}
	return newPlaywrightPage(page, c.navTimeout), nil
}

func (c *playwrightContext) Close() error {
	if err := c.ctx.Close(); err != nil && !isPageClosed(mapPlaywrightError(err)) {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}

type playwrightPage struct {
	page       playwright.Page
	navTimeout time.Duration
	closed     chan struct{}
}

func newPlaywrightPage(page playwright.Page, navTimeout time.Duration) *playwrightPage {
	p := &playwrightPage{page: page, navTimeout: navTimeout, closed: make(chan struct{})}
	var once sync.Once
	markClosed := func() { once.Do(func() { close(p.closed) }) }
	page.OnClose(func(playwright.Page) { markClosed() })
	if page.IsClosed() {
		markClosed()
	}
	return p
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	timeout := p.navTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: no time left to load %s", ErrNavigationTimeout, url)
	}

	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return mapPlaywrightError(fmt.Errorf("could not navigate to %s: %w", url, err))
	}
	return nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	locators, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, mapPlaywrightError(err)
	}
	return wrapLocators(locators), nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title() (string, error) {
	title, err := p.page.Title()
	return title, mapPlaywrightError(err)
}

func (p *playwrightPage) Screenshot() ([]byte, error) {
	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, mapPlaywrightError(fmt.Errorf("failed to take screenshot: %w", err))
	}
	return data, nil
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	return waitUnlessClosed(ctx, d, p.closed)
}

// waitUnlessClosed sleeps for d, ending early with ErrPageUnavailable once
// closed is signalled
func waitUnlessClosed(ctx context.Context, d time.Duration, closed <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		return ErrPageUnavailable
	case <-timer.C:
	}
	select {
	case <-closed:
		return ErrPageUnavailable
	default:
		return nil
	}
}

func (p *playwrightPage) IsClosed() bool {
	return p.page.IsClosed()
}

type playwrightElement struct {
	loc playwright.Locator
}

func wrapLocators(locators []playwright.Locator) []Element {
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{loc: loc})
	}
	return elements
}

func (e *playwrightElement) QueryAll(selector string) ([]Element, error) {
	locators, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, mapPlaywrightError(err)
	}
	return wrapLocators(locators), nil
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.loc.InnerText()
	return text, mapPlaywrightError(err)
}

func (e *playwrightElement) Attr(name string) (string, error) {
	value, err := e.loc.GetAttribute(name)
	return value, mapPlaywrightError(err)
}

func (e *playwrightElement) TagName() (string, error) {
	result, err := e.loc.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return "", mapPlaywrightError(err)
	}
	tag, _ := result.(string)
	return tag, nil
}

func (e *playwrightElement) IsVisible() (bool, error) {
	visible, err := e.loc.IsVisible()
	return visible, mapPlaywrightError(err)
}

func (e *playwrightElement) Fill(value string) error {
	return mapPlaywrightError(e.loc.Fill(value))
}

func (e *playwrightElement) Click() error {
	return mapPlaywrightError(e.loc.Click())
}

func (e *playwrightElement) SelectOption(label string) error {
	_, err := e.loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{label}})
	return mapPlaywrightError(err)
}

func (e *playwrightElement) SetInputFiles(path string) error {
	return mapPlaywrightError(e.loc.SetInputFiles(path))
}

// mapPlaywrightError folds the driver's closed-target errors into
// ErrPageUnavailable and timeouts into ErrNavigationTimeout.
func mapPlaywrightError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("%w: %v", ErrPageUnavailable, err)
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "has been closed") || strings.Contains(msg, "Target closed") {
		return fmt.Errorf("%w: %v", ErrPageUnavailable, err)
	}
	return err
}
