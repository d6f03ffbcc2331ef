package services

import (
	"context"
	"strings"
	"time"

	"formfill/utils"
)

// Why a navigation run stopped
const (
	StopSubmitVisible = "submit-visible"
	StopNoControls    = "no-navigation-control"
	StopPageCap       = "page-cap"
)

// NavigatorConfig bounds the page loop; zero values take the defaults
type NavigatorConfig struct {
	MaxPages             int
	PollInterval         time.Duration
	PollAttempts         int
	GracePeriod          time.Duration
	FingerprintQuestions int
}

const controlSelector = `button, [role="button"], input[type="submit"], input[type="button"]`

var (
	submitWords = []string{"submit", "send", "submit form", "send response", "submit application"}
	nextWords   = []string{"next", "continue", "proceed", "save and continue", "next page"}
	// Controls on confirmation pages or that throw input away.
	controlBlocklist = []string{"another", "clear", "back", "previous", "cancel", "reset"}
)

// PageFiller fills the questions of the current page
type PageFiller func(ctx context.Context, questions []Question) error

// PageNavigator drives the Scan, Fill, Navigate loop across form pages
type PageNavigator struct {
	cfg     NavigatorConfig
	scanner *FormScanner
}

func NewPageNavigator(cfg NavigatorConfig, scanner *FormScanner) *PageNavigator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 15
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 12
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 1500 * time.Millisecond
	}
	if cfg.FingerprintQuestions <= 0 {
		cfg.FingerprintQuestions = 3
	}
	return &PageNavigator{cfg: cfg, scanner: scanner}
}

// Run scans and fills pages until a submit control shows up, no navigation
// control is left, or the page cap is hit. It never clicks Submit.
func (n *PageNavigator) Run(ctx context.Context, page Page, fill PageFiller, diag *Diagnostics) error {
	for {
		if diag.PagesVisited >= n.cfg.MaxPages {
			diag.StopReason = StopPageCap
			diag.Warn("stopped after %d pages without reaching a submit control", n.cfg.MaxPages)
			utils.LogWarn("Page cap reached", map[string]interface{}{
				"max_pages": n.cfg.MaxPages,
				"url":       page.URL(),
			})
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		questions, err := n.scanner.Scan(page)
		if err != nil {
			return err
		}
		diag.PagesVisited++
		utils.LogInfo("Scanned form page", map[string]interface{}{
			"page":      diag.PagesVisited,
			"questions": len(questions),
		})

		if err := fill(ctx, questions); err != nil {
			return err
		}

		submit, err := n.FindSubmit(page)
		if err != nil {
			return err
		}
		if submit != nil {
			diag.StopReason = StopSubmitVisible
			return nil
		}

		next, err := n.FindNext(page)
		if err != nil {
			return err
		}
		if next == nil {
			diag.StopReason = StopNoControls
			return nil
		}

		if err := n.Advance(ctx, page, next, questions, diag); err != nil {
			return err
		}
	}
}

// Advance clicks next and waits for the displayed questions to change. An
// unconfirmed transition is treated as done after the grace period.
func (n *PageNavigator) Advance(ctx context.Context, page Page, next Element, questions []Question, diag *Diagnostics) error {
	before := Fingerprint(questions, n.cfg.FingerprintQuestions)
	count := len(questions)

	if err := next.Click(); err != nil {
		if isPageClosed(err) {
			return err
		}
		diag.Warn("failed to click next control: %v", err)
		return nil
	}

	for i := 0; i < n.cfg.PollAttempts; i++ {
		if err := page.Wait(ctx, n.cfg.PollInterval); err != nil {
			return err
		}
		current, err := n.scanner.Scan(page)
		if err != nil {
			return err
		}
		if len(current) != count || Fingerprint(current, n.cfg.FingerprintQuestions) != before {
			return nil
		}
	}

	if err := page.Wait(ctx, n.cfg.GracePeriod); err != nil {
		return err
	}
	diag.Warn("page transition after page %d not confirmed; continuing", diag.PagesVisited)
	return nil
}

// FindSubmit returns the visible final submit control, if any
func (n *PageNavigator) FindSubmit(page Page) (Element, error) {
	el, err := findControl(page, submitWords)
	if err != nil || el != nil {
		return el, err
	}
	// A native submit button with no recognizable text is the last resort,
	// unless the page also offers a next control.
	next, err := findControl(page, nextWords)
	if err != nil || next != nil {
		return nil, err
	}
	el, _, err = firstVisible(page, []string{`button[type="submit"]`, `input[type="submit"]`})
	return el, err
}

// FindNext returns the visible next/continue control, if any
func (n *PageNavigator) FindNext(page Page) (Element, error) {
	return findControl(page, nextWords)
}

// findControl prefers a control whose label equals one of the words over
// one that merely contains it.
func findControl(page Page, words []string) (Element, error) {
	controls, err := page.QueryAll(controlSelector)
	if err != nil {
		if isPageClosed(err) {
			return nil, err
		}
		return nil, nil
	}

	var partial Element
	for _, el := range controls {
		label := controlLabel(el)
		if label == "" || blocked(label) {
			continue
		}
		if visible, err := el.IsVisible(); err != nil || !visible {
			if isPageClosed(err) {
				return nil, err
			}
			continue
		}
		for _, word := range words {
			if label == word {
				return el, nil
			}
			if partial == nil && containsWords(label, word) {
				partial = el
			}
		}
	}
	return partial, nil
}

func controlLabel(el Element) string {
	text, _ := el.Text()
	if label := Normalize(text); label != "" {
		return label
	}
	for _, attr := range []string{"aria-label", "value"} {
		if v, _ := el.Attr(attr); strings.TrimSpace(v) != "" {
			return Normalize(v)
		}
	}
	return ""
}

func blocked(label string) bool {
	for _, word := range controlBlocklist {
		if containsWords(label, word) {
			return true
		}
	}
	return false
}
