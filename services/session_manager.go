package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"formfill/utils"
)

// StopNavigationTimeout is reported when the form never loaded
const StopNavigationTimeout = "navigation-timeout"

// Snapshotter captures and stores a page snapshot, returning its key
type Snapshotter interface {
	CaptureAndUpload(ctx context.Context, page Page, screenshotType string) (string, error)
}

// ManagerConfig carries session level policy; zero values take defaults
type ManagerConfig struct {
	Navigator         NavigatorConfig
	NavigationRetries int
	RetryBackoff      time.Duration
	SubmitWait        time.Duration
	IdleTimeout       time.Duration
}

// RunResult is returned by Start and Continue
type RunResult struct {
	SessionID     string         `json:"session_id"`
	State         SessionState   `json:"state"`
	NeedsLogin    bool           `json:"needs_login"`
	Message       string         `json:"message,omitempty"`
	Diagnostics   *Diagnostics   `json:"diagnostics,omitempty"`
	MissingFields []MissingField `json:"missing_fields,omitempty"`
	ScreenshotKey string         `json:"screenshot_key,omitempty"`
}

// SubmitResult reports whether the submit control was activated
type SubmitResult struct {
	Success       bool   `json:"success"`
	Clicked       bool   `json:"clicked"`
	Confirmed     bool   `json:"confirmed"`
	Reason        string `json:"reason,omitempty"`
	ScreenshotKey string `json:"screenshot_key,omitempty"`
}

type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}

var (
	loginURLMarkers = []string{
		"accounts.google.com",
		"servicelogin",
		"/signin",
		"/login",
		"/oauth",
	}
	loginDOMSelectors = []string{
		`#identifierId`,
		`input[name="identifier"]`,
		`input[type="password"]`,
		`form[action*="signin"]`,
		`form[action*="login"]`,
	}
)

// SessionManager owns the browser sessions and exposes the four entry
// points: Start, Continue, Submit and Cancel.
type SessionManager struct {
	cfg         ManagerConfig
	launcher    Launcher
	registry    SessionRegistry
	scanner     *FormScanner
	executor    *FillExecutor
	navigator   *PageNavigator
	checker     *SubmissionCheckerService
	snapshots   Snapshotter
	userLocksMu sync.Mutex
	userLocks   map[string]*sync.Mutex
}

func NewSessionManager(cfg ManagerConfig, launcher Launcher, registry SessionRegistry, mapper *FieldMapper, snapshots Snapshotter) *SessionManager {
	if cfg.NavigationRetries < 0 {
		cfg.NavigationRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.SubmitWait <= 0 {
		cfg.SubmitWait = 2 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if registry == nil {
		registry = NewMemoryRegistry()
	}

	scanner := NewFormScanner(ScannerConfig{})
	navigator := NewPageNavigator(cfg.Navigator, scanner)
	return &SessionManager{
		cfg:       cfg,
		launcher:  launcher,
		registry:  registry,
		scanner:   scanner,
		executor:  NewFillExecutor(mapper),
		navigator: navigator,
		checker:   NewSubmissionCheckerService(navigator.cfg.PollInterval),
		snapshots: snapshots,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Start opens a fresh session for userKey, replacing any live one, loads the
// form and fills it. It stops early with NeedsLogin when a sign-in wall is
// shown; the session stays open for Continue.
func (m *SessionManager) Start(ctx context.Context, userKey, formURL string, profile Profile, headless bool) (*RunResult, error) {
	if strings.TrimSpace(userKey) == "" {
		return nil, fmt.Errorf("%w: user key is required", ErrInvalidRequest)
	}
	if err := validateFormURL(formURL); err != nil {
		return nil, err
	}

	// The user lock covers replace, launch and register; filling runs under
	// the session's own op lock.
	unlock := m.lockUser(userKey)
	if oldID, ok := m.registry.IDForUser(userKey); ok {
		if old, ok := m.registry.Get(oldID); ok {
			utils.LogInfo("Closing existing session before start", map[string]interface{}{
				"user_key":   userKey,
				"session_id": oldID,
			})
			m.cleanup(old, StateCancelled)
		}
	}

	browser, err := m.launcher.Launch(ctx, userKey, headless)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	page, err := browser.Page()
	if err != nil {
		browser.Close()
		unlock()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	sess := newSession(uuid.NewString(), userKey, formURL, headless, browser, page)
	sess.op.Lock()
	defer sess.op.Unlock()
	m.registry.Put(sess)
	unlock()

	utils.LogInfo("Session started", map[string]interface{}{
		"session_id": sess.ID,
		"user_key":   userKey,
		"form_url":   formURL,
	})

	if err := m.navigate(ctx, sess); err != nil {
		if errors.Is(err, ErrNavigationTimeout) {
			return m.navigationTimedOut(sess, err), nil
		}
		return nil, m.fail(ctx, sess, "start", err)
	}

	return m.fillOrWaitForLogin(ctx, sess, profile)
}

// Continue resumes a session after the user completed an external sign-in
func (m *SessionManager) Continue(ctx context.Context, sessionID string, profile Profile) (*RunResult, error) {
	sess, ok := m.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.op.Lock()
	defer sess.op.Unlock()

	if sess.State().Terminal() {
		return nil, ErrSessionNotFound
	}
	if sess.Page.IsClosed() {
		m.cleanup(sess, StateFailed)
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, ErrPageUnavailable)
	}
	sess.touch()

	if sess.State() == StateAwaitingLogin {
		onLogin, err := m.detectLogin(sess.Page)
		if err != nil {
			return nil, m.fail(ctx, sess, "continue", err)
		}
		if onLogin {
			return m.loginResult(sess), nil
		}
		// The sign-in flow does not always land back on the form.
		if !sameForm(sess.Page.URL(), sess.FormURL) {
			if err := m.navigate(ctx, sess); err != nil {
				if errors.Is(err, ErrNavigationTimeout) {
					return m.navigationTimedOut(sess, err), nil
				}
				return nil, m.fail(ctx, sess, "continue", err)
			}
		}
	}

	return m.fillOrWaitForLogin(ctx, sess, profile)
}

// Submit clicks the form's submit control, waits briefly for a confirmation
// and destroys the session. A closed page is reported in the result, not as
// an error.
func (m *SessionManager) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	sess, ok := m.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.op.Lock()
	defer sess.op.Unlock()

	if sess.State().Terminal() || sess.Page.IsClosed() {
		m.cleanup(sess, StateFailed)
		return &SubmitResult{Success: false, Reason: ErrPageUnavailable.Error()}, nil
	}
	sess.touch()

	submit, err := m.navigator.FindSubmit(sess.Page)
	if err != nil {
		if isPageClosed(err) {
			m.cleanup(sess, StateFailed)
			return &SubmitResult{Success: false, Reason: ErrPageUnavailable.Error()}, nil
		}
		return nil, fmt.Errorf("failed to look up submit control: %w", err)
	}
	if submit == nil {
		// Leave the session open so the user can finish by hand.
		return &SubmitResult{Success: false, Reason: "submit control not found"}, nil
	}

	if err := submit.Click(); err != nil {
		if isPageClosed(err) {
			m.cleanup(sess, StateFailed)
			return &SubmitResult{Success: false, Reason: ErrPageUnavailable.Error()}, nil
		}
		return &SubmitResult{Success: false, Reason: fmt.Sprintf("failed to click submit: %v", err)}, nil
	}

	result := &SubmitResult{Success: true, Clicked: true}
	confirmed, err := m.checker.WaitForSuccess(ctx, sess.Page, m.cfg.SubmitWait)
	if err != nil {
		utils.LogWarn("Could not confirm submission", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
	result.Confirmed = confirmed
	if err == nil && m.snapshots != nil {
		if key, err := m.snapshots.CaptureAndUpload(ctx, sess.Page, "submitted_"+sess.ID); err == nil {
			result.ScreenshotKey = key
		}
	}

	m.cleanup(sess, StateSubmitted)
	utils.LogInfo("Form submitted", map[string]interface{}{
		"session_id": sess.ID,
		"confirmed":  confirmed,
	})
	return result, nil
}

// Cancel closes and removes a session. Unknown ids are a no-op.
func (m *SessionManager) Cancel(sessionID string) *CancelResult {
	sess, ok := m.registry.Get(sessionID)
	if !ok {
		return &CancelResult{Cancelled: false}
	}
	m.cleanup(sess, StateCancelled)
	return &CancelResult{Cancelled: true}
}

// Get returns the live session with id
func (m *SessionManager) Get(sessionID string) (SessionInfo, bool) {
	sess, ok := m.registry.Get(sessionID)
	if !ok {
		return SessionInfo{}, false
	}
	return sess.Info(), true
}

// List returns every live session
func (m *SessionManager) List() []SessionInfo {
	sessions := m.registry.All()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// CleanupIdle cancels sessions unused for longer than the idle timeout.
// Sessions with an operation in flight are skipped.
func (m *SessionManager) CleanupIdle(now time.Time) int {
	removed := 0
	for _, sess := range m.registry.All() {
		if now.Sub(sess.LastUsedAt()) < m.cfg.IdleTimeout {
			continue
		}
		if !sess.op.TryLock() {
			continue
		}
		m.cleanup(sess, StateCancelled)
		sess.op.Unlock()
		removed++
	}
	if removed > 0 {
		utils.LogInfo("Removed idle sessions", map[string]interface{}{"count": removed})
	}
	return removed
}

// RunReaper calls CleanupIdle every interval until ctx is done
func (m *SessionManager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.CleanupIdle(now)
		}
	}
}

// Shutdown closes every live session concurrently
func (m *SessionManager) Shutdown(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, sess := range m.registry.All() {
		g.Go(func() error {
			m.registry.Delete(sess.ID)
			sess.setState(StateCancelled)
			if err := sess.close(); err != nil {
				return fmt.Errorf("session %s: %w", sess.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *SessionManager) fillOrWaitForLogin(ctx context.Context, sess *Session, profile Profile) (*RunResult, error) {
	onLogin, err := m.detectLogin(sess.Page)
	if err != nil {
		return nil, m.fail(ctx, sess, "detect login", err)
	}
	if onLogin {
		sess.setState(StateAwaitingLogin)
		utils.LogInfo("Sign-in required", map[string]interface{}{
			"session_id": sess.ID,
			"url":        sess.Page.URL(),
		})
		return m.loginResult(sess), nil
	}

	if !sess.setState(StateFilling) {
		return nil, m.fail(ctx, sess, "fill", ErrPageUnavailable)
	}

	diag := NewDiagnostics()
	fill := func(ctx context.Context, questions []Question) error {
		return m.executor.FillPage(ctx, questions, profile, diag)
	}
	if err := m.navigator.Run(ctx, sess.Page, fill, diag); err != nil {
		sess.recordRun(diag, "")
		return nil, m.fail(ctx, sess, "fill", err)
	}

	key := ""
	if m.snapshots != nil {
		var err error
		key, err = m.snapshots.CaptureAndUpload(ctx, sess.Page, "filled_"+sess.ID)
		if err != nil {
			if isPageClosed(err) {
				return nil, m.fail(ctx, sess, "snapshot", err)
			}
			diag.Warn("failed to capture snapshot: %v", err)
		}
	}

	sess.recordRun(diag, key)
	if !sess.setState(StateAwaitingConfirmation) {
		return nil, m.fail(ctx, sess, "fill", ErrPageUnavailable)
	}

	utils.LogInfo("Form filled, awaiting confirmation", map[string]interface{}{
		"session_id":          sess.ID,
		"pages_visited":       diag.PagesVisited,
		"fields_filled":       len(diag.FieldsFilled),
		"unmatched_mandatory": len(diag.UnmatchedMandatory),
		"stop_reason":         diag.StopReason,
	})

	return &RunResult{
		SessionID:     sess.ID,
		State:         StateAwaitingConfirmation,
		Diagnostics:   diag,
		MissingFields: CollectMissingFields(diag),
		ScreenshotKey: key,
	}, nil
}

// navigate loads the form URL, retrying timeouts a bounded number of times
func (m *SessionManager) navigate(ctx context.Context, sess *Session) error {
	var err error
	for attempt := 0; attempt <= m.cfg.NavigationRetries; attempt++ {
		if attempt > 0 {
			utils.LogWarn("Retrying form navigation", map[string]interface{}{
				"session_id": sess.ID,
				"attempt":    attempt,
				"error":      err.Error(),
			})
			if werr := sess.Page.Wait(ctx, m.cfg.RetryBackoff); werr != nil {
				return werr
			}
		}
		err = sess.Page.Goto(ctx, sess.FormURL)
		if err == nil || !errors.Is(err, ErrNavigationTimeout) {
			return err
		}
	}
	return err
}

func (m *SessionManager) navigationTimedOut(sess *Session, err error) *RunResult {
	diag := NewDiagnostics()
	diag.StopReason = StopNavigationTimeout
	diag.Warn("form did not load after %d attempts: %v", m.cfg.NavigationRetries+1, err)
	m.cleanup(sess, StateFailed)
	return &RunResult{
		SessionID:   sess.ID,
		State:       StateFailed,
		Message:     "The form could not be loaded",
		Diagnostics: diag,
	}
}

func (m *SessionManager) loginResult(sess *Session) *RunResult {
	return &RunResult{
		SessionID:  sess.ID,
		State:      StateAwaitingLogin,
		NeedsLogin: true,
		Message:    "Sign in to the form provider in the opened browser, then continue",
	}
}

func (m *SessionManager) detectLogin(page Page) (bool, error) {
	current := strings.ToLower(page.URL())
	for _, marker := range loginURLMarkers {
		if strings.Contains(current, marker) {
			return true, nil
		}
	}
	el, _, err := firstVisible(page, loginDOMSelectors)
	if err != nil {
		return false, err
	}
	return el != nil, nil
}

// fail captures a last snapshot if it still can, tears the session down and
// wraps err with the session context.
func (m *SessionManager) fail(ctx context.Context, sess *Session, op string, err error) error {
	key := sess.ScreenshotKey()
	if m.snapshots != nil && !sess.Page.IsClosed() && !isPageClosed(err) {
		if k, serr := m.snapshots.CaptureAndUpload(ctx, sess.Page, "failed_"+sess.ID); serr == nil {
			key = k
		}
	}
	m.cleanup(sess, StateFailed)

	utils.LogError("Session failed", err, map[string]interface{}{
		"session_id": sess.ID,
		"op":         op,
	})
	return &SessionError{SessionID: sess.ID, Op: op, ScreenshotKey: key, Err: err}
}

// cleanup removes the session from the registry and closes its browser.
// Safe to call more than once.
func (m *SessionManager) cleanup(sess *Session, state SessionState) {
	m.registry.Delete(sess.ID)
	sess.setState(state)
	if err := sess.close(); err != nil {
		utils.LogWarn("Failed to close browser context", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
}

func (m *SessionManager) lockUser(userKey string) func() {
	m.userLocksMu.Lock()
	mu, ok := m.userLocks[userKey]
	if !ok {
		mu = &sync.Mutex{}
		m.userLocks[userKey] = mu
	}
	m.userLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func validateFormURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: form URL must be an absolute http(s) URL, got %q", ErrInvalidRequest, raw)
	}
	return nil
}

func sameForm(current, formURL string) bool {
	c, err1 := url.Parse(current)
	f, err2 := url.Parse(formURL)
	if err1 != nil || err2 != nil {
		return false
	}
	return c.Host == f.Host && strings.TrimSuffix(c.Path, "/") == strings.TrimSuffix(f.Path, "/")
}
