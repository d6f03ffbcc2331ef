package services

import (
	"sync"
	"time"
)

type SessionState string

const (
	StateStarting             SessionState = "starting"
	StateAwaitingLogin        SessionState = "awaiting_login"
	StateFilling              SessionState = "filling"
	StateAwaitingConfirmation SessionState = "awaiting_confirmation"
	StateSubmitted            SessionState = "submitted"
	StateCancelled            SessionState = "cancelled"
	StateFailed               SessionState = "failed"
)

// Terminal reports whether the session can no longer be used
func (s SessionState) Terminal() bool {
	return s == StateSubmitted || s == StateCancelled || s == StateFailed
}

// Session is one live browser run for one user. Operations on a session are
// serialized by its op lock; Cancel only needs close().
type Session struct {
	ID        string
	UserKey   string
	FormURL   string
	Headless  bool
	Browser   BrowserContext
	Page      Page
	CreatedAt time.Time

	op sync.Mutex

	mu            sync.RWMutex
	state         SessionState
	lastUsedAt    time.Time
	diagnostics   *Diagnostics
	screenshotKey string

	closeOnce sync.Once
	closeErr  error
}

func newSession(id, userKey, formURL string, headless bool, browser BrowserContext, page Page) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		UserKey:    userKey,
		FormURL:    formURL,
		Headless:   headless,
		Browser:    browser,
		Page:       page,
		CreatedAt:  now,
		state:      StateStarting,
		lastUsedAt: now,
	}
}

// SessionInfo is the JSON view of a session
type SessionInfo struct {
	ID            string       `json:"id"`
	UserKey       string       `json:"user_key"`
	FormURL       string       `json:"form_url"`
	State         SessionState `json:"state"`
	ScreenshotKey string       `json:"screenshot_key,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastUsedAt    time.Time    `json:"last_used_at"`
}

func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionInfo{
		ID:            s.ID,
		UserKey:       s.UserKey,
		FormURL:       s.FormURL,
		State:         s.state,
		ScreenshotKey: s.screenshotKey,
		CreatedAt:     s.CreatedAt,
		LastUsedAt:    s.lastUsedAt,
	}
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// setState moves the session to state; terminal states are final
func (s *Session) setState(state SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = state
	s.lastUsedAt = time.Now()
	return true
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastUsedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsedAt
}

func (s *Session) Diagnostics() *Diagnostics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnostics
}

func (s *Session) ScreenshotKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screenshotKey
}

func (s *Session) recordRun(diag *Diagnostics, screenshotKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.diagnostics == nil {
		s.diagnostics = NewDiagnostics()
	}
	s.diagnostics.Merge(diag)
	if screenshotKey != "" {
		s.screenshotKey = screenshotKey
	}
}

// close releases the browser context once; later calls return the first result
func (s *Session) close() error {
	s.closeOnce.Do(func() {
		if s.Browser != nil {
			s.closeErr = s.Browser.Close()
		}
	})
	return s.closeErr
}
