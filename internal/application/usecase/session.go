package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

const (
	DefaultChatURL      = "https://chat.openai.com"
	DefaultReadyTimeout = 60 * time.Second
)

type SessionConfig struct {
	URL          string
	ReadyTimeout time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		URL:          DefaultChatURL,
		ReadyTimeout: DefaultReadyTimeout,
	}
}

// SessionManager owns the one chat tab of the process. The browser is
// launched on first use; a page reporting itself closed is replaced on the
// next EnsurePage.
type SessionManager struct {
	launch output.BrowserLauncher
	cfg    SessionConfig
	logger output.LoggerPort

	mu      sync.Mutex
	browser output.BrowserPort
	page    output.PagePort
}

func NewSessionManager(launch output.BrowserLauncher, cfg SessionConfig, logger output.LoggerPort) *SessionManager {
	if cfg.URL == "" {
		cfg.URL = DefaultChatURL
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	return &SessionManager{
		launch: launch,
		cfg:    cfg,
		logger: logger.WithField("component", "session"),
	}
}

func (s *SessionManager) EnsurePage(ctx context.Context) (output.PagePort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		if !s.page.IsClosed() {
			return s.page, nil
		}
		s.logger.Warn("Chat page closed, recreating")
		s.page = nil
	}

	if s.browser == nil {
		browser, err := s.launch(ctx)
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.browser = browser
	}

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open chat page: %w", err)
	}

	start := time.Now()
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	defer cancel()

	if err := page.Navigate(navCtx, s.cfg.URL); err != nil {
		_ = page.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if navCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("Chat page not ready", "url", s.cfg.URL, "timeout", s.cfg.ReadyTimeout.String())
			return nil, fmt.Errorf("%w: %s after %s", entity.ErrPageTimeout, s.cfg.URL, s.cfg.ReadyTimeout)
		}
		return nil, fmt.Errorf("navigate %s: %w", s.cfg.URL, err)
	}

	s.logger.Info("Chat page ready", "url", s.cfg.URL, "duration_ms", time.Since(start).Milliseconds())
	s.page = page
	return page, nil
}

// current returns the live page without creating one.
func (s *SessionManager) current() (output.PagePort, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil || s.page.IsClosed() {
		return nil, false
	}
	return s.page, true
}

// Invalidate drops page if it is still the current one, so the next
// EnsurePage starts over.
func (s *SessionManager) Invalidate(page output.PagePort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != nil && s.page == page {
		_ = s.page.Close()
		s.page = nil
	}
}

// Shutdown releases the page and the browser. Calling it again is a no-op.
func (s *SessionManager) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil && !errors.Is(err, entity.ErrBrowserClosed) {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
		s.logger.Info("Browser released")
	}
	return errors.Join(errs...)
}
