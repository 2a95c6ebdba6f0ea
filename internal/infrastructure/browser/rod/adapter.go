package rod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/gofrs/flock"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	lock     *flock.Flock
	cfg      BrowserConfig
	logger   output.LoggerPort

	mu     sync.Mutex
	closed bool
}

type BrowserConfig struct {
	Headless        bool
	// Bin overrides the browser executable; empty lets rod find or download one.
	Bin             string
	// UserDataDir keeps cookies and the chat login between runs. Only one
	// process may use a profile at a time.
	UserDataDir     string
	NoSandbox       bool
	SlowMotion      time.Duration
	DevTools        bool
	// ScreenshotWidth caps the width of captured screenshots.
	ScreenshotWidth int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:        false,
		UserDataDir:     "./.browser_data",
		NoSandbox:       true,
		ScreenshotWidth: 1024,
	}
}

// NewLauncher returns a launcher for the session manager. The browser starts
// only when the launcher is called.
func NewLauncher(cfg BrowserConfig, logger output.LoggerPort) output.BrowserLauncher {
	return func(ctx context.Context) (output.BrowserPort, error) {
		return NewBrowserAdapter(ctx, cfg, logger)
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, logger output.LoggerPort) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.ScreenshotWidth <= 0 {
		cfg.ScreenshotWidth = DefaultConfig().ScreenshotWidth
	}
	log := logger.WithField("component", "browser")

	var lock *flock.Flock
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	if cfg.UserDataDir != "" {
		dir, err := filepath.Abs(cfg.UserDataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve user data dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create user data dir: %w", err)
		}
		lock = flock.New(dir + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock browser profile: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("browser profile %s is used by another process", dir)
		}
		l = l.UserDataDir(dir)
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		unlock(lock)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		unlock(lock)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Info("Browser launched", "headless", cfg.Headless, "profile", cfg.UserDataDir)

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		lock:     lock,
		cfg:      cfg,
		logger:   log,
	}, nil
}

func (b *BrowserAdapter) NewPage(ctx context.Context) (output.PagePort, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, entity.ErrBrowserClosed
	}

	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	// detach from the request context; the page outlives the call that made it
	return newPageAdapter(page.Context(context.Background()), b.cfg.ScreenshotWidth), nil
}

// Close shuts the browser down. A persistent profile directory is kept;
// a temporary one is removed.
func (b *BrowserAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		if b.cfg.UserDataDir == "" {
			b.launcher.Cleanup()
		}
	}
	unlock(b.lock)
	b.logger.Info("Browser closed")

	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func unlock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}
