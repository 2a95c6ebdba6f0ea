package output

import (
	"context"

	"webchat-bridge/internal/domain/entity"
)

// PagePort is a single browser tab. Every blocking call honours ctx; callers
// bound waits by deriving a deadline.
type PagePort interface {
	Navigate(ctx context.Context, url string) error
	WaitElement(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Press(ctx context.Context, key string) error
	WaitGone(ctx context.Context, selector string) error
	// LastText returns the innerText of the last element matching selector.
	// found is false when nothing matches.
	LastText(ctx context.Context, selector string) (text string, found bool, err error)

	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	IsClosed() bool
	Close() error
}

type BrowserPort interface {
	NewPage(ctx context.Context) (PagePort, error)
	Close() error
}

// BrowserLauncher starts a browser process on demand.
type BrowserLauncher func(ctx context.Context) (BrowserPort, error)
