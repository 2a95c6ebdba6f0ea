package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

var _ output.PagePort = (*PageAdapter)(nil)

const (
	settleTimeout = 5 * time.Second
	// infoTimeout bounds the liveness check; a tab that cannot answer
	// Target.getTargetInfo in time is treated as gone.
	infoTimeout = 3 * time.Second

	goneJS = `(selector) => document.querySelector(selector) === null`

	lastTextJS = `(selector) => {
		const all = document.querySelectorAll(selector);
		if (all.length === 0) return null;
		return all[all.length - 1].innerText;
	}`
)

var keys = map[string]input.Key{
	"Enter":  input.Enter,
	"Tab":    input.Tab,
	"Escape": input.Escape,
}

type PageAdapter struct {
	page            *rod.Page
	screenshotWidth int

	mu     sync.Mutex
	closed bool
}

func newPageAdapter(page *rod.Page, screenshotWidth int) *PageAdapter {
	return &PageAdapter{
		page:            page,
		screenshotWidth: screenshotWidth,
	}
}

func (p *PageAdapter) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	// best effort, pages with long-polling never go fully idle
	_ = page.WaitIdle(settleTimeout)
	return nil
}

func (p *PageAdapter) WaitElement(ctx context.Context, selector string) error {
	if _, err := p.page.Context(ctx).Element(selector); err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) Type(ctx context.Context, selector, text string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("field not found: %s: %w", selector, err)
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}

	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (p *PageAdapter) Press(ctx context.Context, key string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key: %s", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Keyboard.Press would run on the page's own context, so the key events
	// are dispatched on a page bound to ctx instead.
	page := p.page.Context(ctx)
	for _, typ := range []proto.InputDispatchKeyEventType{
		proto.InputDispatchKeyEventTypeKeyDown,
		proto.InputDispatchKeyEventTypeKeyUp,
	} {
		if err := k.Encode(typ, 0).Call(page); err != nil {
			return fmt.Errorf("failed to press %s: %w", key, err)
		}
	}
	return nil
}

func (p *PageAdapter) WaitGone(ctx context.Context, selector string) error {
	if err := p.page.Context(ctx).Wait(rod.Eval(goneJS, selector)); err != nil {
		return fmt.Errorf("wait for %s to disappear: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) LastText(ctx context.Context, selector string) (string, bool, error) {
	res, err := p.page.Context(ctx).Eval(lastTextJS, selector)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", selector, err)
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

func (p *PageAdapter) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *PageAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if p.screenshotWidth > 0 && img.Bounds().Dx() > p.screenshotWidth {
		img = imaging.Resize(img, p.screenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// IsClosed reports true once Close was called or the tab no longer answers,
// e.g. because the user closed it.
func (p *PageAdapter) IsClosed() bool {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), infoTimeout)
	defer cancel()
	if _, err := p.page.Context(ctx).Info(); err != nil {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		return true
	}
	return false
}

func (p *PageAdapter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrBrowserClosed, err)
	}
	return nil
}
