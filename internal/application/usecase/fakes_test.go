package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

type eventLog struct {
	mu    sync.Mutex
	items []string
}

func (l *eventLog) add(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, ev)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// fakePage scripts a chat tab and records what the routine did to it.
type fakePage struct {
	mu     sync.Mutex
	events *eventLog

	inputMissing bool
	neverDone    bool
	generation   time.Duration
	answer       string
	noAnswer     bool
	navigateErr  error
	closeOnWait  bool

	closed     bool
	navigated  int
	lastPrompt string
}

func (p *fakePage) record(ev string) {
	p.events.add(ev)
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigated++
	err := p.navigateErr
	p.mu.Unlock()
	if errors.Is(err, context.DeadlineExceeded) {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *fakePage) WaitElement(ctx context.Context, selector string) error {
	p.record("wait")
	if p.inputMissing {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	p.lastPrompt = text
	p.mu.Unlock()
	p.record("type:" + text)
	return nil
}

func (p *fakePage) Press(ctx context.Context, key string) error {
	p.record("press:" + key)
	return nil
}

func (p *fakePage) WaitGone(ctx context.Context, selector string) error {
	p.record("gone")
	if p.closeOnWait {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		return entity.ErrBrowserClosed
	}
	if p.neverDone {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-time.After(p.generation):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePage) LastText(ctx context.Context, selector string) (string, bool, error) {
	p.record("read")
	if p.noAnswer {
		return "", false, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.answer != "" {
		return p.answer, true, nil
	}
	return "answer to " + p.lastPrompt, true, nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return "<html><body></body></html>", nil
}

func (p *fakePage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{0xff}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (p *fakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// fakeBrowser hands out pages built by template.
type fakeBrowser struct {
	mu       sync.Mutex
	events   eventLog
	template fakePage
	pages    []*fakePage
	closed   int
}

func (b *fakeBrowser) NewPage(ctx context.Context) (output.PagePort, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := &fakePage{
		events:       &b.events,
		inputMissing: b.template.inputMissing,
		neverDone:    b.template.neverDone,
		generation:   b.template.generation,
		answer:       b.template.answer,
		noAnswer:     b.template.noAnswer,
		navigateErr:  b.template.navigateErr,
		closeOnWait:  b.template.closeOnWait,
	}
	b.pages = append(b.pages, page)
	return page, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *fakeBrowser) pageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages)
}

func (b *fakeBrowser) lastPage() *fakePage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pages) == 0 {
		return nil
	}
	return b.pages[len(b.pages)-1]
}

func (p *fakePage) navigations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.navigated
}

func (b *fakeBrowser) launcher(launches *int) output.BrowserLauncher {
	return func(ctx context.Context) (output.BrowserPort, error) {
		if launches != nil {
			*launches++
		}
		return b, nil
	}
}
