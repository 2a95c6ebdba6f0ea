package usecase

import (
	"context"

	"golang.org/x/sync/semaphore"

	"webchat-bridge/internal/application/port/output"
)

var _ output.ChatPort = (*SerialChat)(nil)

// SerialChat admits one query at a time. Waiters are served in arrival
// order; a waiter whose context ends leaves the queue without running.
type SerialChat struct {
	next output.ChatPort
	gate *semaphore.Weighted
}

func Serialize(next output.ChatPort) *SerialChat {
	return &SerialChat{
		next: next,
		gate: semaphore.NewWeighted(1),
	}
}

func (s *SerialChat) Query(ctx context.Context, prompt string) (string, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.gate.Release(1)
	return s.next.Query(ctx, prompt)
}

// PageProvider hands out the live chat page; SessionManager is one.
type PageProvider interface {
	EnsurePage(ctx context.Context) (output.PagePort, error)
}

// SerialPages lends the chat page under the same gate as the queries of the
// SerialChat it came from, so page tools never touch the tab mid-turn.
type SerialPages struct {
	gate  *semaphore.Weighted
	pages PageProvider
}

func (s *SerialChat) Pages(pages PageProvider) *SerialPages {
	return &SerialPages{gate: s.gate, pages: pages}
}

// WithPage runs fn with the page while holding the gate.
func (p *SerialPages) WithPage(ctx context.Context, fn func(output.PagePort) error) error {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.gate.Release(1)

	page, err := p.pages.EnsurePage(ctx)
	if err != nil {
		return err
	}
	return fn(page)
}
