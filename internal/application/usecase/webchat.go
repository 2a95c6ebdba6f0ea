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
	DefaultInputTimeout      = 30 * time.Second
	DefaultGenerationTimeout = 90 * time.Second
)

// ChatSelectors locate the parts of the remote chat page. They are the only
// markup-dependent values in the routine.
type ChatSelectors struct {
	Input     string `toml:"input"`
	Streaming string `toml:"streaming"`
	Assistant string `toml:"assistant"`
}

func DefaultChatSelectors() ChatSelectors {
	return ChatSelectors{
		Input:     "#prompt-textarea",
		Streaming: ".result-streaming",
		Assistant: `[data-message-author-role="assistant"]`,
	}
}

type WebChatConfig struct {
	Selectors         ChatSelectors
	InputTimeout      time.Duration
	GenerationTimeout time.Duration
}

func DefaultWebChatConfig() WebChatConfig {
	return WebChatConfig{
		Selectors:         DefaultChatSelectors(),
		InputTimeout:      DefaultInputTimeout,
		GenerationTimeout: DefaultGenerationTimeout,
	}
}

// PageSource hands out the shared chat page.
type PageSource interface {
	EnsurePage(ctx context.Context) (output.PagePort, error)
	Invalidate(page output.PagePort)
}

var _ output.ChatPort = (*WebChat)(nil)

// WebChat submits a prompt to the chat page, waits for the answer to finish
// streaming and scrapes it. It does not serialize callers; wrap it with
// Serialize before sharing it.
type WebChat struct {
	pages  PageSource
	logger output.LoggerPort

	mu  sync.RWMutex
	cfg WebChatConfig
}

func NewWebChat(pages PageSource, cfg WebChatConfig, logger output.LoggerPort) *WebChat {
	def := DefaultWebChatConfig()
	if cfg.InputTimeout <= 0 {
		cfg.InputTimeout = def.InputTimeout
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = def.GenerationTimeout
	}
	cfg.Selectors = mergeSelectors(cfg.Selectors, def.Selectors)
	return &WebChat{
		pages:  pages,
		cfg:    cfg,
		logger: logger.WithField("component", "webchat"),
	}
}

// SetSelectors swaps the page selectors; calls already running keep the old
// ones.
func (c *WebChat) SetSelectors(sel ChatSelectors) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Selectors = mergeSelectors(sel, c.cfg.Selectors)
	c.logger.Info("Chat selectors updated",
		"input", c.cfg.Selectors.Input,
		"streaming", c.cfg.Selectors.Streaming,
		"assistant", c.cfg.Selectors.Assistant)
}

func (c *WebChat) config() WebChatConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Query returns the text of the last assistant message, or "" when the page
// shows none. No step is retried.
func (c *WebChat) Query(ctx context.Context, prompt string) (string, error) {
	cfg := c.config()

	page, err := c.pages.EnsurePage(ctx)
	if err != nil {
		return "", err
	}

	answer, err := c.run(ctx, page, cfg, prompt)
	if err != nil && page.IsClosed() {
		c.logger.Warn("Chat page closed during query")
		c.pages.Invalidate(page)
	}
	return answer, err
}

func (c *WebChat) run(ctx context.Context, page output.PagePort, cfg WebChatConfig, prompt string) (string, error) {
	sel := cfg.Selectors
	start := time.Now()

	if err := bounded(ctx, cfg.InputTimeout, func(ctx context.Context) error {
		return page.WaitElement(ctx, sel.Input)
	}); err != nil {
		return "", classify(ctx, err, entity.ErrElementNotFound, sel.Input, cfg.InputTimeout)
	}

	if err := page.Type(ctx, sel.Input, prompt); err != nil {
		return "", fmt.Errorf("type prompt: %w", err)
	}
	if err := page.Press(ctx, "Enter"); err != nil {
		return "", fmt.Errorf("submit prompt: %w", err)
	}
	c.logger.Debug("Prompt submitted", "chars", len(prompt))

	if err := bounded(ctx, cfg.GenerationTimeout, func(ctx context.Context) error {
		return page.WaitGone(ctx, sel.Streaming)
	}); err != nil {
		return "", classify(ctx, err, entity.ErrGenerationTimeout, sel.Streaming, cfg.GenerationTimeout)
	}

	text, found, err := page.LastText(ctx, sel.Assistant)
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if !found {
		c.logger.Warn("No assistant message on page", "selector", sel.Assistant)
		return "", nil
	}

	c.logger.Info("Answer received", "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func bounded(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(stepCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && stepCtx.Err() != nil {
		return context.DeadlineExceeded
	}
	return err
}

// classify maps an expired step deadline to kind. Cancellation by the caller
// is reported as is.
func classify(ctx context.Context, err, kind error, selector string, timeout time.Duration) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", kind, selector, timeout)
	}
	return fmt.Errorf("%s: %w", selector, err)
}

func mergeSelectors(sel, fallback ChatSelectors) ChatSelectors {
	if sel.Input == "" {
		sel.Input = fallback.Input
	}
	if sel.Streaming == "" {
		sel.Streaming = fallback.Streaming
	}
	if sel.Assistant == "" {
		sel.Assistant = fallback.Assistant
	}
	return sel
}
