package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

type bridgeState int

const (
	stateIdle bridgeState = iota
	stateRunning
	stateStopped
)

// Session is the resource the bridge brings up before accepting calls and
// releases last.
type Session interface {
	EnsurePage(ctx context.Context) (output.PagePort, error)
	Shutdown() error
}

type ToolCatalog interface {
	input.ToolInvoker
	Descriptors() []entity.ToolDescriptor
}

// Bridge is the entry point for editor commands and transports. It only
// accepts invocations between Initialize and Shutdown.
type Bridge struct {
	tools   ToolCatalog
	session Session
	logger  output.LoggerPort

	mu       sync.Mutex
	state    bridgeState
	inflight sync.WaitGroup
}

// NewBridge wires the bridge. session may be nil when the backend needs no
// browser.
func NewBridge(tools ToolCatalog, session Session, logger output.LoggerPort) *Bridge {
	return &Bridge{
		tools:   tools,
		session: session,
		logger:  logger.WithField("component", "bridge"),
	}
}

func (b *Bridge) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateRunning:
		return nil
	case stateStopped:
		return fmt.Errorf("initialize: %w", entity.ErrNotRunning)
	}

	if b.session != nil {
		if _, err := b.session.EnsurePage(ctx); err != nil {
			return fmt.Errorf("start chat session: %w", err)
		}
	}

	b.state = stateRunning
	b.logger.Info("Bridge ready", "tools", len(b.tools.Descriptors()))
	return nil
}

func (b *Bridge) Tools() []entity.ToolDescriptor {
	return b.tools.Descriptors()
}

var _ input.ToolInvoker = (*Bridge)(nil)

func (b *Bridge) Invoke(ctx context.Context, name entity.ToolName, params entity.Params) (string, error) {
	b.mu.Lock()
	if b.state != stateRunning {
		b.mu.Unlock()
		return "", entity.ErrNotRunning
	}
	b.inflight.Add(1)
	b.mu.Unlock()
	defer b.inflight.Done()

	log := b.logger.WithFields(map[string]any{
		"invocation": uuid.NewString(),
		"tool":       name.String(),
	})
	start := time.Now()
	log.Info("Tool invoked")

	result, err := b.tools.Invoke(ctx, name, params)
	if err != nil {
		log.Error("Tool failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return result, err
	}

	log.Info("Tool completed", "chars", len(result), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Query sends prompt straight to query_chatgpt.
func (b *Bridge) Query(ctx context.Context, prompt string) (string, error) {
	return b.Invoke(ctx, entity.ToolQueryChatGPT, entity.Params{"message": prompt})
}

// Shutdown stops intake, waits for running invocations (bounded by ctx) and
// then releases the session. Repeated calls return nil.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.state == stateStopped {
		b.mu.Unlock()
		return nil
	}
	b.state = stateStopped
	b.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(drained)
	}()

	var waitErr error
	select {
	case <-drained:
	case <-ctx.Done():
		waitErr = fmt.Errorf("wait for in-flight invocations: %w", ctx.Err())
		b.logger.Warn("Shutdown with invocations still running")
	}

	var closeErr error
	if b.session != nil {
		closeErr = b.session.Shutdown()
	}
	b.logger.Info("Bridge stopped")
	return errors.Join(waitErr, closeErr)
}
