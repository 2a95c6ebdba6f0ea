package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

var (
	_ output.ToolRegistry = (*ToolRegistryImpl)(nil)
	_ input.ToolInvoker   = (*ToolRegistryImpl)(nil)
)

type toolEntry struct {
	descriptor entity.ToolDescriptor
	handler    output.ToolHandler
}

// ToolRegistryImpl is a name-keyed dispatch table. It neither validates
// params against the input schema nor wraps or logs handler errors.
type ToolRegistryImpl struct {
	mu    sync.RWMutex
	tools map[entity.ToolName]toolEntry
}

func NewToolRegistry() *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools: make(map[entity.ToolName]toolEntry),
	}
}

// Register stores handler under descriptor.Name. Registering a name twice
// replaces the previous entry: last write wins, no error.
func (r *ToolRegistryImpl) Register(descriptor entity.ToolDescriptor, handler output.ToolHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[descriptor.Name] = toolEntry{descriptor: descriptor, handler: handler}
}

func (r *ToolRegistryImpl) RegisterTool(tool output.ToolPort) {
	r.Register(entity.ToolDescriptor{
		Name:        tool.Name(),
		Description: tool.Description(),
		InputSchema: tool.Parameters(),
	}, tool.Execute)
}

func (r *ToolRegistryImpl) Invoke(ctx context.Context, name entity.ToolName, params entity.Params) (string, error) {
	r.mu.RLock()
	entry, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrToolNotFound, name)
	}
	return entry.handler(ctx, params)
}

func (r *ToolRegistryImpl) descriptor(name entity.ToolName) (entity.ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	return entry.descriptor, ok
}

// Descriptors returns every registered descriptor sorted by name.
func (r *ToolRegistryImpl) Descriptors() []entity.ToolDescriptor {
	r.mu.RLock()
	result := make([]entity.ToolDescriptor, 0, len(r.tools))
	for _, entry := range r.tools {
		result = append(result, entry.descriptor)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
