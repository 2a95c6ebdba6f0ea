package output

import (
	"context"

	"webchat-bridge/internal/domain/entity"
)

type ToolHandler func(ctx context.Context, params entity.Params) (string, error)

type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, params entity.Params) (string, error)
}

type ToolRegistry interface {
	Register(descriptor entity.ToolDescriptor, handler ToolHandler)
	RegisterTool(tool ToolPort)
	Descriptors() []entity.ToolDescriptor
}
