package input

import (
	"context"

	"webchat-bridge/internal/domain/entity"
)

// ToolInvoker dispatches a call to a registered tool by name.
type ToolInvoker interface {
	Invoke(ctx context.Context, name entity.ToolName, params entity.Params) (string, error)
}
