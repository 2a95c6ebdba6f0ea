package tool

import (
	"context"
	"fmt"
	"strings"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var _ output.ToolPort = (*ContinueConversationTool)(nil)

// ContinueConversationTool replays the caller's history in the prompt. The
// history is owned by the caller; the tool keeps none.
type ContinueConversationTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
}

func NewContinueConversationTool(tools input.ToolInvoker, lib *prompts.Library) *ContinueConversationTool {
	return &ContinueConversationTool{tools: tools, prompts: lib}
}

func (t *ContinueConversationTool) Name() entity.ToolName { return entity.ToolContinueConversation }
func (t *ContinueConversationTool) Description() string {
	return "Continue a conversation with context"
}
func (t *ContinueConversationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"message": stringProp("Next message"),
		"history": map[string]interface{}{
			"type":        "array",
			"description": "Earlier turns, oldest first",
			"items": objectSchema(map[string]interface{}{
				"role":    stringProp("user or assistant"),
				"content": stringProp("Turn text"),
			}),
		},
	}, "message")
}

func (t *ContinueConversationTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Message string                `json:"message"`
		History []entity.HistoryEntry `json:"history"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if err := required("message", in.Message); err != nil {
		return "", err
	}

	prompt, err := t.prompts.Render(prompts.ContinueConversation, map[string]any{
		"history": FormatHistory(in.History),
		"message": in.Message,
	})
	if err != nil {
		return "", err
	}
	return ask(ctx, t.tools, prompt)
}

// FormatHistory renders one "role: content" line per entry.
func FormatHistory(history []entity.HistoryEntry) string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Role, h.Content))
	}
	return strings.Join(lines, "\n")
}
