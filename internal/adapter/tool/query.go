package tool

import (
	"context"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var _ output.ToolPort = (*QueryTool)(nil)

// QueryTool is query_chatgpt: the prompt goes to the configured chat
// backend and the answer comes back verbatim.
type QueryTool struct {
	chat    output.ChatPort
	prompts *prompts.Library
}

func NewQueryTool(chat output.ChatPort, lib *prompts.Library) *QueryTool {
	return &QueryTool{chat: chat, prompts: lib}
}

func (t *QueryTool) Name() entity.ToolName { return entity.ToolQueryChatGPT }
func (t *QueryTool) Description() string {
	return "Query ChatGPT through the web interface and return the text of its answer."
}
func (t *QueryTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"message": stringProp("Prompt to send"),
		"context": stringProp("Optional context placed before the prompt"),
	}, "message")
}

func (t *QueryTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if err := required("message", in.Message); err != nil {
		return "", err
	}

	prompt := in.Message
	if in.Context != "" {
		var err error
		prompt, err = t.prompts.Render(prompts.QueryContext, map[string]any{
			"context": in.Context,
			"message": in.Message,
		})
		if err != nil {
			return "", err
		}
	}
	return t.chat.Query(ctx, prompt)
}

// ask sends prompt through query_chatgpt so that every tool shares the
// single chat routine and its ordering.
func ask(ctx context.Context, tools input.ToolInvoker, prompt string) (string, error) {
	return tools.Invoke(ctx, entity.ToolQueryChatGPT, entity.Params{"message": prompt})
}
