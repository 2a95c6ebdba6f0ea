package tool

import (
	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/infrastructure/prompts"
)

// Deps are the collaborators of the tools. Invoker is what the templating
// tools call query_chatgpt through, normally Registry itself. Pages enables
// the chat page tools and is nil for backends without a browser.
type Deps struct {
	Registry output.ToolRegistry
	Invoker  input.ToolInvoker
	Chat     output.ChatPort
	Editor   output.EditorPort
	Prompts  *prompts.Library

	Pages         PageSource
	ScreenshotDir string
}

// RegisterAll registers query_chatgpt, the templating tools and, when a
// page source is given, the chat page tools.
func RegisterAll(d Deps) {
	r := d.Registry
	r.RegisterTool(NewQueryTool(d.Chat, d.Prompts))

	r.RegisterTool(NewExplainCodeTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewRefactorCodeTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewContinueConversationTool(d.Invoker, d.Prompts))
	r.RegisterTool(NewGenerateCodeWithPreviewTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewCodeReviewTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewGenerateDocsTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewGenerateTestsTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewDebugErrorTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewTranslateCodeTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewOptimizePerformanceTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewScanSecurityTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewSuggestArchitectureTool(d.Invoker, d.Prompts, d.Editor))
	r.RegisterTool(NewInteractiveLearnTool(d.Invoker, d.Prompts, d.Editor))

	if d.Pages != nil {
		r.RegisterTool(NewChatPageScreenshotTool(d.Pages, d.ScreenshotDir))
		r.RegisterTool(NewChatPageSnapshotTool(d.Pages))
	}
}
