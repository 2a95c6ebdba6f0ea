package entity

type ToolName string

const (
	ToolQueryChatGPT ToolName = "query_chatgpt"

	ToolExplainCode          ToolName = "explain_code"
	ToolRefactorCode         ToolName = "refactor_code"
	ToolContinueConversation ToolName = "continue_conversation"
	ToolGenerateCodePreview  ToolName = "generate_code_with_preview"
	ToolCodeReview           ToolName = "code_review"
	ToolGenerateDocs         ToolName = "generate_docs"
	ToolGenerateTests        ToolName = "generate_tests"
	ToolDebugError           ToolName = "debug_error"
	ToolTranslateCode        ToolName = "translate_code"
	ToolOptimizePerformance  ToolName = "optimize_performance"
	ToolScanSecurity         ToolName = "scan_security"
	ToolSuggestArchitecture  ToolName = "suggest_architecture"
	ToolInteractiveLearn     ToolName = "interactive_learn"

	ToolChatPageScreenshot ToolName = "chat_page_screenshot"
	ToolChatPageSnapshot   ToolName = "chat_page_snapshot"
)

func (t ToolName) String() string {
	return string(t)
}

// ToolDescriptor is immutable once registered. InputSchema is descriptive
// metadata for discovery UIs and is never enforced by the registry.
type ToolDescriptor struct {
	Name        ToolName               `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Params is the untyped argument object a tool is invoked with.
type Params map[string]any

// NoActiveEditor is returned instead of an error by tools that need an open
// document when there is none.
const NoActiveEditor = "No active editor"
