package prompts

import (
	"embed"
	"fmt"
	"strings"

	lcprompts "github.com/tmc/langchaingo/prompts"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names. Tool templates share the tool's name.
const (
	QueryContext            = "query_context"
	ExplainCode             = "explain_code"
	RefactorCode            = "refactor_code"
	ContinueConversation    = "continue_conversation"
	GenerateCodeWithPreview = "generate_code_with_preview"
	CodeReview              = "code_review"
	GenerateDocs            = "generate_docs"
	GenerateTests           = "generate_tests"
	DebugError              = "debug_error"
	TranslateCode           = "translate_code"
	OptimizePerformance     = "optimize_performance"
	ScanSecurity            = "scan_security"
	SuggestArchitecture     = "suggest_architecture"
	InteractiveLearn        = "interactive_learn"
)

// inputVars lists the values every template expects. Rendering fails when
// one is missing.
var inputVars = map[string][]string{
	QueryContext:            {"context", "message"},
	ExplainCode:             {"code", "language"},
	RefactorCode:            {"code", "language", "requirements"},
	ContinueConversation:    {"history", "message"},
	GenerateCodeWithPreview: {"language", "requirements"},
	CodeReview:              {"code", "language", "strictness"},
	GenerateDocs:            {"code", "language", "style", "detail"},
	GenerateTests:           {"code", "language", "framework", "coverage"},
	DebugError:              {"error", "code", "context"},
	TranslateCode:           {"code", "language", "target", "paradigm"},
	OptimizePerformance:     {"code", "language", "focus", "constraints"},
	ScanSecurity:            {"code", "language", "level"},
	SuggestArchitecture:     {"scale", "constraints", "sample"},
	InteractiveLearn:        {"topic", "level"},
}

// Library holds the parsed prompt templates of the tools.
type Library struct {
	templates map[string]lcprompts.PromptTemplate
}

func NewLibrary() (*Library, error) {
	lib := &Library{templates: make(map[string]lcprompts.PromptTemplate, len(inputVars))}
	for name, vars := range inputVars {
		raw, err := templateFS.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("load prompt %s: %w", name, err)
		}
		lib.templates[name] = lcprompts.NewPromptTemplate(strings.TrimRight(string(raw), "\n"), vars)
	}
	return lib, nil
}

func (l *Library) Render(name string, values map[string]any) (string, error) {
	tmpl, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template: %s", name)
	}
	for _, v := range inputVars[name] {
		if _, ok := values[v]; !ok {
			return "", fmt.Errorf("render prompt %s: missing value %q", name, v)
		}
	}
	out, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return out, nil
}

func (l *Library) names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}
