package tool

import (
	"context"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var (
	_ output.ToolPort = (*CodeReviewTool)(nil)
	_ output.ToolPort = (*ScanSecurityTool)(nil)
)

var (
	strictnessLevels = []string{"gentle", "normal", "strict"}
	securityLevels   = []string{"basic", "OWASP", "critical"}
)

const (
	ReviewCollection   = "ai-review"
	SecurityCollection = "ai-security"
)

// CodeReviewTool reviews the active document and publishes the findings as
// warnings on it.
type CodeReviewTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewCodeReviewTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *CodeReviewTool {
	return &CodeReviewTool{
		tools:   tools,
		prompts: lib,
		editor:  editor,
		sink: &DiagnosticsSink{
			Editor:     editor,
			Collection: ReviewCollection,
			Severity:   entity.SeverityWarning,
			Label:      reviewLabel,
		},
	}
}

func (t *CodeReviewTool) Name() entity.ToolName { return entity.ToolCodeReview }
func (t *CodeReviewTool) Description() string   { return "Perform AI-powered code review" }
func (t *CodeReviewTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"strictness": enumProp("Review strictness", "normal", strictnessLevels),
	})
}

func (t *CodeReviewTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Strictness string `json:"strictness"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	strictness, err := oneOf("strictness", in.Strictness, "normal", strictnessLevels)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.CodeReview, map[string]any{
		"code":       doc.Text,
		"language":   doc.LanguageID,
		"strictness": strictness,
	})
	if err != nil {
		return "", err
	}
	review, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{Document: doc}, review); err != nil {
		return "", err
	}
	return review, nil
}

// ScanSecurityTool is CodeReviewTool for vulnerabilities; findings are
// published as errors.
type ScanSecurityTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewScanSecurityTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *ScanSecurityTool {
	return &ScanSecurityTool{
		tools:   tools,
		prompts: lib,
		editor:  editor,
		sink: &DiagnosticsSink{
			Editor:     editor,
			Collection: SecurityCollection,
			Severity:   entity.SeverityError,
			Label:      securityLabel,
		},
	}
}

func (t *ScanSecurityTool) Name() entity.ToolName { return entity.ToolScanSecurity }
func (t *ScanSecurityTool) Description() string {
	return "Scan code for security vulnerabilities"
}
func (t *ScanSecurityTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"level": enumProp("Scan depth", "OWASP", securityLevels),
	})
}

func (t *ScanSecurityTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Level string `json:"level"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	level, err := oneOf("level", in.Level, "OWASP", securityLevels)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.ScanSecurity, map[string]any{
		"code":     doc.Text,
		"language": doc.LanguageID,
		"level":    level,
	})
	if err != nil {
		return "", err
	}
	scan, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{Document: doc}, scan); err != nil {
		return "", err
	}
	return scan, nil
}
