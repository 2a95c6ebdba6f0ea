package tool

import (
	"context"
	"strings"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var (
	_ output.ToolPort = (*ExplainCodeTool)(nil)
	_ output.ToolPort = (*RefactorCodeTool)(nil)
	_ output.ToolPort = (*GenerateCodeWithPreviewTool)(nil)
)

type ExplainCodeTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
}

func NewExplainCodeTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *ExplainCodeTool {
	return &ExplainCodeTool{tools: tools, prompts: lib, editor: editor}
}

func (t *ExplainCodeTool) Name() entity.ToolName { return entity.ToolExplainCode }
func (t *ExplainCodeTool) Description() string   { return "Explain code in detail" }
func (t *ExplainCodeTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"code":     stringProp("Code to explain; defaults to the editor selection, then the whole document"),
		"language": stringProp("Language of the code"),
	})
}

func (t *ExplainCodeTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	code, language, err := editorCode(ctx, t.editor, in.Code, in.Language)
	if err != nil {
		return "", err
	}

	prompt, err := t.prompts.Render(prompts.ExplainCode, map[string]any{
		"code":     code,
		"language": language,
	})
	if err != nil {
		return "", err
	}
	return ask(ctx, t.tools, prompt)
}

// editorCode resolves the code a tool works on: the code parameter, else
// the active selection, else the whole active document. The document's
// language is used when none was given.
func editorCode(ctx context.Context, editor output.EditorPort, code, language string) (string, string, error) {
	if strings.TrimSpace(code) != "" {
		return code, language, nil
	}
	if editor != nil {
		if doc, ok := editor.ActiveDocument(ctx); ok {
			if language == "" {
				language = doc.LanguageID
			}
			for _, text := range []string{doc.Selection, doc.Text} {
				if strings.TrimSpace(text) != "" {
					return text, language, nil
				}
			}
		}
	}
	return "", "", required("code", code)
}

type RefactorCodeTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
}

func NewRefactorCodeTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *RefactorCodeTool {
	return &RefactorCodeTool{tools: tools, prompts: lib, editor: editor}
}

func (t *RefactorCodeTool) Name() entity.ToolName { return entity.ToolRefactorCode }
func (t *RefactorCodeTool) Description() string   { return "Refactor code with improvements" }
func (t *RefactorCodeTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"code":         stringProp("Code to refactor; defaults to the editor selection, then the whole document"),
		"language":     stringProp("Language of the code"),
		"requirements": stringProp("Optional refactoring requirements"),
	})
}

func (t *RefactorCodeTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Code         string `json:"code"`
		Language     string `json:"language"`
		Requirements string `json:"requirements"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	code, language, err := editorCode(ctx, t.editor, in.Code, in.Language)
	if err != nil {
		return "", err
	}

	prompt, err := t.prompts.Render(prompts.RefactorCode, map[string]any{
		"code":         code,
		"language":     language,
		"requirements": in.Requirements,
	})
	if err != nil {
		return "", err
	}
	return ask(ctx, t.tools, prompt)
}

// GenerateCodeWithPreviewTool shows the generated code in a preview panel
// that is reused across calls.
type GenerateCodeWithPreviewTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	sink    Sink
}

func NewGenerateCodeWithPreviewTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *GenerateCodeWithPreviewTool {
	return &GenerateCodeWithPreviewTool{
		tools:   tools,
		prompts: lib,
		sink:    &PanelSink{Editor: editor, ViewType: "codePreview", Title: "Code Preview"},
	}
}

func (t *GenerateCodeWithPreviewTool) Name() entity.ToolName { return entity.ToolGenerateCodePreview }
func (t *GenerateCodeWithPreviewTool) Description() string {
	return "Generate code with live preview"
}
func (t *GenerateCodeWithPreviewTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"requirements": stringProp("What the code should do"),
		"language":     stringProp("Target language, JavaScript by default"),
	}, "requirements")
}

func (t *GenerateCodeWithPreviewTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Requirements string `json:"requirements"`
		Language     string `json:"language"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if err := required("requirements", in.Requirements); err != nil {
		return "", err
	}
	if in.Language == "" {
		in.Language = "JavaScript"
	}

	prompt, err := t.prompts.Render(prompts.GenerateCodeWithPreview, map[string]any{
		"language":     in.Language,
		"requirements": in.Requirements,
	})
	if err != nil {
		return "", err
	}
	code, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{}, code); err != nil {
		return "", err
	}
	return code, nil
}
