package tool

import (
	"context"
	"fmt"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var (
	_ output.ToolPort = (*GenerateDocsTool)(nil)
	_ output.ToolPort = (*GenerateTestsTool)(nil)
	_ output.ToolPort = (*TranslateCodeTool)(nil)
)

var (
	docStyles       = []string{"JSDoc", "TSDoc", "Python", "Markdown"}
	docDetails      = []string{"brief", "detailed", "examples"}
	testFrameworks  = []string{"jest", "mocha", "pytest", "unittest"}
	testCoverages   = []string{"basic", "edge-cases", "full"}
	translateTarget = []string{"Python", "JavaScript", "TypeScript", "Java", "C#"}
	paradigms       = []string{"functional", "OOP", "procedural"}
)

var targetExtensions = map[string]string{
	"Python":     ".py",
	"JavaScript": ".js",
	"TypeScript": ".ts",
	"Java":       ".java",
	"C#":         ".cs",
}

type GenerateDocsTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewGenerateDocsTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *GenerateDocsTool {
	return &GenerateDocsTool{tools: tools, prompts: lib, editor: editor, sink: &DocumentSink{Editor: editor}}
}

func (t *GenerateDocsTool) Name() entity.ToolName { return entity.ToolGenerateDocs }
func (t *GenerateDocsTool) Description() string   { return "Generate documentation for code" }
func (t *GenerateDocsTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"style":  enumProp("Documentation style", "JSDoc", docStyles),
		"detail": enumProp("Level of detail", "detailed", docDetails),
	})
}

func (t *GenerateDocsTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Style  string `json:"style"`
		Detail string `json:"detail"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	style, err := oneOf("style", in.Style, "JSDoc", docStyles)
	if err != nil {
		return "", err
	}
	detail, err := oneOf("detail", in.Detail, "detailed", docDetails)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.GenerateDocs, map[string]any{
		"code":     doc.Text,
		"language": doc.LanguageID,
		"style":    style,
		"detail":   detail,
	})
	if err != nil {
		return "", err
	}
	docs, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{Name: doc.FileName + ".docs.md"}, docs); err != nil {
		return "", err
	}
	return "Documentation generated in new file", nil
}

type GenerateTestsTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewGenerateTestsTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *GenerateTestsTool {
	return &GenerateTestsTool{tools: tools, prompts: lib, editor: editor, sink: &DocumentSink{Editor: editor}}
}

func (t *GenerateTestsTool) Name() entity.ToolName { return entity.ToolGenerateTests }
func (t *GenerateTestsTool) Description() string   { return "Generate unit tests for code" }
func (t *GenerateTestsTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"framework": enumProp("Test framework", "jest", testFrameworks),
		"coverage":  enumProp("How much to cover", "edge-cases", testCoverages),
	})
}

func (t *GenerateTestsTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Framework string `json:"framework"`
		Coverage  string `json:"coverage"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	framework, err := oneOf("framework", in.Framework, "jest", testFrameworks)
	if err != nil {
		return "", err
	}
	coverage, err := oneOf("coverage", in.Coverage, "edge-cases", testCoverages)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.GenerateTests, map[string]any{
		"code":      doc.Text,
		"language":  doc.LanguageID,
		"framework": framework,
		"coverage":  coverage,
	})
	if err != nil {
		return "", err
	}
	tests, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s.test.%s", doc.FileName, doc.LanguageID)
	if err := t.sink.Deliver(ctx, Target{Name: name}, tests); err != nil {
		return "", err
	}
	return "Tests generated in new file", nil
}

type TranslateCodeTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewTranslateCodeTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *TranslateCodeTool {
	return &TranslateCodeTool{tools: tools, prompts: lib, editor: editor, sink: &DocumentSink{Editor: editor}}
}

func (t *TranslateCodeTool) Name() entity.ToolName { return entity.ToolTranslateCode }
func (t *TranslateCodeTool) Description() string   { return "Translate code between languages" }
func (t *TranslateCodeTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"target":   enumProp("Target language", "Python", translateTarget),
		"paradigm": enumProp("Programming paradigm", "OOP", paradigms),
	})
}

func (t *TranslateCodeTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Target   string `json:"target"`
		Paradigm string `json:"paradigm"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	target, err := oneOf("target", in.Target, "Python", translateTarget)
	if err != nil {
		return "", err
	}
	paradigm, err := oneOf("paradigm", in.Paradigm, "OOP", paradigms)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.TranslateCode, map[string]any{
		"code":     doc.Text,
		"language": doc.LanguageID,
		"target":   target,
		"paradigm": paradigm,
	})
	if err != nil {
		return "", err
	}
	translated, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{Name: "translated" + targetExtensions[target]}, translated); err != nil {
		return "", err
	}
	return fmt.Sprintf("Code translated to %s", target), nil
}
