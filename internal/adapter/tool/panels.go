package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"webchat-bridge/internal/application/port/input"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

var (
	_ output.ToolPort = (*DebugErrorTool)(nil)
	_ output.ToolPort = (*OptimizePerformanceTool)(nil)
	_ output.ToolPort = (*SuggestArchitectureTool)(nil)
	_ output.ToolPort = (*InteractiveLearnTool)(nil)
)

var (
	performanceFocus = []string{"time", "memory", "both"}
	projectScales    = []string{"small", "medium", "large"}
	learnerLevels    = []string{"beginner", "intermediate", "advanced"}
)

// Sampling of the workspace for suggest_architecture.
const (
	architectureInclude = "**/*.{js,ts,py,java,go}"
	architectureExclude = "**/node_modules/**"
	architectureFind    = 20
	architectureSample  = 5
	architecturePrefix  = 500
)

// DebugErrorTool works with or without an active document; the document
// text only adds context.
type DebugErrorTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewDebugErrorTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *DebugErrorTool {
	return &DebugErrorTool{
		tools:   tools,
		prompts: lib,
		editor:  editor,
		sink:    &PanelSink{Editor: editor, ViewType: "aiDebugger", Title: "AI Debugger", Heading: "Error Debug Analysis"},
	}
}

func (t *DebugErrorTool) Name() entity.ToolName { return entity.ToolDebugError }
func (t *DebugErrorTool) Description() string   { return "Debug errors and exceptions" }
func (t *DebugErrorTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"error":   stringProp("Error message or stack trace"),
		"context": stringProp("Additional context"),
	}, "error")
}

func (t *DebugErrorTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Error   string `json:"error"`
		Context string `json:"context"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if err := required("error", in.Error); err != nil {
		return "", err
	}

	code := ""
	if doc, ok := t.editor.ActiveDocument(ctx); ok {
		code = doc.Text
	}

	prompt, err := t.prompts.Render(prompts.DebugError, map[string]any{
		"error":   in.Error,
		"code":    code,
		"context": in.Context,
	})
	if err != nil {
		return "", err
	}
	analysis, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{}, analysis); err != nil {
		return "", err
	}
	return analysis, nil
}

type OptimizePerformanceTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewOptimizePerformanceTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *OptimizePerformanceTool {
	return &OptimizePerformanceTool{
		tools:   tools,
		prompts: lib,
		editor:  editor,
		sink:    &PanelSink{Editor: editor, ViewType: "performancePanel", Title: "Performance Analysis", Heading: "Performance Optimization"},
	}
}

func (t *OptimizePerformanceTool) Name() entity.ToolName { return entity.ToolOptimizePerformance }
func (t *OptimizePerformanceTool) Description() string {
	return "Analyze and optimize code performance"
}
func (t *OptimizePerformanceTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"focus":       enumProp("What to optimize for", "both", performanceFocus),
		"constraints": stringProp("Constraints the optimized code must respect"),
	})
}

func (t *OptimizePerformanceTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Focus       string `json:"focus"`
		Constraints string `json:"constraints"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	focus, err := oneOf("focus", in.Focus, "both", performanceFocus)
	if err != nil {
		return "", err
	}

	doc, ok := t.editor.ActiveDocument(ctx)
	if !ok {
		return entity.NoActiveEditor, nil
	}

	prompt, err := t.prompts.Render(prompts.OptimizePerformance, map[string]any{
		"code":        doc.Text,
		"language":    doc.LanguageID,
		"focus":       focus,
		"constraints": in.Constraints,
	})
	if err != nil {
		return "", err
	}
	analysis, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{}, analysis); err != nil {
		return "", err
	}
	return analysis, nil
}

// SuggestArchitectureTool samples a few source files of the workspace
// instead of the active document.
type SuggestArchitectureTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	editor  output.EditorPort
	sink    Sink
}

func NewSuggestArchitectureTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *SuggestArchitectureTool {
	return &SuggestArchitectureTool{
		tools:   tools,
		prompts: lib,
		editor:  editor,
		sink:    &PanelSink{Editor: editor, ViewType: "architecturePanel", Title: "Architecture Suggestions", Heading: "Architecture Recommendations"},
	}
}

func (t *SuggestArchitectureTool) Name() entity.ToolName { return entity.ToolSuggestArchitecture }
func (t *SuggestArchitectureTool) Description() string {
	return "Suggest architectural patterns for codebase"
}
func (t *SuggestArchitectureTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"scale":       enumProp("Expected project scale", "medium", projectScales),
		"constraints": stringProp("Architectural constraints"),
	})
}

func (t *SuggestArchitectureTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Scale       string `json:"scale"`
		Constraints string `json:"constraints"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	scale, err := oneOf("scale", in.Scale, "medium", projectScales)
	if err != nil {
		return "", err
	}

	files, err := t.editor.FindFiles(ctx, entity.FileQuery{
		Include:     architectureInclude,
		Exclude:     architectureExclude,
		Limit:       architectureFind,
		PrefixBytes: architecturePrefix,
	})
	if err != nil {
		return "", err
	}
	if len(files) > architectureSample {
		files = files[:architectureSample]
	}
	if files == nil {
		files = []entity.FileSample{}
	}
	sample, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode file sample: %w", err)
	}

	prompt, err := t.prompts.Render(prompts.SuggestArchitecture, map[string]any{
		"scale":       scale,
		"constraints": in.Constraints,
		"sample":      string(sample),
	})
	if err != nil {
		return "", err
	}
	suggestion, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{}, suggestion); err != nil {
		return "", err
	}
	return suggestion, nil
}

type InteractiveLearnTool struct {
	tools   input.ToolInvoker
	prompts *prompts.Library
	sink    Sink
}

func NewInteractiveLearnTool(tools input.ToolInvoker, lib *prompts.Library, editor output.EditorPort) *InteractiveLearnTool {
	return &InteractiveLearnTool{
		tools:   tools,
		prompts: lib,
		sink:    &PanelSink{Editor: editor, ViewType: "learningPanel", Heading: "Learning Session", Framed: true},
	}
}

func (t *InteractiveLearnTool) Name() entity.ToolName { return entity.ToolInteractiveLearn }
func (t *InteractiveLearnTool) Description() string   { return "Interactive programming lessons" }
func (t *InteractiveLearnTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"topic": stringProp("Lesson topic"),
		"level": enumProp("Learner level", "intermediate", learnerLevels),
	}, "topic")
}

func (t *InteractiveLearnTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		Topic string `json:"topic"`
		Level string `json:"level"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if err := required("topic", in.Topic); err != nil {
		return "", err
	}
	level, err := oneOf("level", in.Level, "intermediate", learnerLevels)
	if err != nil {
		return "", err
	}

	prompt, err := t.prompts.Render(prompts.InteractiveLearn, map[string]any{
		"topic": in.Topic,
		"level": level,
	})
	if err != nil {
		return "", err
	}
	lesson, err := ask(ctx, t.tools, prompt)
	if err != nil {
		return "", err
	}
	if err := t.sink.Deliver(ctx, Target{Title: "Learn: " + in.Topic}, lesson); err != nil {
		return "", err
	}
	return "Interactive lesson started", nil
}
