package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/browser/rodwrapper"
)

var (
	_ output.ToolPort = (*ChatPageScreenshotTool)(nil)
	_ output.ToolPort = (*ChatPageSnapshotTool)(nil)
)

// PageSource lends the live chat page to fn and may hold it exclusively
// until fn returns.
type PageSource interface {
	WithPage(ctx context.Context, fn func(output.PagePort) error) error
}

// ChatPageScreenshotTool saves what the chat tab currently shows, mostly to
// see why a selector stopped matching or a login is needed.
type ChatPageScreenshotTool struct {
	pages PageSource
	dir   string
	now   func() time.Time
}

func NewChatPageScreenshotTool(pages PageSource, dir string) *ChatPageScreenshotTool {
	return &ChatPageScreenshotTool{pages: pages, dir: dir, now: time.Now}
}

func (t *ChatPageScreenshotTool) Name() entity.ToolName { return entity.ToolChatPageScreenshot }
func (t *ChatPageScreenshotTool) Description() string {
	return "Save a screenshot of the chat page and return the file path"
}
func (t *ChatPageScreenshotTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ChatPageScreenshotTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var shot *entity.Screenshot
	err := t.pages.WithPage(ctx, func(page output.PagePort) (err error) {
		shot, err = page.Screenshot(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	name := fmt.Sprintf("chat_%s.%s", t.now().Format("2006-01-02_15-04-05.000"), shot.Format)
	path := filepath.Join(t.dir, name)
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}

// ChatPageSnapshotTool returns the chat page markup with everything except
// structure and selector-relevant attributes stripped.
type ChatPageSnapshotTool struct {
	pages PageSource
}

func NewChatPageSnapshotTool(pages PageSource) *ChatPageSnapshotTool {
	return &ChatPageSnapshotTool{pages: pages}
}

func (t *ChatPageSnapshotTool) Name() entity.ToolName { return entity.ToolChatPageSnapshot }
func (t *ChatPageSnapshotTool) Description() string {
	return "Return the cleaned HTML of the chat page for selector diagnosis"
}
func (t *ChatPageSnapshotTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"max_bytes": map[string]interface{}{
			"type":        "integer",
			"description": "Truncate the snapshot to this many bytes",
			"default":     rodwrapper.DefaultCleanConfig.MaxOutputSize,
		},
	})
}

func (t *ChatPageSnapshotTool) Execute(ctx context.Context, params entity.Params) (string, error) {
	var in struct {
		MaxBytes int `json:"max_bytes"`
	}
	if err := decode(params, &in); err != nil {
		return "", err
	}
	if in.MaxBytes < 0 {
		return "", fmt.Errorf("%w: max_bytes must not be negative", entity.ErrInvalidParams)
	}

	var raw string
	err := t.pages.WithPage(ctx, func(page output.PagePort) (err error) {
		raw, err = page.HTML(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	cfg := rodwrapper.DefaultCleanConfig
	if in.MaxBytes > 0 {
		cfg.MaxOutputSize = in.MaxBytes
	}
	return rodwrapper.CleanHTML(raw, &cfg)
}
