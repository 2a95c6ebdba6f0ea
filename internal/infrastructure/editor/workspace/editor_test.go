package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/logger"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func newTestEditor(t *testing.T, cfg Config) *Editor {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	return New(cfg, logger.Nop())
}

func TestActiveDocument_FromConfig(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/app.ts": "line1\nline2\nline3\n"})

	e := newTestEditor(t, Config{Root: root, ActiveFile: "src/app.ts", Selection: "2:3"})
	doc, ok := e.ActiveDocument(context.Background())
	require.True(t, ok)

	assert.Equal(t, "typescript", doc.LanguageID)
	assert.Equal(t, "line1\nline2\nline3\n", doc.Text)
	assert.Equal(t, "line2\nline3", doc.Selection)
	assert.Contains(t, doc.URI, "file://")
	assert.True(t, filepath.IsAbs(doc.FileName))
}

func TestActiveDocument_None(t *testing.T) {
	e := newTestEditor(t, Config{})
	_, ok := e.ActiveDocument(context.Background())
	assert.False(t, ok)

	e = newTestEditor(t, Config{ActiveFile: "missing.go"})
	_, ok = e.ActiveDocument(context.Background())
	assert.False(t, ok)
}

func TestActiveDocument_ContextOverride(t *testing.T) {
	e := newTestEditor(t, Config{})
	doc := NewDocument("main.py", "print(1)")

	got, ok := e.ActiveDocument(WithDocument(context.Background(), doc))
	require.True(t, ok)
	assert.Same(t, doc, got)
	assert.Equal(t, "python", got.LanguageID)
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.js":                  "console.log(1)",
		"b.txt":                 "ignored",
		"pkg/c.go":              "package pkg",
		"pkg/d.py":              "é0123456789",
		"node_modules/lib/e.js": "excluded",
		"web/node_modules/f.ts": "excluded",
		".git/objects/g.js":     "excluded",
	})

	e := newTestEditor(t, Config{Root: root})
	samples, err := e.FindFiles(context.Background(), entity.FileQuery{
		Include:     "**/*.{js,ts,py,java,go}",
		Exclude:     "**/node_modules/**",
		Limit:       20,
		PrefixBytes: 2,
	})
	require.NoError(t, err)

	paths := make([]string, 0, len(samples))
	for _, s := range samples {
		paths = append(paths, s.Path)
	}
	assert.ElementsMatch(t, []string{"a.js", "pkg/c.go", "pkg/d.py"}, paths)

	for _, s := range samples {
		if s.Path == "pkg/d.py" {
			assert.Equal(t, "é", s.Content, "prefix keeps whole runes")
		}
		if s.Path == "a.js" {
			assert.Equal(t, "co", s.Content)
		}
	}
}

func TestFindFiles_LimitAndBadPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"1.go": "", "2.go": "", "3.go": ""})
	e := newTestEditor(t, Config{Root: root})

	samples, err := e.FindFiles(context.Background(), entity.FileQuery{Include: "**/*.go", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	_, err = e.FindFiles(context.Background(), entity.FileQuery{Include: "[", Limit: 2})
	assert.ErrorIs(t, err, entity.ErrInvalidParams)
}

func TestShowPanel(t *testing.T) {
	e := newTestEditor(t, Config{})
	ctx := context.Background()

	require.NoError(t, e.ShowPanel(ctx, entity.Panel{ViewType: "codePreview", Title: "Code Preview", HTML: "<p>1</p>"}))
	require.NoError(t, e.ShowPanel(ctx, entity.Panel{ViewType: "codePreview", Title: "Code Preview", HTML: "<p>2</p>"}))

	data, err := os.ReadFile(e.PanelPath("codePreview"))
	require.NoError(t, err)
	assert.Equal(t, "<p>2</p>", string(data), "the panel of a view type is reused")

	assert.ErrorIs(t, e.ShowPanel(ctx, entity.Panel{}), entity.ErrInvalidParams)
}

func TestWriteDiagnostics_ReplacesPerURI(t *testing.T) {
	e := newTestEditor(t, Config{})
	ctx := context.Background()
	diag := func(line int, msg string) entity.Diagnostic {
		return entity.Diagnostic{
			Range:    entity.Range{Start: entity.Position{Line: line}, End: entity.Position{Line: line, Character: 100}},
			Message:  msg,
			Severity: entity.SeverityWarning,
		}
	}

	require.NoError(t, e.WriteDiagnostics(ctx, "ai-review", "file:///a.ts", []entity.Diagnostic{diag(1, "old")}))
	require.NoError(t, e.WriteDiagnostics(ctx, "ai-review", "file:///b.ts", []entity.Diagnostic{diag(2, "other")}))
	require.NoError(t, e.WriteDiagnostics(ctx, "ai-review", "file:///a.ts", []entity.Diagnostic{diag(4, "new")}))

	all, err := readDiagnostics(e.DiagnosticsPath("ai-review"))
	require.NoError(t, err)
	require.Len(t, all["file:///a.ts"], 1)
	assert.Equal(t, "new", all["file:///a.ts"][0].Message)
	assert.Equal(t, entity.SeverityWarning, all["file:///a.ts"][0].Severity)
	assert.Len(t, all["file:///b.ts"], 1)

	require.NoError(t, e.WriteDiagnostics(ctx, "ai-review", "file:///b.ts", nil))
	all, err = readDiagnostics(e.DiagnosticsPath("ai-review"))
	require.NoError(t, err)
	assert.NotContains(t, all, "file:///b.ts")
}

func TestUntitledDocument_Insert(t *testing.T) {
	e := newTestEditor(t, Config{})
	ctx := context.Background()

	doc, err := e.OpenUntitledDocument(ctx, "/home/me/app.ts.docs.md")
	require.NoError(t, err)
	assert.Equal(t, "/home/me/app.ts.docs.md", doc.Name())

	require.NoError(t, doc.Insert(ctx, entity.Position{}, "world\n"))
	require.NoError(t, doc.Insert(ctx, entity.Position{}, "hello "))
	require.NoError(t, doc.Insert(ctx, entity.Position{Line: 1}, "!"))

	data, err := os.ReadFile(doc.(*untitledDocument).Path())
	require.NoError(t, err)
	assert.Equal(t, "hello world\n!", string(data))

	_, err = e.OpenUntitledDocument(ctx, "")
	assert.ErrorIs(t, err, entity.ErrInvalidParams)
}

func TestUntitledDocument_EachOpenIsANewDocument(t *testing.T) {
	e := newTestEditor(t, Config{})
	ctx := context.Background()

	var paths []string
	for _, text := range []string{"FIRST", "SECOND", "THIRD"} {
		doc, err := e.OpenUntitledDocument(ctx, "translated.py")
		require.NoError(t, err)
		assert.Equal(t, "translated.py", doc.Name())
		require.NoError(t, doc.Insert(ctx, entity.Position{}, text))

		path := doc.(*untitledDocument).Path()
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, text, string(data))
		paths = append(paths, filepath.Base(path))
	}

	assert.Equal(t, []string{"translated.py", "translated-2.py", "translated-3.py"}, paths)
}

func TestOffsetOf(t *testing.T) {
	text := "ab\nçd\n"
	tests := []struct {
		at   entity.Position
		want int
	}{
		{entity.Position{}, 0},
		{entity.Position{Character: 1}, 1},
		{entity.Position{Character: 99}, 2},
		{entity.Position{Line: 1, Character: 1}, 5},
		{entity.Position{Line: 2}, len(text)},
		{entity.Position{Line: 9}, len(text)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, offsetOf(text, tt.at), "%+v", tt.at)
	}
}

func TestLanguageID(t *testing.T) {
	assert.Equal(t, "go", LanguageID("main.go"))
	assert.Equal(t, "csharp", LanguageID("Program.CS"))
	assert.Equal(t, "plaintext", LanguageID("Makefile"))
}
