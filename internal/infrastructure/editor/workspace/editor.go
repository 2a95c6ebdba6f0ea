package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

var _ output.EditorPort = (*Editor)(nil)

type Config struct {
	Root       string
	// ActiveFile is the document the tools work on when the request does not
	// carry one. Relative paths are resolved against Root.
	ActiveFile string
	// Selection is "start:end", 1-based inclusive line numbers.
	Selection  string
	// OutDir receives panels, diagnostics and untitled documents.
	OutDir     string
}

func DefaultConfig() Config {
	return Config{
		Root:   ".",
		OutDir: ".bridge",
	}
}

// Editor is a headless stand-in for the host editor backed by the
// filesystem.
type Editor struct {
	cfg    Config
	logger output.LoggerPort

	// serializes read-modify-write of output files
	mu sync.Mutex
}

func New(cfg Config, logger output.LoggerPort) *Editor {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultConfig().OutDir
	}
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(cfg.Root, cfg.OutDir)
	}
	return &Editor{
		cfg:    cfg,
		logger: logger.WithField("component", "workspace"),
	}
}

type documentKey struct{}

// WithDocument makes doc the active document for calls made with the
// returned context.
func WithDocument(ctx context.Context, doc *entity.Document) context.Context {
	return context.WithValue(ctx, documentKey{}, doc)
}

func (e *Editor) ActiveDocument(ctx context.Context) (*entity.Document, bool) {
	if doc, ok := ctx.Value(documentKey{}).(*entity.Document); ok && doc != nil {
		return doc, true
	}
	if e.cfg.ActiveFile == "" {
		return nil, false
	}

	path := e.resolve(e.cfg.ActiveFile)
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("Active file unreadable", "path", path, "error", err.Error())
		return nil, false
	}

	doc := NewDocument(path, string(data))
	if e.cfg.Selection != "" {
		sel, err := selectLines(doc.Text, e.cfg.Selection)
		if err != nil {
			e.logger.Warn("Ignoring selection", "selection", e.cfg.Selection, "error", err.Error())
		}
		doc.Selection = sel
	}
	return doc, true
}

// NewDocument builds a document for path, deriving the language from the
// file extension.
func NewDocument(path, text string) *entity.Document {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &entity.Document{
		URI:        "file://" + filepath.ToSlash(abs),
		FileName:   abs,
		LanguageID: LanguageID(path),
		Text:       text,
	}
}

func (e *Editor) FindFiles(ctx context.Context, query entity.FileQuery) ([]entity.FileSample, error) {
	if !doublestar.ValidatePattern(query.Include) {
		return nil, fmt.Errorf("%w: bad include pattern %q", entity.ErrInvalidParams, query.Include)
	}
	if query.Exclude != "" && !doublestar.ValidatePattern(query.Exclude) {
		return nil, fmt.Errorf("%w: bad exclude pattern %q", entity.ErrInvalidParams, query.Exclude)
	}

	root := e.cfg.Root
	outDir, _ := filepath.Abs(e.cfg.OutDir)
	var samples []entity.FileSample

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			abs, _ := filepath.Abs(path)
			if d.Name() == ".git" || abs == outDir || excluded(query.Exclude, rel+"/_") {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(query.Exclude, rel) {
			return nil
		}
		if ok, _ := doublestar.Match(query.Include, rel); !ok {
			return nil
		}

		content, err := readPrefix(path, query.PrefixBytes)
		if err != nil {
			e.logger.Debug("Skipping unreadable file", "path", rel, "error", err.Error())
			return nil
		}
		samples = append(samples, entity.FileSample{Path: rel, Content: content})

		if query.Limit > 0 && len(samples) >= query.Limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find files: %w", err)
	}
	return samples, nil
}

func excluded(pattern, rel string) bool {
	if pattern == "" {
		return false
	}
	ok, _ := doublestar.Match(pattern, rel)
	return ok
}

// readPrefix returns at most n bytes of the file without splitting a UTF-8
// sequence. n <= 0 reads the whole file.
func readPrefix(path string, n int) (string, error) {
	if n <= 0 {
		data, err := os.ReadFile(path)
		return string(data), err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	buf = buf[:read]
	for len(buf) > 0 && !utf8.Valid(buf) {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}

func (e *Editor) ShowPanel(ctx context.Context, panel entity.Panel) error {
	if panel.ViewType == "" {
		return fmt.Errorf("%w: panel without view type", entity.ErrInvalidParams)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.PanelPath(panel.ViewType)
	if err := writeFile(path, []byte(panel.HTML)); err != nil {
		return fmt.Errorf("show panel %s: %w", panel.ViewType, err)
	}
	e.logger.Info("Panel shown", "view", panel.ViewType, "title", panel.Title, "path", path)
	return nil
}

// PanelPath is where the panel of viewType is rendered.
func (e *Editor) PanelPath(viewType string) string {
	return filepath.Join(e.cfg.OutDir, "panels", safeName(viewType)+".html")
}

// DiagnosticsPath is the JSON file holding collection, keyed by document URI.
func (e *Editor) DiagnosticsPath(collection string) string {
	return filepath.Join(e.cfg.OutDir, "diagnostics", safeName(collection)+".json")
}

func (e *Editor) WriteDiagnostics(ctx context.Context, collection, uri string, diagnostics []entity.Diagnostic) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.DiagnosticsPath(collection)
	all, err := readDiagnostics(path)
	if err != nil {
		return fmt.Errorf("read diagnostics %s: %w", collection, err)
	}

	if len(diagnostics) == 0 {
		delete(all, uri)
	} else {
		all[uri] = diagnostics
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("write diagnostics %s: %w", collection, err)
	}
	e.logger.Info("Diagnostics published", "collection", collection, "uri", uri, "count", len(diagnostics))
	return nil
}

// readDiagnostics loads a collection file; a missing file is an empty
// collection.
func readDiagnostics(path string) (map[string][]entity.Diagnostic, error) {
	all := map[string][]entity.Diagnostic{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// OpenUntitledDocument reserves a new file under <out_dir>/untitled for
// every call. A taken name gets a numeric suffix: translated.py,
// translated-2.py, translated-3.py.
func (e *Editor) OpenUntitledDocument(ctx context.Context, name string) (output.DocumentHandle, error) {
	base := safeName(filepath.Base(name))
	if base == "" || base == "." {
		return nil, fmt.Errorf("%w: empty document name", entity.ErrInvalidParams)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dir := filepath.Join(e.cfg.OutDir, "untitled")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; n <= maxUntitled; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return &untitledDocument{editor: e, name: name, path: path}, nil
	}
	return nil, fmt.Errorf("open %s: more than %d untitled documents", name, maxUntitled)
}

const maxUntitled = 1000

type untitledDocument struct {
	editor *Editor
	name   string
	path   string
}

func (d *untitledDocument) Name() string {
	return d.name
}

func (d *untitledDocument) Path() string {
	return d.path
}

func (d *untitledDocument) Insert(ctx context.Context, at entity.Position, text string) error {
	d.editor.mu.Lock()
	defer d.editor.mu.Unlock()

	existing, err := os.ReadFile(d.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("open %s: %w", d.name, err)
	}

	offset := offsetOf(string(existing), at)
	updated := string(existing[:offset]) + text + string(existing[offset:])
	if err := writeFile(d.path, []byte(updated)); err != nil {
		return fmt.Errorf("insert into %s: %w", d.name, err)
	}
	d.editor.logger.Info("Document written", "name", d.name, "path", d.path, "chars", len(text))
	return nil
}

// offsetOf converts a zero-based line/character position into a byte
// offset, clamping to the end of the line and of the text.
func offsetOf(text string, at entity.Position) int {
	offset := 0
	for line := 0; line < at.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	chars := 0
	for i := range text[offset : offset+lineEnd] {
		if chars == at.Character {
			return offset + i
		}
		chars++
	}
	return offset + lineEnd
}

func selectLines(text, selection string) (string, error) {
	startStr, endStr, ok := strings.Cut(selection, ":")
	if !ok {
		endStr = startStr
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return "", fmt.Errorf("bad selection start: %w", err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return "", fmt.Errorf("bad selection end: %w", err)
	}
	lines := strings.Split(text, "\n")
	if start < 1 || end < start || start > len(lines) {
		return "", fmt.Errorf("selection %s out of range", selection)
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

func (e *Editor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.cfg.Root, path)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
