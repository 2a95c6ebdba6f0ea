package tool

import (
	"context"
	"errors"
	"sync"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/application/service"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/prompts"
)

type fakeChat struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	err     error
}

func (c *fakeChat) Query(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

func (c *fakeChat) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

type untitled struct {
	name string
	at   entity.Position
	text string
}

type fakeEditor struct {
	mu          sync.Mutex
	doc         *entity.Document
	files       []entity.FileSample
	queries     []entity.FileQuery
	panels      []entity.Panel
	diagnostics map[string][]entity.Diagnostic
	documents   []*untitled
}

func newFakeEditor(doc *entity.Document) *fakeEditor {
	return &fakeEditor{doc: doc, diagnostics: map[string][]entity.Diagnostic{}}
}

func (e *fakeEditor) ActiveDocument(ctx context.Context) (*entity.Document, bool) {
	return e.doc, e.doc != nil
}

func (e *fakeEditor) FindFiles(ctx context.Context, query entity.FileQuery) ([]entity.FileSample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, query)
	if query.Limit > 0 && len(e.files) > query.Limit {
		return e.files[:query.Limit], nil
	}
	return e.files, nil
}

func (e *fakeEditor) ShowPanel(ctx context.Context, panel entity.Panel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panels = append(e.panels, panel)
	return nil
}

func (e *fakeEditor) WriteDiagnostics(ctx context.Context, collection, uri string, diagnostics []entity.Diagnostic) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diagnostics[collection+"|"+uri] = diagnostics
	return nil
}

func (e *fakeEditor) OpenUntitledDocument(ctx context.Context, name string) (output.DocumentHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := &untitled{name: name}
	e.documents = append(e.documents, d)
	return d, nil
}

// sideEffects counts everything the editor was asked to publish.
func (e *fakeEditor) sideEffects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.panels) + len(e.diagnostics) + len(e.documents)
}

func (d *untitled) Name() string { return d.name }

func (d *untitled) Insert(ctx context.Context, at entity.Position, text string) error {
	d.at = at
	d.text = text
	return nil
}

type fakePage struct {
	output.PagePort
	html string
	shot *entity.Screenshot
}

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *fakePage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if p.shot == nil {
		return nil, errors.New("no screenshot")
	}
	return p.shot, nil
}

type fakePages struct {
	page output.PagePort
	err  error
}

func (s *fakePages) WithPage(ctx context.Context, fn func(output.PagePort) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(s.page)
}

var testLibrary = func() *prompts.Library {
	lib, err := prompts.NewLibrary()
	if err != nil {
		panic(err)
	}
	return lib
}()

// newTestRegistry registers every tool against the fakes, with templating
// tools calling query_chatgpt through the registry.
func newTestRegistry(chat output.ChatPort, editor output.EditorPort, pages PageSource) *service.ToolRegistryImpl {
	registry := service.NewToolRegistry()
	RegisterAll(Deps{
		Registry: registry,
		Invoker:  registry,
		Chat:     chat,
		Editor:   editor,
		Prompts:  testLibrary,
		Pages:    pages,
	})
	return registry
}
