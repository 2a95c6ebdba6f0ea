package output

import (
	"context"

	"webchat-bridge/internal/domain/entity"
)

// EditorPort is the host editor as seen by the tools.
type EditorPort interface {
	ActiveDocument(ctx context.Context) (*entity.Document, bool)
	FindFiles(ctx context.Context, query entity.FileQuery) ([]entity.FileSample, error)

	ShowPanel(ctx context.Context, panel entity.Panel) error
	// WriteDiagnostics replaces the diagnostics of uri inside collection.
	WriteDiagnostics(ctx context.Context, collection, uri string, diagnostics []entity.Diagnostic) error
	OpenUntitledDocument(ctx context.Context, name string) (DocumentHandle, error)
}

type DocumentHandle interface {
	Name() string
	Insert(ctx context.Context, at entity.Position, text string) error
}
