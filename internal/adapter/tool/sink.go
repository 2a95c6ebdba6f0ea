package tool

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

// Target carries the per-call parts of a sink delivery.
type Target struct {
	Document *entity.Document
	// Name is the untitled document name for DocumentSink.
	Name     string
	// Title overrides the panel title.
	Title    string
}

// Sink publishes a tool's answer into the editor. Deliver is the only side
// effect of a templating tool and happens once, after the answer is
// complete.
type Sink interface {
	Deliver(ctx context.Context, target Target, answer string) error
}

var (
	_ Sink = (*PanelSink)(nil)
	_ Sink = (*DiagnosticsSink)(nil)
	_ Sink = (*DocumentSink)(nil)
)

type PanelSink struct {
	Editor   output.EditorPort
	ViewType string
	Title    string
	// Heading is rendered above the answer when set.
	Heading  string
	// Framed wraps the answer in a bordered box.
	Framed   bool
}

func (s *PanelSink) Deliver(ctx context.Context, target Target, answer string) error {
	title := s.Title
	if target.Title != "" {
		title = target.Title
	}
	return s.Editor.ShowPanel(ctx, entity.Panel{
		ViewType: s.ViewType,
		Title:    title,
		HTML:     s.render(answer),
	})
}

func (s *PanelSink) render(answer string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if s.Heading != "" {
		b.WriteString("<h1>" + html.EscapeString(s.Heading) + "</h1>")
	}
	body := "<pre>" + html.EscapeString(answer) + "</pre>"
	if s.Framed {
		body = `<div style="margin:20px;padding:15px;border:1px solid #ddd;">` + body + "</div>"
	}
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}

// findingPattern matches "- Line N: [TYPE] Description (Severity)".
var findingPattern = regexp.MustCompile(`- Line (\d+): \[(.*?)\] (.*?) \((.*?)\)`)

// findingRangeEnd is the fixed end column of a finding's range.
const findingRangeEnd = 100

type DiagnosticsSink struct {
	Editor     output.EditorPort
	Collection string
	Severity   entity.Severity
	// Label formats the diagnostic message from the finding type and
	// description.
	Label      func(kind, description string) string
}

func (s *DiagnosticsSink) Deliver(ctx context.Context, target Target, answer string) error {
	if target.Document == nil {
		return fmt.Errorf("%w: diagnostics need a document", entity.ErrInvalidParams)
	}
	diags := ParseFindings(answer, s.Severity, s.Label)
	for i := range diags {
		diags[i].Source = s.Collection
	}
	return s.Editor.WriteDiagnostics(ctx, s.Collection, target.Document.URI, diags)
}

// ParseFindings turns every line of text matching the finding format into a
// diagnostic on the zero-based line N-1. Other lines are ignored, as are
// findings with N < 1.
func ParseFindings(text string, severity entity.Severity, label func(kind, description string) string) []entity.Diagnostic {
	if label == nil {
		label = reviewLabel
	}
	diags := []entity.Diagnostic{}
	for _, line := range strings.Split(text, "\n") {
		m := findingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		diags = append(diags, entity.Diagnostic{
			Range: entity.Range{
				Start: entity.Position{Line: n - 1, Character: 0},
				End:   entity.Position{Line: n - 1, Character: findingRangeEnd},
			},
			Message:  label(m[2], m[3]),
			Severity: severity,
		})
	}
	return diags
}

func reviewLabel(kind, description string) string {
	return fmt.Sprintf("[%s] %s", kind, description)
}

func securityLabel(kind, description string) string {
	return fmt.Sprintf("[SECURITY: %s] %s", kind, description)
}

type DocumentSink struct {
	Editor output.EditorPort
}

func (s *DocumentSink) Deliver(ctx context.Context, target Target, answer string) error {
	doc, err := s.Editor.OpenUntitledDocument(ctx, target.Name)
	if err != nil {
		return fmt.Errorf("open %s: %w", target.Name, err)
	}
	return doc.Insert(ctx, entity.Position{}, answer)
}
