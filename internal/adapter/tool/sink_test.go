package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webchat-bridge/internal/domain/entity"
)

func TestParseFindings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []entity.Diagnostic
	}{
		{
			name: "single finding",
			text: "- Line 5: [BUG] Off by one (High)",
			want: []entity.Diagnostic{{
				Range: entity.Range{
					Start: entity.Position{Line: 4, Character: 0},
					End:   entity.Position{Line: 4, Character: 100},
				},
				Message:  "[BUG] Off by one",
				Severity: entity.SeverityWarning,
			}},
		},
		{
			name: "prose and malformed lines are dropped",
			text: "Overall the code looks fine.\n" +
				"- Line x: [BUG] Not a number (Low)\n" +
				"- Line 3: missing type (Low)\n" +
				"- Line 3 [STYLE] no colon (Low)\n" +
				"1. Line 4: [BUG] numbered (Low)",
			want: []entity.Diagnostic{},
		},
		{
			name: "line zero is skipped",
			text: "- Line 0: [BUG] Before the file (Low)\n- Line 1: [STYLE] Naming (Low)",
			want: []entity.Diagnostic{{
				Range: entity.Range{
					Start: entity.Position{Line: 0},
					End:   entity.Position{Line: 0, Character: 100},
				},
				Message:  "[STYLE] Naming",
				Severity: entity.SeverityWarning,
			}},
		},
		{
			name: "empty answer",
			text: "",
			want: []entity.Diagnostic{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFindings(tt.text, entity.SeverityWarning, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFindings_SecurityLabel(t *testing.T) {
	got := ParseFindings("Findings:\n- Line 12: [XSS] Unescaped output (Critical)\n", entity.SeverityError, securityLabel)

	require.Len(t, got, 1)
	assert.Equal(t, "[SECURITY: XSS] Unescaped output", got[0].Message)
	assert.Equal(t, entity.Range{
		Start: entity.Position{Line: 11},
		End:   entity.Position{Line: 11, Character: 100},
	}, got[0].Range)
	assert.Equal(t, entity.SeverityError, got[0].Severity)
}

func TestParseFindings_KeepsOrderAndCount(t *testing.T) {
	text := "- Line 2: [BUG] A (High)\nnoise\n- Line 9: [PERF] B (Low)\n- Line 2: [STYLE] C (Low)"

	got := ParseFindings(text, entity.SeverityError, nil)

	require.Len(t, got, 3)
	assert.Equal(t, "[BUG] A", got[0].Message)
	assert.Equal(t, 8, got[1].Range.Start.Line)
	assert.Equal(t, "[STYLE] C", got[2].Message)
	for _, d := range got {
		assert.Equal(t, entity.SeverityError, d.Severity)
	}
}

func TestPanelSink_EscapesAnswer(t *testing.T) {
	editor := newFakeEditor(nil)
	sink := &PanelSink{Editor: editor, ViewType: "view", Title: "Title", Heading: "A & B"}

	err := sink.Deliver(context.Background(), Target{}, `<script>alert("x")</script>`)
	require.NoError(t, err)

	require.Len(t, editor.panels, 1)
	panel := editor.panels[0]
	assert.Equal(t, "view", panel.ViewType)
	assert.Equal(t, "Title", panel.Title)
	assert.NotContains(t, panel.HTML, "<script>")
	assert.Contains(t, panel.HTML, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.Contains(t, panel.HTML, "<h1>A &amp; B</h1>")
}

func TestPanelSink_TitleOverrideAndFrame(t *testing.T) {
	editor := newFakeEditor(nil)
	sink := &PanelSink{Editor: editor, ViewType: "learningPanel", Framed: true}

	require.NoError(t, sink.Deliver(context.Background(), Target{Title: "Learn: Go"}, "lesson"))

	require.Len(t, editor.panels, 1)
	assert.Equal(t, "Learn: Go", editor.panels[0].Title)
	assert.Contains(t, editor.panels[0].HTML, `<div style="margin:20px;padding:15px;border:1px solid #ddd;"><pre>lesson</pre></div>`)
}

func TestDiagnosticsSink_RequiresDocument(t *testing.T) {
	editor := newFakeEditor(nil)
	sink := &DiagnosticsSink{Editor: editor, Collection: ReviewCollection}

	err := sink.Deliver(context.Background(), Target{}, "- Line 1: [BUG] x (Low)")

	assert.ErrorIs(t, err, entity.ErrInvalidParams)
	assert.Zero(t, editor.sideEffects())
}

func TestDocumentSink_InsertsAtStart(t *testing.T) {
	editor := newFakeEditor(nil)
	sink := &DocumentSink{Editor: editor}

	require.NoError(t, sink.Deliver(context.Background(), Target{Name: "main.go.docs.md"}, "# Docs"))

	require.Len(t, editor.documents, 1)
	assert.Equal(t, "main.go.docs.md", editor.documents[0].name)
	assert.Equal(t, entity.Position{}, editor.documents[0].at)
	assert.Equal(t, "# Docs", editor.documents[0].text)
}
