package tui

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/taskpanel/internal/planpanel"
)

func TestProjectMarkup_PlanDocument(t *testing.T) {
	markup := planpanel.RenderContent(planpanel.SurfaceContext{CSPSource: "'self'"})
	got := projectMarkup(markup, nil)

	want := "Miss_TaskMaster Project Plan\n\nProject plan visualization will be implemented here."
	if got != want {
		t.Errorf("projectMarkup() = %q, want %q", got, want)
	}
}

func TestProjectMarkup(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"entities are decoded", "<p>a &amp; b &lt;c&gt;</p>", "a & b <c>"},
		{"scripts are dropped", "<p>x</p><script>alert('y')</script>", "x"},
		{"blank runs collapse", "<p>one</p>\n\n\n<div></div><p>two</p>", "one\n\ntwo"},
		{"headings stand alone", "<h2>Title</h2>text", "Title\ntext"},
		{"empty", "", ""},
		{"angle bracket in attribute", `<p title="a > b">text</p>`, "text"},
		{"unclosed paragraphs", "<p>one<p>two", "one\n\ntwo"},
		{"nested inline elements", "<div><p>a <b>bold</b> b</p></div>", "a bold b"},
		{"heading with inline element", "<h1>Plan <em>v2</em></h1><p>body</p>", "Plan v2\n\nbody"},
		{"comments are dropped", "<!-- <p>hidden</p> --><p>shown</p>", "shown"},
		{"styles are dropped", "<style>p { color: red }</style><p>x</p>", "x"},
		{"line breaks", "<p>one<br>two</p>", "one\ntwo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := projectMarkup(tt.markup, nil); got != tt.want {
				t.Errorf("projectMarkup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProjectMarkup_NoTagsRemain(t *testing.T) {
	got := projectMarkup(planpanel.RenderContent(planpanel.SurfaceContext{}), nil)
	if strings.ContainsAny(got, "<>") {
		t.Errorf("projection still contains markup: %q", got)
	}
}
