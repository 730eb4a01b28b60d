package tui

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Iron-Ham/taskpanel/internal/tui/styles"
)

// Elements whose content is never shown.
var hiddenElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
}

// Elements that start and end a line of their own.
var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Tr:         true,
	atom.Table:      true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Main:       true,
	atom.Pre:        true,
	atom.Blockquote: true,
}

var headingElements = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

type projectedLine struct {
	text    string
	heading bool
}

// projector flattens a parsed document into lines. Source newlines inside
// text are kept so blank lines between blocks survive the projection.
type projector struct {
	lines []projectedLine
	cur   strings.Builder
}

func (p *projector) newline() {
	p.lines = append(p.lines, projectedLine{text: strings.TrimSpace(p.cur.String())})
	p.cur.Reset()
}

func (p *projector) text(s string) {
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			p.newline()
		}
		p.cur.WriteString(part)
	}
}

func (p *projector) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch {
		case hiddenElements[n.DataAtom]:
			return
		case n.DataAtom == atom.Br:
			p.newline()
			return
		case headingElements[n.DataAtom]:
			p.newline()
			if title := strings.Join(strings.Fields(textContent(n)), " "); title != "" {
				p.lines = append(p.lines, projectedLine{text: title, heading: true})
			}
			return
		case blockElements[n.DataAtom]:
			p.newline()
			defer p.newline()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

// textContent returns the visible text beneath n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && hiddenElements[n.DataAtom]:
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

// projectMarkup renders a panel document as terminal text. Scripts do not
// run in the terminal, so only the document's static text is shown.
func projectMarkup(markup string, st *styles.Styles) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	var p projector
	p.walk(doc)
	p.newline()

	var lines []string
	blank := true
	for _, line := range p.lines {
		if line.text == "" {
			if !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		text := line.text
		if line.heading && st != nil {
			text = st.Title.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
