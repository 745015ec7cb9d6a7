package report

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a heading of the generated report with the text under it.
type Section struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Text     string     `json:"text,omitempty"`
	Children []*Section `json:"children,omitempty"`
}

// Outline parses a markdown report into its heading hierarchy. Text before
// the first heading is returned in a level 0 section with an empty title.
func Outline(md string) []*Section {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	root := &Section{}
	stack := []*Section{root}
	var pending bytes.Buffer

	flush := func() {
		t := strings.TrimSpace(pending.String())
		pending.Reset()
		if t == "" {
			return
		}
		top := stack[len(stack)-1]
		if top.Text != "" {
			top.Text += "\n\n"
		}
		top.Text += t
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			if t := nodeText(n, src); t != "" {
				if pending.Len() > 0 {
					pending.WriteString("\n\n")
				}
				pending.WriteString(t)
			}
			continue
		}
		flush()
		for len(stack) > 1 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		s := &Section{Title: nodeText(h, src), Level: h.Level}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, s)
		stack = append(stack, s)
	}
	flush()

	if root.Text != "" {
		return append([]*Section{{Text: root.Text}}, root.Children...)
	}
	return root.Children
}

// nodeText returns the plain text of a block and its inline children.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Kind() != ast.KindHeading && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(nodeText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
