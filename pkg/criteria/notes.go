package criteria

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// hasReleaseNotes reports whether a release body says anything beyond
// headings and the "Full Changelog" compare link GitHub generates for
// every release.
func hasReleaseNotes(body string) bool {
	source := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(source))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindThematicBreak, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			found = true
			return ast.WalkStop, nil
		case ast.KindParagraph, ast.KindTextBlock:
			line := strings.TrimSpace(blockText(n, source))
			if line != "" && !isCompareLink(line) {
				found = true
				return ast.WalkStop, nil
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

func blockText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

func isCompareLink(line string) bool {
	return strings.Contains(strings.ToLower(line), "full changelog")
}
